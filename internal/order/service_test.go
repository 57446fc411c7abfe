package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"canteen/internal/auth"
	"canteen/internal/availability"
	"canteen/internal/catalog"
	"canteen/internal/core"
	"canteen/internal/menu"
	"canteen/internal/selection"

	"github.com/shopspring/decimal"
)

// 2026-10-12 is a Monday
var noon = time.Date(2026, 10, 12, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ramen() catalog.MenuItem {
	return catalog.MenuItem{
		ID: 10, ConcessionID: 1, Name: "Ramen", BasePrice: dec("80"), Available: true,
		Schedule: availability.AllDays(),
		VariationGroups: []catalog.VariationGroup{
			{ID: 1, Name: "Size", SelectionType: catalog.SingleRequired, Mode: catalog.CustomMode{Options: []catalog.OptionChoice{
				{ID: 100, Name: "Regular", Available: true},
				{ID: 101, Name: "Large", PriceAdjustment: dec("15"), Available: true},
			}}},
		},
	}
}

func seedMenu() *catalog.InMemoryRepository {
	repo := catalog.NewInMemoryRepository()

	var hours availability.ConcessionSchedule
	for i := 0; i < 5; i++ {
		hours.Days[i] = availability.DayHours{IsOpen: true, Open: "09:00", Close: "21:00"}
	}
	repo.SaveConcession(catalog.Concession{ID: 1, Name: "Noodle Bar", IsOpen: true, Schedule: hours})
	repo.SaveConcession(catalog.Concession{ID: 2, Name: "Grill", IsOpen: true, Schedule: hours})

	repo.SaveMenuItem(ramen())
	repo.SaveMenuItem(catalog.MenuItem{
		ID: 30, ConcessionID: 2, Name: "Burger", BasePrice: dec("120"), Available: true,
		Schedule: availability.AllDays(),
	})
	return repo
}

type recordingArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *recordingArchive) PutJSON(ctx context.Context, key string, v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return a.err
}

func newTestService(menus *catalog.InMemoryRepository, repo Repository, archive Archiver) *Service {
	ms := menu.NewService(menus, menus, menu.Options{
		Location:      time.UTC,
		HorizonDays:   7,
		ClosingBuffer: 30 * time.Minute,
		Clock:         func() time.Time { return noon },
	})
	return NewService(repo, ms, archive)
}

func large(qty int) ItemRequest {
	return ItemRequest{
		MenuItemID: 10,
		Quantity:   qty,
		Selection: selection.Tree{Groups: []selection.GroupChoice{
			{GroupID: 1, Options: []selection.PickedOption{{Key: "o101"}}},
		}},
	}
}

func TestCreateOrder_PricesAndNumbers(t *testing.T) {
	archive := &recordingArchive{}
	svc := newTestService(seedMenu(), NewInMemoryRepository(), archive)

	o, err := svc.CreateOrder(context.Background(), "cust-1", CreateRequest{
		ConcessionID: 1,
		Items:        []ItemRequest{large(2)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.OrderNumber != 1 {
		t.Errorf("expected order number 1, got %d", o.OrderNumber)
	}
	if o.OrderDate != "2026-10-12" {
		t.Errorf("unexpected order date %s", o.OrderDate)
	}
	if o.Type != TypeNow || o.Status != StatusPlaced {
		t.Errorf("unexpected type/status %s/%s", o.Type, o.Status)
	}
	if !o.Total.Equal(dec("190")) {
		t.Errorf("expected total 190, got %s", o.Total)
	}
	if len(o.Items) != 1 || !o.Items[0].UnitPrice.Equal(dec("95")) {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	if len(archive.keys) != 1 || archive.keys[0] != ReceiptKey(o) {
		t.Errorf("expected receipt archived under %s, got %v", ReceiptKey(o), archive.keys)
	}
}

func TestCreateOrder_RecordsArchivedReceipt(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := newTestService(seedMenu(), repo, &recordingArchive{})

	o, err := svc.CreateOrder(context.Background(), "cust-1", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}})
	if err != nil {
		t.Fatal(err)
	}

	key, ok := repo.ArchivedKey(o.ID)
	if !ok || key != ReceiptKey(o) {
		t.Errorf("expected archived key %s, got %q", ReceiptKey(o), key)
	}

	ids, err := repo.ClaimUnarchived(context.Background(), time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("an archived order must not be claimed again, got %v", ids)
	}
}

func TestCreateOrder_ConcurrentNumbersAreDistinct(t *testing.T) {
	svc := newTestService(seedMenu(), NewInMemoryRepository(), nil)

	const n = 2
	numbers := make([]int, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := svc.CreateOrder(context.Background(), "cust-1", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}})
			errs[i] = err
			if err == nil {
				numbers[i] = o.OrderNumber
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	sort.Ints(numbers)
	if numbers[0] != 1 || numbers[1] != 2 {
		t.Fatalf("expected numbers {1, 2}, got %v", numbers)
	}
}

func TestCreateOrder_NumbersAreScopedPerConcession(t *testing.T) {
	svc := newTestService(seedMenu(), NewInMemoryRepository(), nil)
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, "c", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}}); err != nil {
		t.Fatal(err)
	}
	o, err := svc.CreateOrder(ctx, "c", CreateRequest{ConcessionID: 2, Items: []ItemRequest{{MenuItemID: 30, Quantity: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if o.OrderNumber != 1 {
		t.Errorf("expected the other concession to start at 1, got %d", o.OrderNumber)
	}
}

func TestCreateOrder_InvalidSelectionPersistsNothing(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := newTestService(seedMenu(), repo, nil)
	ctx := context.Background()

	// Size is required
	_, err := svc.CreateOrder(ctx, "cust-1", CreateRequest{
		ConcessionID: 1,
		Items:        []ItemRequest{large(1), {MenuItemID: 10, Quantity: 1}},
	})
	ve, ok := core.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Fields[0].Field != "items.1.groups.1" || ve.Fields[0].Code != core.CodeRequired {
		t.Errorf("unexpected field error: %+v", ve.Fields[0])
	}

	o, err := svc.CreateOrder(ctx, "cust-1", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}})
	if err != nil {
		t.Fatal(err)
	}
	if o.OrderNumber != 1 {
		t.Errorf("a rejected order must not consume a number, got %d", o.OrderNumber)
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	svc := newTestService(seedMenu(), NewInMemoryRepository(), nil)
	ctx := context.Background()

	saturday := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	past := noon.Add(-time.Hour)

	cases := []struct {
		name string
		req  CreateRequest
		code string
	}{
		{"no items", CreateRequest{ConcessionID: 1}, core.CodeRequired},
		{"zero quantity", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(0)}}, core.CodeInvalidQuantity},
		{"foreign item", CreateRequest{ConcessionID: 1, Items: []ItemRequest{{MenuItemID: 30, Quantity: 1}}}, core.CodeUnavailable},
		{"closed day", CreateRequest{ConcessionID: 1, ScheduledFor: &saturday, Items: []ItemRequest{large(1)}}, core.CodeConcessionClosed},
		{"in the past", CreateRequest{ConcessionID: 1, ScheduledFor: &past, Items: []ItemRequest{large(1)}}, core.CodeOutsideHours},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, "cust-1", tc.req)
			ve, ok := core.AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Fields[0].Code != tc.code {
				t.Errorf("expected code %s, got %+v", tc.code, ve.Fields)
			}
		})
	}
}

func TestCreateOrder_Scheduled(t *testing.T) {
	svc := newTestService(seedMenu(), NewInMemoryRepository(), nil)

	tuesday := time.Date(2026, 10, 13, 10, 30, 0, 0, time.UTC)
	o, err := svc.CreateOrder(context.Background(), "cust-1", CreateRequest{
		ConcessionID: 1,
		ScheduledFor: &tuesday,
		Items:        []ItemRequest{large(1)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Type != TypeScheduled || !o.ScheduledFor.Equal(tuesday) {
		t.Errorf("unexpected schedule: %s %v", o.Type, o.ScheduledFor)
	}
	// numbered on the day it was placed
	if o.OrderDate != "2026-10-12" {
		t.Errorf("unexpected order date %s", o.OrderDate)
	}
}

func TestCreateOrder_ArchiveFailureKeepsOrder(t *testing.T) {
	repo := NewInMemoryRepository()
	archive := &recordingArchive{err: errors.New("bucket unreachable")}
	svc := newTestService(seedMenu(), repo, archive)

	o, err := svc.CreateOrder(context.Background(), "cust-1", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}})
	if err != nil {
		t.Fatalf("archive failure must not fail the order: %v", err)
	}
	if _, err := repo.Get(context.Background(), o.ID); err != nil {
		t.Fatalf("order not stored: %v", err)
	}
	if _, ok := repo.ArchivedKey(o.ID); ok {
		t.Error("a failed upload must leave the order unarchived")
	}
}

func TestGetOrder_SnapshotSurvivesMenuEdits(t *testing.T) {
	menus := seedMenu()
	svc := newTestService(menus, NewInMemoryRepository(), nil)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, "cust-1", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}})
	if err != nil {
		t.Fatal(err)
	}

	edited := ramen()
	edited.BasePrice = dec("200")
	edited.VariationGroups = nil
	menus.SaveMenuItem(edited)

	got, err := svc.GetOrder(ctx, o.ID, "cust-1", auth.RoleCustomer)
	if err != nil {
		t.Fatal(err)
	}
	snap := got.Items[0].Snapshot
	if !snap.BasePrice.Equal(dec("80")) || !snap.UnitPrice.Equal(dec("95")) {
		t.Errorf("snapshot changed with the menu: base %s unit %s", snap.BasePrice, snap.UnitPrice)
	}
	if len(snap.Variations) != 1 || snap.Variations[0].SelectedOptions[0].OptionName != "Large" {
		t.Errorf("unexpected variations: %+v", snap.Variations)
	}
}

func TestGetOrder_Visibility(t *testing.T) {
	svc := newTestService(seedMenu(), NewInMemoryRepository(), nil)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, "cust-1", CreateRequest{ConcessionID: 1, Items: []ItemRequest{large(1)}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetOrder(ctx, o.ID, "cust-2", auth.RoleCustomer); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected another customer to get not found, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, o.ID, "vendor-1", auth.RoleVendor); err != nil {
		t.Errorf("vendor should see the order: %v", err)
	}
}
