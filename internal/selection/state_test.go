package selection

import (
	"fmt"
	"testing"

	"canteen/internal/availability"
	"canteen/internal/catalog"
	"canteen/internal/core"
	"canteen/internal/variation"

	"github.com/jaswdr/faker"
	"github.com/shopspring/decimal"
)

func opt(key string) variation.Option {
	return variation.Option{Key: key, Name: key, Price: decimal.NewFromInt(5), Status: availability.StatusAvailable}
}

func customGroup(id int64, st catalog.SelectionType, limit int, keys ...string) variation.Group {
	g := variation.Group{ID: id, Name: fmt.Sprintf("group %d", id), Mode: catalog.ModeCustom, SelectionType: st, MultiLimit: limit}
	for _, k := range keys {
		g.Options = append(g.Options, opt(k))
	}
	return g
}

func TestToggle_SingleOptional(t *testing.T) {
	gs := NewGroupState(customGroup(1, catalog.SingleOptional, 0, "o1", "o2"))

	if res, _ := gs.Toggle("o1"); res != Selected {
		t.Fatalf("expected selected, got %s", res)
	}
	if res, _ := gs.Toggle("o2"); res != Replaced || !gs.IsSelected("o2") || gs.Count() != 1 {
		t.Fatalf("expected o2 to replace o1, got %s", res)
	}
	if res, _ := gs.Toggle("o2"); res != Deselected || gs.Count() != 0 {
		t.Fatalf("expected o2 cleared, got %s", res)
	}
}

func TestToggle_SingleRequiredKeepsSelection(t *testing.T) {
	gs := NewGroupState(customGroup(1, catalog.SingleRequired, 0, "o1", "o2"))

	gs.Toggle("o1")
	gs.Toggle("o1")
	if !gs.IsSelected("o1") {
		t.Fatal("required single group must keep its selection")
	}
}

func TestToggle_MultiLimit(t *testing.T) {
	gs := NewGroupState(customGroup(1, catalog.MultiOptional, 2, "o1", "o2", "o3"))

	gs.Toggle("o1")
	gs.Toggle("o2")
	res, err := gs.Toggle("o3")
	if err != nil {
		t.Fatalf("limit reached is not an error: %v", err)
	}
	if res != LimitReached || gs.Count() != 2 {
		t.Fatalf("expected limit reached with 2 held, got %s and %d", res, gs.Count())
	}

	if res, _ := gs.Toggle("o1"); res != Deselected {
		t.Fatalf("expected o1 removed, got %s", res)
	}
	if res, _ := gs.Toggle("o3"); res != Selected {
		t.Fatalf("expected o3 added after room freed, got %s", res)
	}
}

func TestToggle_UnknownAndUnavailable(t *testing.T) {
	g := customGroup(1, catalog.SingleOptional, 0, "o1")
	g.Options = append(g.Options, variation.Option{Key: "o2", Status: availability.StatusOutOfStock})
	gs := NewGroupState(g)

	if _, err := gs.Toggle("zz"); err != ErrUnknownOption {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
	if _, err := gs.Toggle("o2"); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestToggle_MultiLimitNeverExceeded(t *testing.T) {
	fake := faker.New()

	for run := 0; run < 100; run++ {
		limit := fake.IntBetween(1, 5)
		n := fake.IntBetween(1, 10)
		keys := make([]string, n)
		for i := range keys {
			keys[i] = fmt.Sprintf("o%d", i)
		}

		gs := NewGroupState(customGroup(1, catalog.MultiRequired, limit, keys...))
		for step := 0; step < 50; step++ {
			if _, err := gs.Toggle(keys[fake.IntBetween(0, n-1)]); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gs.Count() > limit {
				t.Fatalf("run %d step %d: %d selections exceed limit %d", run, step, gs.Count(), limit)
			}
		}
	}
}

func multiCategoryGroup() variation.Group {
	drinks, sides := int64(1), int64(2)
	tea, fries := int64(10), int64(20)
	return variation.Group{
		ID:            9,
		Name:          "Pick",
		Mode:          catalog.ModeMultiCategory,
		SelectionType: catalog.MultiOptional,
		Categories:    []variation.CategoryRef{{ID: 1, Name: "Drinks"}, {ID: 2, Name: "Sides"}},
		Options: []variation.Option{
			{Key: "c1-i10", MenuItemID: &tea, CategoryID: &drinks, Status: availability.StatusAvailable},
			{Key: "c2-i20", MenuItemID: &fries, CategoryID: &sides, Status: availability.StatusAvailable},
		},
	}
}

func TestMultiCategory_TwoStep(t *testing.T) {
	gs := NewGroupState(multiCategoryGroup())

	if _, err := gs.Toggle("c1-i10"); err != ErrCategoryRequired {
		t.Fatalf("expected ErrCategoryRequired, got %v", err)
	}

	if err := gs.ChooseCategory(1); err != nil {
		t.Fatal(err)
	}
	if _, err := gs.Toggle("c2-i20"); err != ErrCategoryRequired {
		t.Fatalf("option outside active category must be refused, got %v", err)
	}
	if res, _ := gs.Toggle("c1-i10"); res != Selected {
		t.Fatalf("expected selected, got %s", res)
	}

	gs.ChooseCategory(2)
	if gs.Count() != 0 {
		t.Fatal("switching category must clear the selection")
	}
	if err := gs.ChooseCategory(3); err != ErrUnknownOption {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
}

func comboItem() variation.Item {
	burger := int64(30)
	sauce := customGroup(70, catalog.SingleRequired, 0, "o700", "o701")

	main := variation.Group{
		ID: 1, Name: "Main", Mode: catalog.ModeExisting, SelectionType: catalog.SingleRequired,
		Options: []variation.Option{{
			Key: "i30", Name: "Burger", MenuItemID: &burger, Price: decimal.NewFromInt(40),
			Status: availability.StatusAvailable, SubGroups: []variation.Group{sauce},
		}},
	}

	return variation.Item{
		ID: 100, Name: "Combo", BasePrice: decimal.NewFromInt(20), Status: availability.StatusAvailable,
		Groups: []variation.Group{main, customGroup(2, catalog.MultiOptional, 2, "o1", "o2", "o3")},
		Addons: []variation.Addon{
			{ID: 1, Label: "Cutlery", Price: decimal.Zero, Required: true, Status: availability.StatusAvailable, Position: 1},
			{ID: 2, Label: "Cookie", Price: decimal.NewFromInt(15), Status: availability.StatusAvailable, Position: 0},
		},
	}
}

func TestApply_ValidTree(t *testing.T) {
	s := NewItemState(comboItem())
	errs := s.Apply(Tree{
		Groups: []GroupChoice{
			{GroupID: 1, Options: []PickedOption{{Key: "i30", SubGroups: []GroupChoice{{GroupID: 70, Options: []PickedOption{{Key: "o701"}}}}}}},
			{GroupID: 2, Options: []PickedOption{{Key: "o1"}, {Key: "o3"}}},
		},
		Addons: []int64{2},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if errs := s.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %+v", errs)
	}

	addons := s.Addons()
	if len(addons) != 2 || addons[0].ID != 2 {
		t.Fatalf("expected required and selected addon by position, got %+v", addons)
	}
}

func TestApply_ReportsFieldErrors(t *testing.T) {
	s := NewItemState(comboItem())
	errs := s.Apply(Tree{
		Groups: []GroupChoice{
			{GroupID: 2, Options: []PickedOption{{Key: "o1"}, {Key: "o2"}, {Key: "o3"}}},
			{GroupID: 404},
		},
	})

	codes := make(map[string]string)
	for _, e := range errs {
		codes[e.Field] = e.Code
	}
	if codes["groups.2"] != core.CodeLimitExceeded {
		t.Errorf("expected limit_exceeded on groups.2, got %+v", errs)
	}
	if codes["groups.404"] != core.CodeUnknownOption {
		t.Errorf("expected unknown_option on groups.404, got %+v", errs)
	}

	verrs := s.Validate()
	if len(verrs) != 1 || verrs[0].Field != "groups.1" || verrs[0].Code != core.CodeRequired {
		t.Fatalf("expected missing required main, got %+v", verrs)
	}
}

func TestApply_RejectsSecondNestingLevel(t *testing.T) {
	s := NewItemState(comboItem())
	errs := s.Apply(Tree{Groups: []GroupChoice{{
		GroupID: 1,
		Options: []PickedOption{{
			Key: "i30",
			SubGroups: []GroupChoice{{
				GroupID: 70,
				Options: []PickedOption{{Key: "o700", SubGroups: []GroupChoice{{GroupID: 1}}}},
			}},
		}},
	}}})

	if len(errs) != 1 || errs[0].Code != core.CodeTooDeep {
		t.Fatalf("expected nesting_too_deep, got %+v", errs)
	}
}

func TestValidate_NestedRequiredGroup(t *testing.T) {
	s := NewItemState(comboItem())
	s.Apply(Tree{Groups: []GroupChoice{{GroupID: 1, Options: []PickedOption{{Key: "i30"}}}}})

	errs := s.Validate()
	if len(errs) != 1 || errs[0].Field != "groups.1.i30.groups.70" {
		t.Fatalf("expected nested required error, got %+v", errs)
	}
}

func TestToggleAddon(t *testing.T) {
	s := NewItemState(comboItem())

	if _, err := s.ToggleAddon(1); err != ErrAddonRequired {
		t.Fatalf("expected ErrAddonRequired, got %v", err)
	}
	if res, _ := s.ToggleAddon(2); res != Selected {
		t.Fatalf("expected selected, got %s", res)
	}
	if res, _ := s.ToggleAddon(2); res != Deselected {
		t.Fatalf("expected deselected, got %s", res)
	}
	if len(s.Addons()) != 1 {
		t.Fatal("only the required addon should remain")
	}
}
