package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"canteen/internal/auth"
	"canteen/internal/availability"
	"canteen/internal/core"
	"canteen/internal/menu"
	"canteen/internal/selection"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Archiver keeps a copy of every placed order outside the database
type Archiver interface {
	PutJSON(ctx context.Context, key string, v any) error
}

type Service struct {
	repo    Repository
	menu    *menu.Service
	archive Archiver
}

// NewService wires order placement. archive may be nil.
func NewService(repo Repository, menu *menu.Service, archive Archiver) *Service {
	return &Service{repo: repo, menu: menu, archive: archive}
}

type CreateRequest struct {
	ConcessionID int64         `json:"concession_id" binding:"required"`
	ScheduledFor *time.Time    `json:"scheduled_for,omitempty"`
	Items        []ItemRequest `json:"items"`
}

type ItemRequest struct {
	MenuItemID int64          `json:"menu_item_id"`
	Quantity   int            `json:"quantity"`
	Selection  selection.Tree `json:"selection"`
}

// --------------------------------------------------
// CREATE ORDER
// --------------------------------------------------
func (s *Service) CreateOrder(
	ctx context.Context,
	customerID string,
	req CreateRequest,
) (*Order, error) {

	if len(req.Items) == 0 {
		return nil, core.NewValidationError(core.FieldError{
			Field:   "items",
			Code:    core.CodeRequired,
			Message: "an order needs at least one item",
		})
	}

	now := s.menu.Now()
	ref := now
	orderType := TypeNow
	if req.ScheduledFor != nil {
		ref = *req.ScheduledFor
		orderType = TypeScheduled
	}

	var (
		fields    []core.FieldError
		schedules []availability.WeekSchedule
		items     = make([]Item, 0, len(req.Items))
		total     = decimal.Zero
	)

	for i, ir := range req.Items {
		prefix := fmt.Sprintf("items.%d", i)

		payload, err := s.menu.BuildOrderItemAt(ctx, ir.MenuItemID, ir.Selection, ir.Quantity, ref)
		if err != nil {
			if ve, ok := core.AsValidation(err); ok {
				fields = append(fields, prefixed(prefix, ve.Fields)...)
				continue
			}
			if errors.Is(err, core.ErrNotFound) {
				fields = append(fields, core.FieldError{Field: prefix + ".menu_item_id", Code: core.CodeUnknownOption, Message: err.Error()})
				continue
			}
			return nil, err
		}

		if payload.ConcessionID != req.ConcessionID {
			fields = append(fields, core.FieldError{
				Field:   prefix + ".menu_item_id",
				Code:    core.CodeUnavailable,
				Message: fmt.Sprintf("menu item %d is not sold by concession %d", ir.MenuItemID, req.ConcessionID),
			})
			continue
		}

		snap := payload.Snapshot
		items = append(items, Item{
			ID:         uuid.New(),
			MenuItemID: snap.MenuItemID,
			Name:       snap.MenuItemName,
			Quantity:   snap.Quantity,
			UnitPrice:  snap.UnitPrice,
			ItemTotal:  snap.ItemTotal,
			Snapshot:   snap,
		})
		schedules = append(schedules, payload.Schedules...)
		total = total.Add(snap.ItemTotal)
	}

	if len(fields) > 0 {
		return nil, core.NewValidationError(fields...)
	}

	if err := s.menu.CheckPlacement(ctx, req.ConcessionID, schedules, req.ScheduledFor); err != nil {
		return nil, err
	}

	o := &Order{
		ID:           uuid.New(),
		ConcessionID: req.ConcessionID,
		CustomerID:   customerID,
		OrderDate:    now.Format(dateLayout),
		Type:         orderType,
		ScheduledFor: req.ScheduledFor,
		Status:       StatusPlaced,
		Total:        total,
		Items:        items,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Printf("[ORDER] create failed for concession %d: %v", o.ConcessionID, err)
		return nil, err
	}

	log.Printf("[ORDER] #%d placed at concession %d (%s, %d items, total %s)",
		o.OrderNumber, o.ConcessionID, o.Type, len(o.Items), o.Total.StringFixed(2))

	s.archiveReceipt(ctx, o)

	return o, nil
}

// --------------------------------------------------
// GET ORDER (owner or vendor)
// --------------------------------------------------
func (s *Service) GetOrder(
	ctx context.Context,
	id uuid.UUID,
	userID string,
	role string,
) (*Order, error) {

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// other customers' orders look like missing ones
	if role != auth.RoleVendor && o.CustomerID != userID {
		return nil, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	return o, nil
}

// ReceiptKey is where the archived copy of o lives
func ReceiptKey(o *Order) string {
	return fmt.Sprintf("receipts/%d/%s/%d-%s.json", o.ConcessionID, o.OrderDate, o.OrderNumber, o.ID)
}

// archiving never fails the order; the database row is the record and
// the archive worker picks up what is missed here
func (s *Service) archiveReceipt(ctx context.Context, o *Order) {
	if s.archive == nil {
		return
	}
	key := ReceiptKey(o)
	if err := s.archive.PutJSON(ctx, key, o); err != nil {
		log.Printf("[ORDER] receipt archive failed for %s, leaving it to the archive worker: %v", o.ID, err)
		return
	}
	if err := s.repo.MarkArchived(ctx, o.ID, key); err != nil {
		log.Printf("[ORDER] could not record receipt for %s: %v", o.ID, err)
	}
}

func prefixed(prefix string, fields []core.FieldError) []core.FieldError {
	out := make([]core.FieldError, 0, len(fields))
	for _, f := range fields {
		f.Field = strings.TrimSuffix(prefix+"."+f.Field, ".")
		out = append(out, f)
	}
	return out
}
