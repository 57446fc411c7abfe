package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canteen/internal/availability"
	"canteen/internal/catalog"
	"canteen/internal/core"
	"canteen/internal/pricing"
	"canteen/internal/schedule"
	"canteen/internal/selection"
	"canteen/internal/snapshot"
	"canteen/internal/variation"

	"github.com/shopspring/decimal"
)

type Options struct {
	Location      *time.Location
	HorizonDays   int
	ClosingBuffer time.Duration
	Clock         func() time.Time
}

type Service struct {
	menus       core.MenuReader
	concessions core.ConcessionReader
	opts        Options
}

func NewService(menus core.MenuReader, concessions core.ConcessionReader, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 7
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{menus: menus, concessions: concessions, opts: opts}
}

// Now is the current time in the canteen's timezone
func (s *Service) Now() time.Time {
	return s.opts.Clock().In(s.opts.Location)
}

// ResolvedItem is what a customer sees when opening an item
type ResolvedItem struct {
	variation.Item
	ConcessionOpen bool              `json:"concession_open"`
	Windows        []schedule.Window `json:"schedule_windows"`
}

// SelectionResult reports whether a selection can be ordered
type SelectionResult struct {
	Valid  bool               `json:"valid"`
	Errors []core.FieldError  `json:"errors"`
	Price  *pricing.Breakdown `json:"price,omitempty"`
}

// OrderItemPayload is a built order line ready to be persisted
type OrderItemPayload struct {
	ConcessionID int64                       `json:"concession_id"`
	Snapshot     snapshot.OrderItemSnapshot  `json:"snapshot"`
	Schedules    []availability.WeekSchedule `json:"-"`
}

// ScheduleResult answers a scheduled pickup check
type ScheduleResult struct {
	Valid  bool   `json:"valid"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// --------------------------------------------------
// RESOLVE (customer opens an item)
// --------------------------------------------------
func (s *Service) ResolveMenuItemForCustomer(
	ctx context.Context,
	itemID int64,
) (*ResolvedItem, error) {

	now := s.Now()

	item, err := s.menus.FetchMenuItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	resolved, err := variation.NewResolver(s.menus, now).ResolveItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("resolve item %d: %w", itemID, err)
	}

	out := &ResolvedItem{Item: resolved, Windows: []schedule.Window{}}

	concession, err := s.concessions.FetchConcession(ctx, item.ConcessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return out, nil
		}
		return nil, err
	}

	out.ConcessionOpen = availability.IsConcessionOpenNow(concession.IsOpen, concession.Schedule, now)
	if windows := schedule.ValidWindows(
		concession.Schedule,
		[]availability.WeekSchedule{item.Schedule},
		now,
		s.opts.HorizonDays,
	); windows != nil {
		out.Windows = windows
	}

	return out, nil
}

// --------------------------------------------------
// VALIDATE (selection tree, no side effects)
// --------------------------------------------------
func (s *Service) ValidateSelection(
	ctx context.Context,
	itemID int64,
	tree selection.Tree,
) (*SelectionResult, error) {

	state, errs, err := s.prepare(ctx, itemID, tree, s.Now())
	if err != nil {
		return nil, err
	}

	res := &SelectionResult{Valid: len(errs) == 0, Errors: errs}
	if res.Errors == nil {
		res.Errors = []core.FieldError{}
	}
	price := pricing.UnitPrice(state)
	res.Price = &price

	return res, nil
}

// --------------------------------------------------
// BUILD ORDER ITEM (add to cart / order now)
// --------------------------------------------------
func (s *Service) BuildOrderItem(
	ctx context.Context,
	itemID int64,
	tree selection.Tree,
	quantity int,
) (*OrderItemPayload, error) {
	return s.BuildOrderItemAt(ctx, itemID, tree, quantity, s.Now())
}

// BuildOrderItemAt resolves availability as of ref, the pickup time of a
// scheduled order.
func (s *Service) BuildOrderItemAt(
	ctx context.Context,
	itemID int64,
	tree selection.Tree,
	quantity int,
	ref time.Time,
) (*OrderItemPayload, error) {

	state, errs, err := s.prepare(ctx, itemID, tree, ref.In(s.opts.Location))
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, core.NewValidationError(errs...)
	}

	snap, err := snapshot.Build(state, quantity)
	if err != nil {
		return nil, err
	}

	return &OrderItemPayload{
		ConcessionID: state.Item.ConcessionID,
		Snapshot:     snap,
		Schedules:    componentSchedules(state),
	}, nil
}

// --------------------------------------------------
// SCHEDULED PICKUP CHECK
// --------------------------------------------------
func (s *Service) ValidateScheduledDateTime(
	ctx context.Context,
	itemID int64,
	candidate time.Time,
	tree selection.Tree,
) (*ScheduleResult, error) {

	candidate = candidate.In(s.opts.Location)

	state, errs, err := s.prepare(ctx, itemID, tree, candidate)
	if err != nil {
		return nil, err
	}

	err = s.CheckPlacement(ctx, state.Item.ConcessionID, componentSchedules(state), &candidate)
	if ve, ok := core.AsValidation(err); ok {
		f := ve.Fields[0]
		return &ScheduleResult{Code: f.Code, Reason: f.Message}, nil
	}
	if err != nil {
		return nil, err
	}

	// the selection may still be incomplete; only components that cannot
	// be had on that day fail the time
	for _, f := range errs {
		if f.Code == core.CodeUnavailable || f.Code == core.CodeUnscheduledDay {
			return &ScheduleResult{Code: f.Code, Reason: f.Field + ": " + f.Message}, nil
		}
	}

	return &ScheduleResult{Valid: true}, nil
}

// CheckPlacement decides whether an order made of components with the
// given schedules can be placed now, or for scheduledFor when set.
func (s *Service) CheckPlacement(
	ctx context.Context,
	concessionID int64,
	schedules []availability.WeekSchedule,
	scheduledFor *time.Time,
) error {

	concession, err := s.concessions.FetchConcession(ctx, concessionID)
	if err != nil {
		return err
	}

	now := s.Now()

	if scheduledFor == nil {
		err = schedule.CheckOrderNow(concession.IsOpen, concession.Schedule, schedules, now, s.opts.ClosingBuffer)
		return placementError("order", err)
	}

	at := scheduledFor.In(s.opts.Location)
	if !at.After(now) {
		return core.NewValidationError(core.FieldError{Field: "scheduled_for", Code: core.CodeOutsideHours, Message: "pickup time must be in the future"})
	}
	if at.After(now.AddDate(0, 0, s.opts.HorizonDays)) {
		return core.NewValidationError(core.FieldError{Field: "scheduled_for", Code: core.CodeOutsideHours, Message: fmt.Sprintf("pickup time must be within %d days", s.opts.HorizonDays)})
	}
	return placementError("scheduled_for", schedule.CheckScheduledDateTime(at, concession.Schedule, schedules))
}

func placementError(field string, err error) error {
	if err == nil {
		return nil
	}

	var code string
	switch {
	case errors.Is(err, schedule.ErrDayUnavailable):
		code = core.CodeUnscheduledDay
	case errors.Is(err, schedule.ErrConcessionClosed):
		code = core.CodeConcessionClosed
	case errors.Is(err, schedule.ErrClosingSoon):
		code = core.CodeClosingSoon
	case errors.Is(err, schedule.ErrOutsideHours), errors.Is(err, schedule.ErrOnBreak):
		code = core.CodeOutsideHours
	default:
		return err
	}

	return core.NewValidationError(core.FieldError{Field: field, Code: code, Message: err.Error()})
}

// --------------------------------------------------
// VENDOR CHECKS (mostly warnings)
// --------------------------------------------------
func (s *Service) CheckCategoryAdjustment(
	ctx context.Context,
	categoryIDs []int64,
	adjustment decimal.Decimal,
) ([]core.ConfigWarning, error) {
	return pricing.CheckCategoryAdjustment(ctx, s.menus, categoryIDs, adjustment)
}

func (s *Service) CheckMenuItemConfig(
	ctx context.Context,
	item catalog.MenuItem,
) ([]core.ConfigWarning, error) {
	return pricing.ValidateGroupConfig(ctx, s.menus, item)
}

// prepare resolves the item as of ref and replays tree onto it
func (s *Service) prepare(
	ctx context.Context,
	itemID int64,
	tree selection.Tree,
	ref time.Time,
) (*selection.ItemState, []core.FieldError, error) {

	item, err := s.menus.FetchMenuItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := variation.NewResolver(s.menus, ref).ResolveItem(ctx, item)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve item %d: %w", itemID, err)
	}

	state := selection.NewItemState(resolved)
	errs := state.Apply(tree)
	errs = append(errs, state.Validate()...)

	return state, errs, nil
}

// componentSchedules lists the schedule of the item and of every held
// option or addon that is itself a menu item.
func componentSchedules(state *selection.ItemState) []availability.WeekSchedule {
	out := []availability.WeekSchedule{state.Item.Schedule}

	var walk func(groups []*selection.GroupState)
	walk = func(groups []*selection.GroupState) {
		for _, gs := range groups {
			for _, c := range gs.Choices() {
				if c.Option.Schedule != nil {
					out = append(out, *c.Option.Schedule)
				}
				walk(c.Sub)
			}
		}
	}
	walk(state.Groups)

	for _, a := range state.Addons() {
		out = append(out, a.Schedule)
	}
	return out
}
