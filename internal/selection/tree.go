package selection

import (
	"errors"
	"fmt"

	"canteen/internal/availability"
	"canteen/internal/core"
)

// Tree is a customer's selection as sent by the client
type Tree struct {
	Groups []GroupChoice `json:"groups"`
	Addons []int64       `json:"addons,omitempty"`
}

type GroupChoice struct {
	GroupID    int64          `json:"group_id"`
	CategoryID int64          `json:"category_id,omitempty"`
	Options    []PickedOption `json:"options"`
}

type PickedOption struct {
	Key       string        `json:"key"`
	SubGroups []GroupChoice `json:"sub_groups,omitempty"`
}

// Apply replays tree against state through Toggle and returns every
// problem it found. The state holds whatever could be applied.
func (s *ItemState) Apply(tree Tree) []core.FieldError {
	var errs []core.FieldError

	for _, gc := range tree.Groups {
		field := fmt.Sprintf("groups.%d", gc.GroupID)
		gs, ok := s.Group(gc.GroupID)
		if !ok {
			errs = append(errs, core.FieldError{Field: field, Code: core.CodeUnknownOption, Message: "group does not belong to this item"})
			continue
		}
		errs = append(errs, applyGroup(gs, gc, field)...)
	}

	for _, id := range tree.Addons {
		field := fmt.Sprintf("addons.%d", id)
		a, ok := s.Item.Addon(id)
		if !ok {
			errs = append(errs, core.FieldError{Field: field, Code: core.CodeUnknownOption, Message: "addon does not belong to this item"})
			continue
		}
		if a.Required || s.addons[id] {
			continue
		}
		if _, err := s.ToggleAddon(id); err != nil {
			errs = append(errs, fieldError(field, err))
		}
	}

	return errs
}

func applyGroup(gs *GroupState, gc GroupChoice, field string) []core.FieldError {
	var errs []core.FieldError

	if gc.CategoryID != 0 {
		if err := gs.ChooseCategory(gc.CategoryID); err != nil {
			return append(errs, core.FieldError{Field: field + ".category", Code: core.CodeUnknownOption, Message: "category is not offered by this group"})
		}
	}

	if !gs.Group.Multi() && len(gc.Options) > 1 {
		return append(errs, core.FieldError{Field: field, Code: core.CodeLimitExceeded, Message: "only one option may be chosen"})
	}

	for _, po := range gc.Options {
		optField := field + "." + po.Key

		if !gs.IsSelected(po.Key) {
			res, err := gs.Toggle(po.Key)
			if err != nil {
				errs = append(errs, fieldError(optField, err))
				continue
			}
			if res == LimitReached {
				errs = append(errs, core.FieldError{
					Field:   field,
					Code:    core.CodeLimitExceeded,
					Message: fmt.Sprintf("at most %d options may be chosen", gs.Group.MultiLimit),
				})
				continue
			}
		}

		if len(po.SubGroups) == 0 {
			continue
		}

		choice, _ := gs.Choice(po.Key)
		if gs.depth > 0 {
			errs = append(errs, core.FieldError{Field: optField, Code: core.CodeTooDeep, Message: "options cannot be customized this deep"})
			continue
		}
		for _, sub := range po.SubGroups {
			subField := fmt.Sprintf("%s.groups.%d", optField, sub.GroupID)
			nested, ok := choice.SubGroup(sub.GroupID)
			if !ok {
				errs = append(errs, core.FieldError{Field: subField, Code: core.CodeUnknownOption, Message: "group does not belong to this option"})
				continue
			}
			errs = append(errs, applyGroup(nested, sub, subField)...)
		}
	}

	return errs
}

// Validate re-checks the whole state before an order item is built.
// Availability may have changed since the options were picked, so held
// options are checked again along with required groups and limits.
func (s *ItemState) Validate() []core.FieldError {
	var errs []core.FieldError

	if s.Item.Status != availability.StatusAvailable {
		errs = append(errs, core.FieldError{Field: "item", Code: core.CodeUnavailable, Message: statusMessage(s.Item.Status)})
	}

	for _, gs := range s.Groups {
		errs = append(errs, validateGroup(gs, fmt.Sprintf("groups.%d", gs.Group.ID))...)
	}

	for _, a := range s.Addons() {
		if a.Status != availability.StatusAvailable {
			errs = append(errs, core.FieldError{
				Field:   fmt.Sprintf("addons.%d", a.ID),
				Code:    core.CodeUnavailable,
				Message: fmt.Sprintf("%s: %s", a.Label, statusMessage(a.Status)),
			})
		}
	}

	return errs
}

func validateGroup(gs *GroupState, field string) []core.FieldError {
	var errs []core.FieldError
	g := gs.Group

	if g.Required() && gs.Count() == 0 {
		errs = append(errs, core.FieldError{Field: field, Code: core.CodeRequired, Message: fmt.Sprintf("%s is required", g.Name)})
	}
	if !g.Multi() && gs.Count() > 1 {
		errs = append(errs, core.FieldError{Field: field, Code: core.CodeLimitExceeded, Message: "only one option may be chosen"})
	}
	if g.Multi() && g.MultiLimit > 0 && gs.Count() > g.MultiLimit {
		errs = append(errs, core.FieldError{Field: field, Code: core.CodeLimitExceeded, Message: fmt.Sprintf("at most %d options may be chosen", g.MultiLimit)})
	}

	for _, c := range gs.Choices() {
		optField := field + "." + c.Option.Key
		if live, ok := g.Option(c.Option.Key); !ok || !live.Selectable() {
			errs = append(errs, core.FieldError{Field: optField, Code: core.CodeUnavailable, Message: fmt.Sprintf("%s is no longer available", c.Option.Name)})
		}
		for _, sub := range c.Sub {
			errs = append(errs, validateGroup(sub, fmt.Sprintf("%s.groups.%d", optField, sub.Group.ID))...)
		}
	}

	return errs
}

func fieldError(field string, err error) core.FieldError {
	switch {
	case errors.Is(err, ErrUnavailable):
		return core.FieldError{Field: field, Code: core.CodeUnavailable, Message: err.Error()}
	case errors.Is(err, ErrCategoryRequired):
		return core.FieldError{Field: field, Code: core.CodeCategoryRequired, Message: err.Error()}
	default:
		return core.FieldError{Field: field, Code: core.CodeUnknownOption, Message: err.Error()}
	}
}

func statusMessage(s availability.Status) string {
	switch s {
	case availability.StatusNotServedToday:
		return "not served today"
	case availability.StatusOutOfStock:
		return "out of stock"
	}
	return string(s)
}
