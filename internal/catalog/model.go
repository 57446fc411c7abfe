package catalog

import (
	"errors"
	"time"

	"canteen/internal/availability"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned for unknown or deleted menu entities
var ErrNotFound = errors.New("not found")

// SelectionType governs how many options a group may or must hold
type SelectionType string

const (
	SingleRequired SelectionType = "single_required"
	SingleOptional SelectionType = "single_optional"
	MultiRequired  SelectionType = "multi_required"
	MultiOptional  SelectionType = "multi_optional"
)

func (t SelectionType) Valid() bool {
	switch t {
	case SingleRequired, SingleOptional, MultiRequired, MultiOptional:
		return true
	}
	return false
}

func (t SelectionType) IsMulti() bool {
	return t == MultiRequired || t == MultiOptional
}

func (t SelectionType) IsRequired() bool {
	return t == SingleRequired || t == MultiRequired
}

// Concession is a single vendor stall with its own hours and menu
type Concession struct {
	ID       int64                           `json:"id"`
	Name     string                          `json:"name"`
	IsOpen   bool                            `json:"is_open"`
	Schedule availability.ConcessionSchedule `json:"schedule"`
}

// Category groups menu items; category-mode variation groups draw options from it
type Category struct {
	ID           int64  `json:"id"`
	ConcessionID int64  `json:"concession_id"`
	Name         string `json:"name"`
}

// CategoryItems is one category with its current menu items
type CategoryItems struct {
	Category Category
	Items    []MenuItem
}

type MenuItem struct {
	ID              int64                     `json:"id"`
	ConcessionID    int64                     `json:"concession_id"`
	Name            string                    `json:"name"`
	BasePrice       decimal.Decimal           `json:"base_price"`
	Available       bool                      `json:"availability"`
	Schedule        availability.WeekSchedule `json:"availability_schedule"`
	CategoryIDs     []int64                   `json:"category_ids,omitempty"`
	VariationGroups []VariationGroup          `json:"variation_groups,omitempty"`
	Addons          []Addon                   `json:"addons,omitempty"`
}

// StatusAt is the item's availability at the reference time
func (m MenuItem) StatusAt(ref time.Time) availability.Status {
	return availability.GetAvailabilityStatus(m.Schedule, m.Available, ref)
}

// NestableGroups are the groups that may be exposed under another item
func (m MenuItem) NestableGroups() []VariationGroup {
	var out []VariationGroup
	for _, g := range m.VariationGroups {
		if !g.Specific {
			out = append(out, g)
		}
	}
	return out
}

type VariationGroup struct {
	ID            int64         `json:"id"`
	MenuItemID    int64         `json:"menu_item_id"`
	Name          string        `json:"name"`
	SelectionType SelectionType `json:"selection_type"`
	MultiLimit    int           `json:"multi_limit"` // 0 = unlimited
	// Specific groups belong to their item only and are never nested
	// under another item's option.
	Specific bool `json:"specific"`
	Position int  `json:"position"`
	Mode     Mode `json:"-"`
}

type OptionChoice struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	Available       bool            `json:"availability"`
	IsDefault       bool            `json:"is_default"`
	Position        int             `json:"position"`
	Code            string          `json:"code,omitempty"`
}

type Addon struct {
	ID               int64            `json:"id"`
	TargetMenuItemID int64            `json:"target_menu_item_id"`
	Label            string           `json:"label,omitempty"`
	PriceOverride    *decimal.Decimal `json:"price_override,omitempty"`
	Required         bool             `json:"required"`
	Position         int              `json:"position"`
}
