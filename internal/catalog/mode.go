package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ModeKind names a variation group's option source
type ModeKind string

const (
	ModeCustom         ModeKind = "custom"
	ModeSingleCategory ModeKind = "single-category"
	ModeMultiCategory  ModeKind = "multi-category"
	ModeExisting       ModeKind = "existing"
)

// Mode is one of CustomMode, SingleCategoryMode, MultiCategoryMode or
// ExistingMode. Each variant carries only the fields its source needs.
type Mode interface {
	Kind() ModeKind
	sealed()
}

// CustomMode uses hand-authored options
type CustomMode struct {
	Options []OptionChoice
}

// SingleCategoryMode offers every item of one category
type SingleCategoryMode struct {
	CategoryID      int64
	PriceAdjustment decimal.Decimal
}

// MultiCategoryMode offers items of several categories, picked category first
type MultiCategoryMode struct {
	CategoryIDs     []int64
	PriceAdjustment decimal.Decimal
}

// ExistingTarget is one explicitly listed menu item
type ExistingTarget struct {
	MenuItemID    int64
	PriceOverride *decimal.Decimal
}

// ExistingMode offers an explicit ordered list of menu items
type ExistingMode struct {
	Targets []ExistingTarget
}

func (CustomMode) Kind() ModeKind         { return ModeCustom }
func (SingleCategoryMode) Kind() ModeKind { return ModeSingleCategory }
func (MultiCategoryMode) Kind() ModeKind  { return ModeMultiCategory }
func (ExistingMode) Kind() ModeKind       { return ModeExisting }

func (CustomMode) sealed()         {}
func (SingleCategoryMode) sealed() {}
func (MultiCategoryMode) sealed()  {}
func (ExistingMode) sealed()       {}

// ExistingModeFromChoices builds the target list from synthetic option
// choices whose Code holds the backing menu item id. Choices with a code
// that is not an id are ignored.
func ExistingModeFromChoices(choices []OptionChoice, overrides map[int64]decimal.Decimal) ExistingMode {
	var mode ExistingMode
	for _, c := range choices {
		id, err := strconv.ParseInt(c.Code, 10, 64)
		if err != nil {
			continue
		}
		target := ExistingTarget{MenuItemID: id}
		if o, ok := overrides[c.ID]; ok {
			price := o
			target.PriceOverride = &price
		}
		mode.Targets = append(mode.Targets, target)
	}
	return mode
}

// --------------------------------------------------
// JSON wire form (vendor config checks, fixtures)
// --------------------------------------------------

type groupWire struct {
	ID                      int64            `json:"id"`
	MenuItemID              int64            `json:"menu_item_id"`
	Name                    string           `json:"name"`
	Mode                    ModeKind         `json:"mode"`
	SelectionType           SelectionType    `json:"selection_type"`
	MultiLimit              int              `json:"multi_limit"`
	Specific                bool             `json:"specific"`
	Position                int              `json:"position"`
	CategoryFilterID        *int64           `json:"category_filter_id,omitempty"`
	CategoryFilterIDs       []int64          `json:"category_filter_ids,omitempty"`
	CategoryPriceAdjustment *decimal.Decimal `json:"category_price_adjustment,omitempty"`
	Options                 []OptionChoice   `json:"options,omitempty"`
	Targets                 []targetWire     `json:"targets,omitempty"`
}

type targetWire struct {
	MenuItemID    int64            `json:"menu_item_id"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

func (g VariationGroup) MarshalJSON() ([]byte, error) {
	w := groupWire{
		ID:            g.ID,
		MenuItemID:    g.MenuItemID,
		Name:          g.Name,
		SelectionType: g.SelectionType,
		MultiLimit:    g.MultiLimit,
		Specific:      g.Specific,
		Position:      g.Position,
	}

	switch m := g.Mode.(type) {
	case CustomMode:
		w.Mode = ModeCustom
		w.Options = m.Options
	case SingleCategoryMode:
		w.Mode = ModeSingleCategory
		id := m.CategoryID
		adj := m.PriceAdjustment
		w.CategoryFilterID = &id
		w.CategoryPriceAdjustment = &adj
	case MultiCategoryMode:
		w.Mode = ModeMultiCategory
		adj := m.PriceAdjustment
		w.CategoryFilterIDs = m.CategoryIDs
		w.CategoryPriceAdjustment = &adj
	case ExistingMode:
		w.Mode = ModeExisting
		for _, t := range m.Targets {
			w.Targets = append(w.Targets, targetWire{MenuItemID: t.MenuItemID, PriceOverride: t.PriceOverride})
		}
	case nil:
	default:
		return nil, fmt.Errorf("unknown variation mode %T", g.Mode)
	}

	return json.Marshal(w)
}

func (g *VariationGroup) UnmarshalJSON(data []byte) error {
	var w groupWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	g.ID = w.ID
	g.MenuItemID = w.MenuItemID
	g.Name = w.Name
	g.SelectionType = w.SelectionType
	g.MultiLimit = w.MultiLimit
	g.Specific = w.Specific
	g.Position = w.Position

	adj := decimal.Zero
	if w.CategoryPriceAdjustment != nil {
		adj = *w.CategoryPriceAdjustment
	}

	switch w.Mode {
	case ModeCustom, "":
		g.Mode = CustomMode{Options: w.Options}
	case ModeSingleCategory:
		if w.CategoryFilterID == nil {
			return fmt.Errorf("group %q: single-category mode needs category_filter_id", w.Name)
		}
		g.Mode = SingleCategoryMode{CategoryID: *w.CategoryFilterID, PriceAdjustment: adj}
	case ModeMultiCategory:
		if len(w.CategoryFilterIDs) == 0 {
			return fmt.Errorf("group %q: multi-category mode needs category_filter_ids", w.Name)
		}
		g.Mode = MultiCategoryMode{CategoryIDs: w.CategoryFilterIDs, PriceAdjustment: adj}
	case ModeExisting:
		var mode ExistingMode
		for _, t := range w.Targets {
			mode.Targets = append(mode.Targets, ExistingTarget{MenuItemID: t.MenuItemID, PriceOverride: t.PriceOverride})
		}
		g.Mode = mode
	default:
		return fmt.Errorf("group %q: unknown mode %q", w.Name, w.Mode)
	}

	return nil
}
