package snapshot

import (
	"fmt"

	"canteen/internal/core"
	"canteen/internal/pricing"
	"canteen/internal/selection"

	"github.com/shopspring/decimal"
)

// OrderItemSnapshot is a frozen, self-describing copy of one order line.
// Nothing in it refers back to live menu state for its meaning.
type OrderItemSnapshot struct {
	MenuItemID   int64           `json:"menu_item_id"`
	MenuItemName string          `json:"menu_item_name"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Variations   []GroupSnapshot `json:"variation_snapshot"`
	Options      []FlatOption    `json:"options_snapshot"`
	Addons       []AddonSnapshot `json:"addons_snapshot"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ItemTotal    decimal.Decimal `json:"item_total"`
}

type GroupSnapshot struct {
	GroupID           int64            `json:"groupId"`
	GroupName         string           `json:"groupName"`
	SelectionTypeCode string           `json:"selectionTypeCode"`
	MultiLimit        int              `json:"multiLimit"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
}

type SelectedOption struct {
	OptionID           string          `json:"optionId"`
	OptionName         string          `json:"optionName"`
	PriceAdjustment    decimal.Decimal `json:"priceAdjustment"`
	MenuItemID         *int64          `json:"menuItemId,omitempty"`
	CategoryID         *int64          `json:"categoryId,omitempty"`
	SubVariationGroups []GroupSnapshot `json:"subVariationGroups,omitempty"`
}

// FlatOption is a selected option lifted out of the group tree
type FlatOption struct {
	GroupID         int64           `json:"groupId"`
	GroupName       string          `json:"groupName"`
	ParentOptionID  string          `json:"parentOptionId,omitempty"`
	OptionID        string          `json:"optionId"`
	OptionName      string          `json:"optionName"`
	PriceAdjustment decimal.Decimal `json:"priceAdjustment"`
	MenuItemID      *int64          `json:"menuItemId,omitempty"`
}

type AddonSnapshot struct {
	AddonID    int64           `json:"addonId"`
	AddonName  string          `json:"addonName"`
	Price      decimal.Decimal `json:"price"`
	MenuItemID *int64          `json:"menuItemId,omitempty"`
}

// Build freezes state into a snapshot. The caller is expected to have
// validated state; Build only refuses a bad quantity.
func Build(state *selection.ItemState, quantity int) (OrderItemSnapshot, error) {
	if quantity < 1 {
		return OrderItemSnapshot{}, core.NewValidationError(core.FieldError{
			Field:   "quantity",
			Code:    core.CodeInvalidQuantity,
			Message: fmt.Sprintf("quantity must be at least 1, got %d", quantity),
		})
	}

	breakdown := pricing.UnitPrice(state)

	snap := OrderItemSnapshot{
		MenuItemID:   state.Item.ID,
		MenuItemName: state.Item.Name,
		BasePrice:    breakdown.Base,
		Variations:   []GroupSnapshot{},
		Options:      []FlatOption{},
		Addons:       []AddonSnapshot{},
		Quantity:     quantity,
		UnitPrice:    breakdown.Unit,
		ItemTotal:    pricing.ItemTotal(breakdown.Unit, quantity),
	}

	for _, gs := range state.Groups {
		if gs.Count() == 0 {
			continue
		}
		snap.Variations = append(snap.Variations, groupSnapshot(gs, breakdown.Base, "", &snap.Options))
	}

	for _, a := range state.Addons() {
		id := a.MenuItemID
		snap.Addons = append(snap.Addons, AddonSnapshot{
			AddonID:    a.ID,
			AddonName:  a.Label,
			Price:      pricing.Round(a.Price),
			MenuItemID: &id,
		})
	}

	return snap, nil
}

func groupSnapshot(gs *selection.GroupState, parentPrice decimal.Decimal, parentKey string, flat *[]FlatOption) GroupSnapshot {
	out := GroupSnapshot{
		GroupID:           gs.Group.ID,
		GroupName:         gs.Group.Name,
		SelectionTypeCode: string(gs.Group.SelectionType),
		MultiLimit:        gs.Group.MultiLimit,
		SelectedOptions:   []SelectedOption{},
	}

	for _, c := range gs.Choices() {
		amount := pricing.OptionAmount(c.Option, parentPrice)

		sel := SelectedOption{
			OptionID:        c.Option.Key,
			OptionName:      c.Option.Name,
			PriceAdjustment: amount,
			MenuItemID:      copyID(c.Option.MenuItemID),
			CategoryID:      copyID(c.Option.CategoryID),
		}
		*flat = append(*flat, FlatOption{
			GroupID:         gs.Group.ID,
			GroupName:       gs.Group.Name,
			ParentOptionID:  parentKey,
			OptionID:        c.Option.Key,
			OptionName:      c.Option.Name,
			PriceAdjustment: amount,
			MenuItemID:      copyID(c.Option.MenuItemID),
		})

		for _, sub := range c.Sub {
			if sub.Count() == 0 {
				continue
			}
			sel.SubVariationGroups = append(sel.SubVariationGroups, groupSnapshot(sub, c.Option.Price, c.Option.Key, flat))
		}

		out.SelectedOptions = append(out.SelectedOptions, sel)
	}

	return out
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Recompute derives unit price and line total from the snapshot alone
func Recompute(s OrderItemSnapshot) (unit, total decimal.Decimal) {
	sum := s.BasePrice
	for _, o := range s.Options {
		sum = sum.Add(o.PriceAdjustment)
	}
	for _, a := range s.Addons {
		sum = sum.Add(a.Price)
	}

	unit = pricing.Clamp(sum)
	return unit, pricing.ItemTotal(unit, s.Quantity)
}
