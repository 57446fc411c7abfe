package variation

import (
	"canteen/internal/availability"
	"canteen/internal/catalog"

	"github.com/shopspring/decimal"
)

// Item is a menu item with every group and addon resolved for a customer
type Item struct {
	ID           int64                     `json:"id"`
	ConcessionID int64                     `json:"concession_id"`
	Name         string                    `json:"name"`
	BasePrice    decimal.Decimal           `json:"base_price"`
	Status       availability.Status       `json:"status"`
	Schedule     availability.WeekSchedule `json:"availability_schedule"`
	Groups       []Group                   `json:"groups"`
	Addons       []Addon                   `json:"addons"`
}

// Group is a variation group expanded into concrete options
type Group struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Mode          catalog.ModeKind      `json:"mode"`
	SelectionType catalog.SelectionType `json:"selection_type"`
	MultiLimit    int                   `json:"multi_limit"`
	Categories    []CategoryRef         `json:"categories,omitempty"`
	Options       []Option              `json:"options"`
}

// CategoryRef is the first step of a multi-category pick
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Option is one selectable choice.
// Price is what the option adds to its parent item; custom adjustments
// may be negative and are floored by the price calculator.
type Option struct {
	Key        string                     `json:"key"`
	Name       string                     `json:"name"`
	Price      decimal.Decimal            `json:"price"`
	OptionID   int64                      `json:"option_id,omitempty"`
	MenuItemID *int64                     `json:"menu_item_id,omitempty"`
	CategoryID *int64                     `json:"category_id,omitempty"`
	Status     availability.Status        `json:"status"`
	IsDefault  bool                       `json:"is_default,omitempty"`
	Position   int                        `json:"position"`
	Schedule   *availability.WeekSchedule `json:"-"`
	SubGroups  []Group                    `json:"sub_groups,omitempty"`
}

// Addon is a companion item resolved with its effective price
type Addon struct {
	ID         int64                     `json:"id"`
	Label      string                    `json:"label"`
	MenuItemID int64                     `json:"menu_item_id"`
	Price      decimal.Decimal           `json:"price"`
	Required   bool                      `json:"required"`
	Status     availability.Status       `json:"status"`
	Position   int                       `json:"position"`
	Schedule   availability.WeekSchedule `json:"-"`
}

func (g Group) Required() bool { return g.SelectionType.IsRequired() }
func (g Group) Multi() bool    { return g.SelectionType.IsMulti() }

// Option finds an option by key
func (g Group) Option(key string) (Option, bool) {
	for _, o := range g.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// HasCategory reports whether id is one of the multi-category steps
func (g Group) HasCategory(id int64) bool {
	for _, c := range g.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Group finds a resolved group by id
func (i Item) Group(id int64) (Group, bool) {
	for _, g := range i.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Addon finds a resolved addon by id
func (i Item) Addon(id int64) (Addon, bool) {
	for _, a := range i.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

func (o Option) Selectable() bool {
	return o.Status == availability.StatusAvailable
}
