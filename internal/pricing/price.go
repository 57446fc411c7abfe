package pricing

import (
	"canteen/internal/selection"
	"canteen/internal/variation"

	"github.com/shopspring/decimal"
)

// Breakdown is the computed unit price of one customized item
type Breakdown struct {
	Base    decimal.Decimal `json:"base"`
	Options decimal.Decimal `json:"options"`
	Addons  decimal.Decimal `json:"addons"`
	Unit    decimal.Decimal `json:"unit_price"`
}

// UnitPrice is base price plus every held option and charged addon.
// Adjustments are summed, and the result is never below zero.
func UnitPrice(state *selection.ItemState) Breakdown {
	base := Round(state.Item.BasePrice)

	options := decimal.Zero
	for _, gs := range state.Groups {
		for _, c := range gs.Choices() {
			options = options.Add(choiceTotal(c, base))
		}
	}

	addons := decimal.Zero
	for _, a := range state.Addons() {
		addons = addons.Add(Round(a.Price))
	}

	return Breakdown{
		Base:    base,
		Options: options,
		Addons:  addons,
		Unit:    Clamp(base.Add(options).Add(addons)),
	}
}

// choiceTotal is an option plus everything held under it
func choiceTotal(c *selection.Choice, parent decimal.Decimal) decimal.Decimal {
	amount := OptionAmount(c.Option, parent)
	for _, sub := range c.Sub {
		for _, sc := range sub.Choices() {
			amount = amount.Add(OptionAmount(sc.Option, c.Option.Price))
		}
	}
	return amount
}

// OptionAmount is what a held option adds to the item it customizes.
// Menu-item options carry their own non-negative price; a hand-authored
// adjustment may not take the customized item below zero.
func OptionAmount(opt variation.Option, parent decimal.Decimal) decimal.Decimal {
	if opt.MenuItemID != nil {
		return Clamp(opt.Price)
	}
	adj := Round(opt.Price)
	if floor := parent.Neg(); adj.LessThan(floor) {
		return Round(floor)
	}
	return adj
}

// ItemTotal is the frozen line total for quantity units
func ItemTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(quantity))))
}

func Clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return Round(d)
}

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
