package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"canteen/internal/catalog"
	"canteen/internal/core"

	"github.com/shopspring/decimal"
)

// --------------------------------------------------
// CATEGORY ADJUSTMENT (vendor edit, never blocks)
// --------------------------------------------------
// CheckCategoryAdjustment recomputes every item in the affected categories
// and warns about each one that would end up priced at exactly zero.
func CheckCategoryAdjustment(
	ctx context.Context,
	reader core.MenuReader,
	categoryIDs []int64,
	adjustment decimal.Decimal,
) ([]core.ConfigWarning, error) {

	cats, err := reader.FetchCategoryItems(ctx, categoryIDs...)
	if err != nil {
		return nil, err
	}

	var warnings []core.ConfigWarning
	found := make(map[int64]bool)
	seen := make(map[int64]bool)

	for _, c := range cats {
		found[c.Category.ID] = true
		for _, item := range c.Items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true

			if Clamp(item.BasePrice.Add(adjustment)).IsZero() {
				warnings = append(warnings, core.ConfigWarning{
					Code:       core.WarnZeroPrice,
					Message:    fmt.Sprintf("%s would be priced at 0 (%s %s)", item.Name, Round(item.BasePrice), signed(adjustment)),
					CategoryID: c.Category.ID,
					MenuItemID: item.ID,
				})
			}
		}
	}

	warnings = append(warnings, missingCategories(categoryIDs, found)...)
	return warnings, nil
}

// --------------------------------------------------
// VARIATION GROUP CONFIG (vendor edit)
// --------------------------------------------------
// ValidateGroupConfig checks an item's groups for dangling references,
// bad limits and adjustments that would zero the item's price, alone or
// combined. A negative base price is rejected outright.
func ValidateGroupConfig(
	ctx context.Context,
	reader core.MenuReader,
	item catalog.MenuItem,
) ([]core.ConfigWarning, error) {

	// the only hard stop; everything below is a warning
	if item.BasePrice.IsNegative() {
		return nil, core.NewValidationError(core.FieldError{
			Field:   "base_price",
			Code:    core.CodeNegativePrice,
			Message: fmt.Sprintf("base price %s must not be negative", Round(item.BasePrice)),
		})
	}

	var (
		warnings []core.ConfigWarning
		combined = decimal.Zero
	)
	individual := false

	for _, g := range item.VariationGroups {
		if g.MultiLimit < 0 || (!g.SelectionType.IsMulti() && g.MultiLimit > 1) {
			warnings = append(warnings, core.ConfigWarning{
				Code:    core.WarnLimitBelowNeeded,
				Message: fmt.Sprintf("%s: limit %d does not fit %s", g.Name, g.MultiLimit, g.SelectionType),
				GroupID: g.ID,
			})
		}

		switch mode := g.Mode.(type) {
		case catalog.CustomMode:
			negatives := make([]decimal.Decimal, 0, len(mode.Options))
			for _, o := range mode.Options {
				if !o.PriceAdjustment.IsNegative() {
					continue
				}
				negatives = append(negatives, o.PriceAdjustment)
				if Clamp(item.BasePrice.Add(o.PriceAdjustment)).IsZero() {
					individual = true
					warnings = append(warnings, core.ConfigWarning{
						Code:    core.WarnZeroPrice,
						Message: fmt.Sprintf("%s with %s would be priced at 0", item.Name, o.Name),
						GroupID: g.ID,
					})
				}
			}
			combined = combined.Add(worstCase(negatives, g))

		case catalog.SingleCategoryMode:
			w, err := categoryRefs(ctx, reader, g, []int64{mode.CategoryID}, mode.PriceAdjustment)
			if err != nil {
				return nil, err
			}
			warnings = append(warnings, w...)

		case catalog.MultiCategoryMode:
			w, err := categoryRefs(ctx, reader, g, mode.CategoryIDs, mode.PriceAdjustment)
			if err != nil {
				return nil, err
			}
			warnings = append(warnings, w...)

		case catalog.ExistingMode:
			for _, target := range mode.Targets {
				_, err := reader.FetchMenuItem(ctx, target.MenuItemID)
				if errors.Is(err, catalog.ErrNotFound) {
					warnings = append(warnings, core.ConfigWarning{
						Code:       core.WarnMissingMenuItem,
						Message:    fmt.Sprintf("%s references a deleted menu item", g.Name),
						GroupID:    g.ID,
						MenuItemID: target.MenuItemID,
					})
					continue
				}
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if !individual && !combined.IsZero() && Clamp(item.BasePrice.Add(combined)).IsZero() {
		warnings = append(warnings, core.ConfigWarning{
			Code:       core.WarnCombinedZero,
			Message:    fmt.Sprintf("%s could be priced at 0 when discounts are combined (%s)", item.Name, signed(combined)),
			MenuItemID: item.ID,
		})
	}

	return warnings, nil
}

// worstCase is the largest discount one group can apply at once
func worstCase(negatives []decimal.Decimal, g catalog.VariationGroup) decimal.Decimal {
	if len(negatives) == 0 {
		return decimal.Zero
	}
	sort.Slice(negatives, func(i, j int) bool { return negatives[i].LessThan(negatives[j]) })

	n := 1
	if g.SelectionType.IsMulti() {
		n = len(negatives)
		if g.MultiLimit > 0 && g.MultiLimit < n {
			n = g.MultiLimit
		}
	}

	sum := decimal.Zero
	for _, d := range negatives[:n] {
		sum = sum.Add(d)
	}
	return sum
}

func categoryRefs(
	ctx context.Context,
	reader core.MenuReader,
	g catalog.VariationGroup,
	categoryIDs []int64,
	adjustment decimal.Decimal,
) ([]core.ConfigWarning, error) {

	warnings, err := CheckCategoryAdjustment(ctx, reader, categoryIDs, adjustment)
	if err != nil {
		return nil, err
	}
	for i := range warnings {
		warnings[i].GroupID = g.ID
	}
	return warnings, nil
}

func missingCategories(ids []int64, found map[int64]bool) []core.ConfigWarning {
	var out []core.ConfigWarning
	for _, id := range ids {
		if !found[id] {
			out = append(out, core.ConfigWarning{
				Code:       core.WarnMissingCategory,
				Message:    fmt.Sprintf("category %d no longer exists", id),
				CategoryID: id,
			})
		}
	}
	return out
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return "- " + Round(d.Neg()).StringFixed(2)
	}
	return "+ " + Round(d).StringFixed(2)
}
