package variation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"canteen/internal/availability"
	"canteen/internal/catalog"
	"canteen/internal/core"

	"github.com/shopspring/decimal"
)

// maxDepth caps nesting: a resolved item's own groups are exposed once,
// their items' groups never are.
const maxDepth = 1

// Resolver expands variation groups against the menu reader.
// It holds no mutable state and can be shared between requests.
type Resolver struct {
	reader core.MenuReader
	now    time.Time
}

func NewResolver(reader core.MenuReader, now time.Time) *Resolver {
	return &Resolver{reader: reader, now: now}
}

// ResolveItem resolves every group and addon of item
func (r *Resolver) ResolveItem(ctx context.Context, item *catalog.MenuItem) (Item, error) {
	out := Item{
		ID:           item.ID,
		ConcessionID: item.ConcessionID,
		Name:         item.Name,
		BasePrice:    item.BasePrice,
		Status:       item.StatusAt(r.now),
		Schedule:     item.Schedule,
	}

	groups, err := r.ResolveGroups(ctx, item.VariationGroups)
	if err != nil {
		return Item{}, err
	}
	out.Groups = groups

	addons, err := r.ResolveAddons(ctx, item.Addons)
	if err != nil {
		return Item{}, err
	}
	out.Addons = addons

	return out, nil
}

func (r *Resolver) ResolveGroups(ctx context.Context, groups []catalog.VariationGroup) ([]Group, error) {
	return r.resolveGroups(ctx, groups, 0)
}

// ResolveGroup expands one group into its selectable options
func (r *Resolver) ResolveGroup(ctx context.Context, group catalog.VariationGroup) (Group, error) {
	return r.resolve(ctx, group, 0)
}

func (r *Resolver) resolveGroups(ctx context.Context, groups []catalog.VariationGroup, depth int) ([]Group, error) {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		resolved, err := r.resolve(ctx, g, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (r *Resolver) resolve(ctx context.Context, group catalog.VariationGroup, depth int) (Group, error) {
	out := Group{
		ID:            group.ID,
		Name:          group.Name,
		SelectionType: group.SelectionType,
		MultiLimit:    group.MultiLimit,
		Options:       []Option{},
	}

	switch mode := group.Mode.(type) {
	case catalog.CustomMode:
		out.Mode = catalog.ModeCustom
		out.Options = r.customOptions(mode)

	case catalog.SingleCategoryMode:
		out.Mode = catalog.ModeSingleCategory
		cats, err := r.reader.FetchCategoryItems(ctx, mode.CategoryID)
		if err != nil {
			return Group{}, fmt.Errorf("group %d: %w", group.ID, err)
		}
		if len(cats) == 0 {
			log.Printf("[RESOLVE] group %d filters on missing category %d, no options", group.ID, mode.CategoryID)
		}
		for _, c := range cats {
			for _, item := range c.Items {
				opt, err := r.itemOption(ctx, item, CategoryPrice(item.BasePrice, mode.PriceAdjustment), nil, depth)
				if err != nil {
					return Group{}, err
				}
				out.Options = append(out.Options, opt)
			}
		}

	case catalog.MultiCategoryMode:
		out.Mode = catalog.ModeMultiCategory
		cats, err := r.reader.FetchCategoryItems(ctx, mode.CategoryIDs...)
		if err != nil {
			return Group{}, fmt.Errorf("group %d: %w", group.ID, err)
		}
		if len(cats) < len(mode.CategoryIDs) {
			log.Printf("[RESOLVE] group %d: %d of %d filtered categories missing", group.ID, len(mode.CategoryIDs)-len(cats), len(mode.CategoryIDs))
		}
		for _, c := range cats {
			out.Categories = append(out.Categories, CategoryRef{ID: c.Category.ID, Name: c.Category.Name})
			cid := c.Category.ID
			// an item in two filtered categories appears under each
			for _, item := range c.Items {
				opt, err := r.itemOption(ctx, item, CategoryPrice(item.BasePrice, mode.PriceAdjustment), &cid, depth)
				if err != nil {
					return Group{}, err
				}
				out.Options = append(out.Options, opt)
			}
		}

	case catalog.ExistingMode:
		out.Mode = catalog.ModeExisting
		for pos, target := range mode.Targets {
			item, err := r.reader.FetchMenuItem(ctx, target.MenuItemID)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					log.Printf("[RESOLVE] group %d references missing item %d, skipping", group.ID, target.MenuItemID)
					continue
				}
				return Group{}, fmt.Errorf("group %d: %w", group.ID, err)
			}

			price := item.BasePrice
			if target.PriceOverride != nil {
				price = *target.PriceOverride
			}
			opt, err := r.itemOption(ctx, *item, clamp(price), nil, depth)
			if err != nil {
				return Group{}, err
			}
			opt.Position = pos
			out.Options = append(out.Options, opt)
		}

	default:
		return Group{}, fmt.Errorf("group %d: unsupported mode %T", group.ID, group.Mode)
	}

	return out, nil
}

func (r *Resolver) customOptions(mode catalog.CustomMode) []Option {
	out := make([]Option, 0, len(mode.Options))
	for _, o := range mode.Options {
		status := availability.StatusAvailable
		if !o.Available {
			status = availability.StatusOutOfStock
		}
		out = append(out, Option{
			Key:       CustomKey(o.ID),
			Name:      o.Name,
			Price:     o.PriceAdjustment.Round(2),
			OptionID:  o.ID,
			Status:    status,
			IsDefault: o.IsDefault,
			Position:  o.Position,
		})
	}
	return out
}

func (r *Resolver) itemOption(
	ctx context.Context,
	item catalog.MenuItem,
	price decimal.Decimal,
	categoryID *int64,
	depth int,
) (Option, error) {

	id := item.ID
	schedule := item.Schedule

	opt := Option{
		Key:        ItemKey(categoryID, item.ID),
		Name:       item.Name,
		Price:      price,
		MenuItemID: &id,
		CategoryID: categoryID,
		Status:     item.StatusAt(r.now),
		Schedule:   &schedule,
	}

	if depth < maxDepth {
		nested := item.NestableGroups()
		if len(nested) > 0 {
			subs, err := r.resolveGroups(ctx, nested, depth+1)
			if err != nil {
				return Option{}, err
			}
			opt.SubGroups = subs
		}
	}

	return opt, nil
}

// ResolveAddons prices addons against their target items.
// Addons whose target was deleted are skipped.
func (r *Resolver) ResolveAddons(ctx context.Context, addons []catalog.Addon) ([]Addon, error) {
	out := make([]Addon, 0, len(addons))
	for _, a := range addons {
		target, err := r.reader.FetchMenuItem(ctx, a.TargetMenuItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				log.Printf("[RESOLVE] addon %d targets missing item %d, skipping", a.ID, a.TargetMenuItemID)
				continue
			}
			return nil, fmt.Errorf("addon %d: %w", a.ID, err)
		}

		price := target.BasePrice
		if a.PriceOverride != nil {
			price = *a.PriceOverride
		}
		label := a.Label
		if label == "" {
			label = target.Name
		}

		out = append(out, Addon{
			ID:         a.ID,
			Label:      label,
			MenuItemID: target.ID,
			Price:      clamp(price),
			Required:   a.Required,
			Status:     target.StatusAt(r.now),
			Position:   a.Position,
			Schedule:   target.Schedule,
		})
	}
	return out, nil
}

// CategoryPrice is an item's price inside a category-mode group
func CategoryPrice(base, adjustment decimal.Decimal) decimal.Decimal {
	return clamp(base.Add(adjustment))
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

// CustomKey is the option key of a hand-authored option
func CustomKey(optionID int64) string {
	return fmt.Sprintf("o%d", optionID)
}

// ItemKey is the option key of a menu-item-backed option
func ItemKey(categoryID *int64, itemID int64) string {
	if categoryID != nil {
		return fmt.Sprintf("c%d-i%d", *categoryID, itemID)
	}
	return fmt.Sprintf("i%d", itemID)
}
