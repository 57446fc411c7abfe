package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"canteen/internal/availability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --------------------------------------------------
// MENU ITEM (groups, options, addons)
// --------------------------------------------------
func (r *PostgresRepository) FetchMenuItem(
	ctx context.Context,
	id int64,
) (*MenuItem, error) {

	var (
		item     MenuItem
		schedule []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, concession_id, name, base_price, available, availability_schedule
		FROM menu_items
		WHERE id = $1
		  AND deleted_at IS NULL
	`, id).Scan(
		&item.ID,
		&item.ConcessionID,
		&item.Name,
		&item.BasePrice,
		&item.Available,
		&schedule,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("menu item %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if item.Schedule, err = availability.ParseSchedule(schedule); err != nil {
		return nil, fmt.Errorf("menu item %d schedule: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT mic.category_id
		FROM menu_item_categories mic
		JOIN categories c
		  ON c.id = mic.category_id
		WHERE mic.menu_item_id = $1
		  AND c.deleted_at IS NULL
		ORDER BY mic.category_id
	`, id)
	if err != nil {
		return nil, err
	}
	item.CategoryIDs, err = pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}

	groups, err := r.loadGroups(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	item.VariationGroups = groups[id]

	if item.Addons, err = r.loadAddons(ctx, id); err != nil {
		return nil, err
	}

	return &item, nil
}

// --------------------------------------------------
// CATEGORY ITEMS (deleted categories are skipped)
// --------------------------------------------------
func (r *PostgresRepository) FetchCategoryItems(
	ctx context.Context,
	categoryIDs ...int64,
) ([]CategoryItems, error) {

	categoryIDs = uniqueIDs(categoryIDs)
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, concession_id, name
		FROM categories
		WHERE id = ANY($1)
		  AND deleted_at IS NULL
	`, categoryIDs)
	if err != nil {
		return nil, err
	}

	found := make(map[int64]Category)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.ConcessionID, &c.Name); err != nil {
			rows.Close()
			return nil, err
		}
		found[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT
			mic.category_id,
			mi.id,
			mi.concession_id,
			mi.name,
			mi.base_price,
			mi.available,
			mi.availability_schedule
		FROM menu_item_categories mic
		JOIN menu_items mi
		  ON mi.id = mic.menu_item_id
		WHERE mic.category_id = ANY($1)
		  AND mi.deleted_at IS NULL
		ORDER BY mi.id
	`, categoryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byCategory := make(map[int64][]MenuItem)
	var itemIDs []int64
	seen := make(map[int64]bool)

	for rows.Next() {
		var (
			categoryID int64
			item       MenuItem
			schedule   []byte
		)
		if err := rows.Scan(
			&categoryID,
			&item.ID,
			&item.ConcessionID,
			&item.Name,
			&item.BasePrice,
			&item.Available,
			&schedule,
		); err != nil {
			return nil, err
		}

		if item.Schedule, err = availability.ParseSchedule(schedule); err != nil {
			log.Printf("[CATALOG] item %d has unreadable schedule, treating as every day: %v", item.ID, err)
			item.Schedule = availability.AllDays()
		}

		byCategory[categoryID] = append(byCategory[categoryID], item)
		if !seen[item.ID] {
			seen[item.ID] = true
			itemIDs = append(itemIDs, item.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups, err := r.loadGroups(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	var out []CategoryItems
	for _, cid := range categoryIDs {
		cat, ok := found[cid]
		if !ok {
			continue
		}
		items := byCategory[cid]
		for i := range items {
			items[i].VariationGroups = groups[items[i].ID]
		}
		out = append(out, CategoryItems{Category: cat, Items: items})
	}

	return out, nil
}

// --------------------------------------------------
// CONCESSION (hours, breaks, special dates)
// --------------------------------------------------
func (r *PostgresRepository) FetchConcession(
	ctx context.Context,
	id int64,
) (*Concession, error) {

	var (
		c        Concession
		schedule []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, name, is_open, schedule
		FROM concessions
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.IsOpen, &schedule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("concession %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &c.Schedule); err != nil {
			return nil, fmt.Errorf("concession %d schedule: %w", id, err)
		}
	}

	return &c, nil
}

func (r *PostgresRepository) loadGroups(
	ctx context.Context,
	itemIDs []int64,
) (map[int64][]VariationGroup, error) {

	out := make(map[int64][]VariationGroup)
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT
			id,
			menu_item_id,
			name,
			mode,
			selection_type,
			multi_limit,
			specific,
			position,
			category_filter_id,
			category_filter_ids,
			category_price_adjustment
		FROM variation_groups
		WHERE menu_item_id = ANY($1)
		ORDER BY position, id
	`, itemIDs)
	if err != nil {
		return nil, err
	}

	type groupRow struct {
		group      VariationGroup
		mode       ModeKind
		filterID   *int64
		filterIDs  []int64
		adjustment decimal.Decimal
	}

	var (
		groupRows []groupRow
		groupIDs  []int64
	)
	for rows.Next() {
		var g groupRow
		if err := rows.Scan(
			&g.group.ID,
			&g.group.MenuItemID,
			&g.group.Name,
			&g.mode,
			&g.group.SelectionType,
			&g.group.MultiLimit,
			&g.group.Specific,
			&g.group.Position,
			&g.filterID,
			&g.filterIDs,
			&g.adjustment,
		); err != nil {
			rows.Close()
			return nil, err
		}
		groupRows = append(groupRows, g)
		groupIDs = append(groupIDs, g.group.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	options, overrides, err := r.loadOptions(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	for _, g := range groupRows {
		switch g.mode {
		case ModeCustom:
			g.group.Mode = CustomMode{Options: options[g.group.ID]}
		case ModeSingleCategory:
			if g.filterID == nil {
				log.Printf("[CATALOG] group %d is single-category without a filter, skipping", g.group.ID)
				continue
			}
			g.group.Mode = SingleCategoryMode{CategoryID: *g.filterID, PriceAdjustment: g.adjustment}
		case ModeMultiCategory:
			g.group.Mode = MultiCategoryMode{CategoryIDs: g.filterIDs, PriceAdjustment: g.adjustment}
		case ModeExisting:
			g.group.Mode = ExistingModeFromChoices(options[g.group.ID], overrides)
		default:
			log.Printf("[CATALOG] group %d has unknown mode %q, skipping", g.group.ID, g.mode)
			continue
		}
		out[g.group.MenuItemID] = append(out[g.group.MenuItemID], g.group)
	}

	return out, nil
}

func (r *PostgresRepository) loadOptions(
	ctx context.Context,
	groupIDs []int64,
) (map[int64][]OptionChoice, map[int64]decimal.Decimal, error) {

	options := make(map[int64][]OptionChoice)
	overrides := make(map[int64]decimal.Decimal)
	if len(groupIDs) == 0 {
		return options, overrides, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT
			id,
			group_id,
			name,
			price_adjustment,
			price_override,
			available,
			is_default,
			position,
			COALESCE(code, '')
		FROM option_choices
		WHERE group_id = ANY($1)
		ORDER BY position, id
	`, groupIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o        OptionChoice
			groupID  int64
			override decimal.NullDecimal
		)
		if err := rows.Scan(
			&o.ID,
			&groupID,
			&o.Name,
			&o.PriceAdjustment,
			&override,
			&o.Available,
			&o.IsDefault,
			&o.Position,
			&o.Code,
		); err != nil {
			return nil, nil, err
		}
		if override.Valid {
			overrides[o.ID] = override.Decimal
		}
		options[groupID] = append(options[groupID], o)
	}

	return options, overrides, rows.Err()
}

func (r *PostgresRepository) loadAddons(
	ctx context.Context,
	itemID int64,
) ([]Addon, error) {

	rows, err := r.db.Query(ctx, `
		SELECT
			id,
			target_menu_item_id,
			COALESCE(label, ''),
			price_override,
			required,
			position
		FROM addons
		WHERE menu_item_id = $1
		ORDER BY position, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addons []Addon
	for rows.Next() {
		var (
			a        Addon
			override decimal.NullDecimal
		)
		if err := rows.Scan(
			&a.ID,
			&a.TargetMenuItemID,
			&a.Label,
			&override,
			&a.Required,
			&a.Position,
		); err != nil {
			return nil, err
		}
		if override.Valid {
			price := override.Decimal
			a.PriceOverride = &price
		}
		addons = append(addons, a)
	}

	return addons, rows.Err()
}
