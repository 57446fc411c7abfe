package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"canteen/internal/core"
	"canteen/internal/snapshot"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dateLayout  = "2006-01-02"
	maxAttempts = 3
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --------------------------------------------------
// CREATE (number + header + items, one transaction)
// --------------------------------------------------
func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = r.create(ctx, o)
		if !isUniqueViolation(err) {
			break
		}
		log.Printf("[ORDER] number clash for concession %d on %s, retrying (%d/%d)", o.ConcessionID, o.OrderDate, attempt, maxAttempts)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrOrderNotPersisted, err)
	}
	return nil
}

func (r *PostgresRepository) create(ctx context.Context, o *Order) error {
	day, err := time.Parse(dateLayout, o.OrderDate)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// serializes numbering per concession and day; released on commit
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		fmt.Sprintf("order-number:%d:%s", o.ConcessionID, o.OrderDate),
	); err != nil {
		return err
	}

	var number int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(order_number), 0) + 1
		FROM orders
		WHERE concession_id = $1
		  AND order_date = $2
	`, o.ConcessionID, day).Scan(&number); err != nil {
		return err
	}

	var createdAt time.Time
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (
			id,
			concession_id,
			customer_id,
			order_number,
			order_date,
			order_type,
			scheduled_for,
			status,
			total
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`,
		o.ID,
		o.ConcessionID,
		o.CustomerID,
		number,
		day,
		o.Type,
		o.ScheduledFor,
		o.Status,
		o.Total,
	).Scan(&createdAt); err != nil {
		return err
	}

	for i, item := range o.Items {
		variations, err := json.Marshal(item.Snapshot.Variations)
		if err != nil {
			return err
		}
		options, err := json.Marshal(item.Snapshot.Options)
		if err != nil {
			return err
		}
		addons, err := json.Marshal(item.Snapshot.Addons)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (
				id,
				order_id,
				position,
				menu_item_id,
				name,
				base_price,
				quantity,
				unit_price,
				item_total,
				variation_snapshot,
				options_snapshot,
				addons_snapshot
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			item.ID,
			o.ID,
			i,
			item.MenuItemID,
			item.Name,
			item.Snapshot.BasePrice,
			item.Quantity,
			item.UnitPrice,
			item.ItemTotal,
			variations,
			options,
			addons,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	o.OrderNumber = number
	o.CreatedAt = createdAt
	return nil
}

// --------------------------------------------------
// GET (header + frozen items)
// --------------------------------------------------
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	var (
		o   Order
		day time.Time
	)

	err := r.db.QueryRow(ctx, `
		SELECT
			id,
			concession_id,
			customer_id,
			order_number,
			order_date,
			order_type,
			scheduled_for,
			status,
			total,
			created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&o.ID,
		&o.ConcessionID,
		&o.CustomerID,
		&o.OrderNumber,
		&day,
		&o.Type,
		&o.ScheduledFor,
		&o.Status,
		&o.Total,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	o.OrderDate = day.Format(dateLayout)

	rows, err := r.db.Query(ctx, `
		SELECT
			id,
			menu_item_id,
			name,
			base_price,
			quantity,
			unit_price,
			item_total,
			variation_snapshot,
			options_snapshot,
			addons_snapshot
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                        Item
			variations, options, addons []byte
		)
		if err := rows.Scan(
			&item.ID,
			&item.MenuItemID,
			&item.Name,
			&item.Snapshot.BasePrice,
			&item.Quantity,
			&item.UnitPrice,
			&item.ItemTotal,
			&variations,
			&options,
			&addons,
		); err != nil {
			return nil, err
		}

		snap := &item.Snapshot
		snap.MenuItemID = item.MenuItemID
		snap.MenuItemName = item.Name
		snap.Quantity = item.Quantity
		snap.UnitPrice = item.UnitPrice
		snap.ItemTotal = item.ItemTotal
		if err := unmarshalSnapshot(snap, variations, options, addons); err != nil {
			return nil, fmt.Errorf("order item %s: %w", item.ID, err)
		}

		o.Items = append(o.Items, item)
	}

	return &o, rows.Err()
}

// --------------------------------------------------
// RECEIPT ARCHIVE (claim + mark)
// --------------------------------------------------
func (r *PostgresRepository) ClaimUnarchived(
	ctx context.Context,
	createdBefore time.Time,
	limit int,
) ([]uuid.UUID, error) {

	rows, err := r.db.Query(ctx, `
		UPDATE orders
		SET archive_claimed_at = now()
		WHERE id IN (
			SELECT id
			FROM orders
			WHERE archived_key IS NULL
			  AND created_at < $1
			  AND (archive_claimed_at IS NULL OR archive_claimed_at < now() - make_interval(secs => $2))
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id
	`, createdBefore, claimTTL.Seconds(), limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *PostgresRepository) MarkArchived(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET archived_key = $1,
		    archive_claimed_at = NULL
		WHERE id = $2
	`, key, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func unmarshalSnapshot(s *snapshot.OrderItemSnapshot, variations, options, addons []byte) error {
	if err := json.Unmarshal(variations, &s.Variations); err != nil {
		return err
	}
	if err := json.Unmarshal(options, &s.Options); err != nil {
		return err
	}
	return json.Unmarshal(addons, &s.Addons)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
