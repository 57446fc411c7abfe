package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres(dsn string) *pgxpool.Pool {
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal(err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal("Postgres connection failed:", err)
	}

	log.Println("[DB] connected to PostgreSQL")

	if err := InitSchema(context.Background(), db); err != nil {
		log.Fatal("Failed to initialize schema:", err)
	}

	return db
}

type schemaStep struct {
	name string
	sql  string
}

// schema runs in order; every statement is idempotent
var schema = []schemaStep{
	{"concessions", `
		CREATE TABLE IF NOT EXISTS concessions (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			is_open BOOLEAN NOT NULL DEFAULT TRUE,
			schedule JSONB,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			concession_id BIGINT NOT NULL REFERENCES concessions(id),
			name VARCHAR(255) NOT NULL,
			deleted_at TIMESTAMPTZ NULL
		)
	`},
	{"menu_items", `
		CREATE TABLE IF NOT EXISTS menu_items (
			id BIGSERIAL PRIMARY KEY,
			concession_id BIGINT NOT NULL REFERENCES concessions(id),
			name VARCHAR(255) NOT NULL,
			base_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			availability_schedule JSONB,
			deleted_at TIMESTAMPTZ NULL
		)
	`},
	{"menu_item_categories", `
		CREATE TABLE IF NOT EXISTS menu_item_categories (
			menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
			category_id BIGINT NOT NULL REFERENCES categories(id),
			PRIMARY KEY (menu_item_id, category_id)
		)
	`},
	{"variation_groups", `
		CREATE TABLE IF NOT EXISTS variation_groups (
			id BIGSERIAL PRIMARY KEY,
			menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
			name VARCHAR(255) NOT NULL,
			mode VARCHAR(32) NOT NULL DEFAULT 'custom',
			selection_type VARCHAR(32) NOT NULL,
			multi_limit INT NOT NULL DEFAULT 0,
			specific BOOLEAN NOT NULL DEFAULT FALSE,
			position INT NOT NULL DEFAULT 0,
			category_filter_id BIGINT NULL,
			category_filter_ids BIGINT[] NOT NULL DEFAULT '{}',
			category_price_adjustment NUMERIC(10,2) NOT NULL DEFAULT 0
		)
	`},
	{"option_choices", `
		CREATE TABLE IF NOT EXISTS option_choices (
			id BIGSERIAL PRIMARY KEY,
			group_id BIGINT NOT NULL REFERENCES variation_groups(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			price_adjustment NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_override NUMERIC(10,2) NULL,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			position INT NOT NULL DEFAULT 0,
			code VARCHAR(64) NULL
		)
	`},
	{"addons", `
		CREATE TABLE IF NOT EXISTS addons (
			id BIGSERIAL PRIMARY KEY,
			menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
			target_menu_item_id BIGINT NOT NULL,
			label VARCHAR(255) NULL,
			price_override NUMERIC(10,2) NULL,
			required BOOLEAN NOT NULL DEFAULT FALSE,
			position INT NOT NULL DEFAULT 0
		)
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			concession_id BIGINT NOT NULL REFERENCES concessions(id),
			customer_id VARCHAR(255) NOT NULL,
			order_number INT NOT NULL,
			order_date DATE NOT NULL,
			order_type VARCHAR(16) NOT NULL,
			scheduled_for TIMESTAMPTZ NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'PLACED',
			total NUMERIC(10,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			archived_key TEXT NULL,
			archive_claimed_at TIMESTAMPTZ NULL,
			CONSTRAINT orders_number_per_day UNIQUE (concession_id, order_date, order_number)
		)
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			position INT NOT NULL,
			menu_item_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			base_price NUMERIC(10,2) NOT NULL,
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(10,2) NOT NULL,
			item_total NUMERIC(10,2) NOT NULL,
			variation_snapshot JSONB NOT NULL DEFAULT '[]',
			options_snapshot JSONB NOT NULL DEFAULT '[]',
			addons_snapshot JSONB NOT NULL DEFAULT '[]'
		)
	`},
	{"orders_unarchived_idx", `
		CREATE INDEX IF NOT EXISTS orders_unarchived_idx ON orders (created_at) WHERE archived_key IS NULL
	`},
	{"order_items_order_idx", `
		CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id, position)
	`},
}

// InitSchema creates or updates the database schema
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, step := range schema {
		if _, err := db.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("schema %s: %w", step.name, err)
		}
	}

	log.Println("[DB] schema initialized")
	return nil
}
