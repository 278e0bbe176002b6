package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/jackc/pgx/v5"
)

type migration struct {
	version    string
	statements []string
}

var migrations = []migration{
	{
		version: "1.0.0",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS customers (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT UNIQUE NOT NULL,
            address TEXT,
            total_orders INTEGER NOT NULL DEFAULT 0,
            total_spent NUMERIC(12,2) NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
			`CREATE TABLE IF NOT EXISTS pizzas (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            base_price NUMERIC(12,2) NOT NULL CHECK (base_price >= 0),
            ingredients TEXT[] NOT NULL DEFAULT '{}'
        )`,
			`CREATE TABLE IF NOT EXISTS extras (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
            category TEXT NOT NULL DEFAULT ''
        )`,
			`CREATE TABLE IF NOT EXISTS staff_users (
            id BIGSERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
			`CREATE SEQUENCE IF NOT EXISTS order_number_seq`,
			`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            customer_id BIGINT REFERENCES customers(id),
            state TEXT NOT NULL CHECK (state IN ('new', 'preparing', 'ready', 'delivered', 'canceled')),
            subtotal NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (subtotal >= 0),
            discount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (discount >= 0),
            total NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (total >= 0),
            payment_method TEXT NOT NULL DEFAULT 'cash',
            notes TEXT,
            estimated_minutes INTEGER,
            placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            prep_started_at TIMESTAMPTZ,
            ready_at TIMESTAMPTZ,
            delivered_at TIMESTAMPTZ,
            canceled_at TIMESTAMPTZ,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
			`CREATE TABLE IF NOT EXISTS order_items (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            pizza_id BIGINT NOT NULL REFERENCES pizzas(id),
            quantity INTEGER NOT NULL CHECK (quantity >= 1),
            is_half_and_half BOOLEAN NOT NULL DEFAULT FALSE,
            extras BIGINT[] NOT NULL DEFAULT '{}',
            removed TEXT[] NOT NULL DEFAULT '{}',
            second_pizza_id BIGINT REFERENCES pizzas(id),
            second_extras BIGINT[] NOT NULL DEFAULT '{}',
            second_removed TEXT[] NOT NULL DEFAULT '{}',
            both_extras BIGINT[] NOT NULL DEFAULT '{}',
            both_removed TEXT[] NOT NULL DEFAULT '{}',
            base_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            extras_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            removal_discount NUMERIC(12,2) NOT NULL DEFAULT 0,
            unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            line_total NUMERIC(12,2) NOT NULL DEFAULT 0,
            CHECK (is_half_and_half = (second_pizza_id IS NOT NULL))
        )`,
			`CREATE TABLE IF NOT EXISTS order_state_history (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            previous_state TEXT,
            new_state TEXT NOT NULL,
            reason TEXT,
            actor TEXT NOT NULL DEFAULT 'system',
            changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		},
	},
	{
		version: "1.1.0",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_orders_state_placed ON orders(state, placed_at)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, placed_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
			`CREATE INDEX IF NOT EXISTS idx_history_order ON order_state_history(order_id, changed_at, id)`,
		},
	},
}

// migrate applies every migration newer than the highest recorded schema version.
func (s *Storage) migrate(ctx context.Context) error {
	const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_version (
            version TEXT PRIMARY KEY,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := s.pool.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	current, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	pending, err := pendingMigrations(migrations, current)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	for _, m := range pending {
		err := s.WithinTransaction(ctx, func(tx pgx.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if s.logger != nil {
			s.logger.Info("schema migrated", slog.String("version", m.version))
		}
	}

	return nil
}

func (s *Storage) currentSchemaVersion(ctx context.Context) (*semver.Version, error) {
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var current *semver.Version
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("recorded schema version %q: %w", raw, err)
		}
		if current == nil || v.GreaterThan(current) {
			current = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return current, nil
}

// pendingMigrations returns migrations newer than current in ascending version order.
func pendingMigrations(all []migration, current *semver.Version) ([]migration, error) {
	type versioned struct {
		v *semver.Version
		m migration
	}

	var pending []versioned
	for _, m := range all {
		v, err := semver.NewVersion(m.version)
		if err != nil {
			return nil, fmt.Errorf("migration version %q: %w", m.version, err)
		}
		if current != nil && !v.GreaterThan(current) {
			continue
		}
		pending = append(pending, versioned{v: v, m: m})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].v.LessThan(pending[j].v) })

	out := make([]migration, len(pending))
	for i, p := range pending {
		out[i] = p.m
	}
	return out, nil
}
