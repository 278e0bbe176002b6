package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
)

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	const query = `SELECT id, name, phone, address, total_orders, total_spent, created_at FROM customers WHERE id=$1`
	c, err := scanCustomer(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// FindOrCreate upserts by phone. A known phone keeps its address unless a new one is given.
func (r *customerRepository) FindOrCreate(ctx context.Context, customer model.NewCustomer) (*model.Customer, error) {
	const query = `INSERT INTO customers (name, phone, address) VALUES ($1, $2, $3)
                   ON CONFLICT (phone) DO UPDATE
                   SET name = EXCLUDED.name,
                       address = COALESCE(EXCLUDED.address, customers.address)
                   RETURNING id, name, phone, address, total_orders, total_spent, created_at`
	return scanCustomer(r.storage.pool.QueryRow(ctx, query, customer.Name, customer.Phone, customer.Address))
}

// RefreshStats recomputes lifetime counters over the customer's non-canceled orders.
func (r *customerRepository) RefreshStats(ctx context.Context, id int64) error {
	const query = `UPDATE customers SET
                       total_orders = s.cnt,
                       total_spent = s.spent
                   FROM (SELECT COUNT(*) AS cnt, COALESCE(SUM(total), 0) AS spent
                         FROM orders WHERE customer_id=$1 AND state <> 'canceled') s
                   WHERE customers.id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.TotalOrders, &c.TotalSpent, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
