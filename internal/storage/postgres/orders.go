package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
)

const orderSelect = `SELECT o.id, o.number, o.customer_id, o.state, o.subtotal, o.discount, o.total,
                            o.payment_method, o.notes, o.estimated_minutes, o.placed_at,
                            o.prep_started_at, o.ready_at, o.delivered_at, o.canceled_at, o.updated_at,
                            c.name, c.phone, c.address
                     FROM orders o LEFT JOIN customers c ON c.id = o.customer_id`

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o                    model.Order
		name, phone, address *string
	)
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.State, &o.Subtotal, &o.Discount, &o.Total,
		&o.PaymentMethod, &o.Notes, &o.EstimatedMinutes, &o.PlacedAt,
		&o.PrepStartedAt, &o.ReadyAt, &o.DeliveredAt, &o.CanceledAt, &o.UpdatedAt,
		&name, &phone, &address)
	if err != nil {
		return o, err
	}
	if o.CustomerID != nil && name != nil && phone != nil {
		o.Customer = &model.CustomerSummary{ID: *o.CustomerID, Name: *name, Phone: *phone, Address: address}
	}
	return o, nil
}

func (r *orderRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.storage.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Create persists the header, every item and the birth history entry in one transaction.
func (r *orderRepository) Create(ctx context.Context, order model.NewOrder) (int64, error) {
	const insertOrder = `INSERT INTO orders (number, customer_id, state, subtotal, discount, total,
                             payment_method, notes, estimated_minutes, placed_at, updated_at)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
                         RETURNING id`

	var id int64
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrder,
			order.Number, order.CustomerID, model.OrderStateNew, order.Subtotal, order.Discount, order.Total,
			order.PaymentMethod, order.Notes, order.EstimatedMinutes, order.PlacedAt,
		).Scan(&id)
		if err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := insertItem(ctx, tx, id, item); err != nil {
				return err
			}
		}
		return appendHistory(ctx, tx, model.StateHistoryEntry{
			OrderID:   id,
			NewState:  model.OrderStateNew,
			Actor:     order.Actor,
			ChangedAt: order.PlacedAt,
		})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: order number %s", domainErrors.ErrAlreadyExists, order.Number)
		}
		return 0, err
	}
	return id, nil
}

// Update writes the non-nil patch fields. The state column is never touched here.
func (r *orderRepository) Update(ctx context.Context, orderID int64, patch model.OrderPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.PaymentMethod != nil {
		set("payment_method", *patch.PaymentMethod)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.EstimatedMinutes != nil {
		set("estimated_minutes", *patch.EstimatedMinutes)
	}
	if patch.Discount != nil {
		set("discount", *patch.Discount)
	}
	if patch.Subtotal != nil {
		set("subtotal", *patch.Subtotal)
	}
	if patch.Total != nil {
		set("total", *patch.Total)
	}
	if patch.CustomerID != nil {
		set("customer_id", *patch.CustomerID)
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, orderID)

	query := fmt.Sprintf("UPDATE orders SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, orderSelect+` WHERE o.id=$1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items, err := loadItems(ctx, r.storage.pool, []int64{orderID})
	if err != nil {
		return nil, err
	}
	order.Items = items[orderID]
	return &order, nil
}

func (r *orderRepository) FindState(ctx context.Context, orderID int64) (model.OrderState, bool, error) {
	var state model.OrderState
	err := r.storage.pool.QueryRow(ctx, `SELECT state FROM orders WHERE id=$1`, orderID).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return state, true, nil
}

// List returns order headers matching filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	where := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.State != nil {
		where("o.state=$%d", *filter.State)
	}
	if filter.From != nil {
		where("o.placed_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		where("o.placed_at < $%d", *filter.To)
	}
	if filter.CustomerID != nil {
		where("o.customer_id=$%d", *filter.CustomerID)
	}

	query := orderSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY o.placed_at DESC, o.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryOrders(ctx, query, args...)
}

// ListKitchen returns active orders, preparing before new, oldest first, with items.
func (r *orderRepository) ListKitchen(ctx context.Context) ([]model.Order, error) {
	const query = orderSelect + ` WHERE o.state IN ('new', 'preparing')
                     ORDER BY CASE o.state WHEN 'preparing' THEN 0 ELSE 1 END, o.placed_at, o.id`

	orders, err := r.queryOrders(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := loadItems(ctx, r.storage.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionState moves the order only if it is still in transition.From.
// The target state's timestamp is stamped and the others cleared.
func (r *orderRepository) TransitionState(ctx context.Context, transition model.StateTransition) error {
	const updateState = `UPDATE orders
                         SET state=$1, prep_started_at=$2, ready_at=$3, delivered_at=$4, canceled_at=$5, updated_at=$6
                         WHERE id=$7 AND state=$8`

	var prep, ready, delivered, canceled *time.Time
	at := transition.At
	switch transition.To {
	case model.OrderStatePreparing:
		prep = &at
	case model.OrderStateReady:
		ready = &at
	case model.OrderStateDelivered:
		delivered = &at
	case model.OrderStateCanceled:
		canceled = &at
	}

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateState,
			transition.To, prep, ready, delivered, canceled, at,
			transition.OrderID, transition.From)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrStateConflict
		}

		from := transition.From
		return appendHistory(ctx, tx, model.StateHistoryEntry{
			OrderID:       transition.OrderID,
			PreviousState: &from,
			NewState:      transition.To,
			Reason:        transition.Reason,
			Actor:         transition.Actor,
			ChangedAt:     at,
		})
	})
}

// ApplyPricing rewrites item prices and order totals in one transaction.
func (r *orderRepository) ApplyPricing(ctx context.Context, orderID int64, items []model.ItemRepricing, totals model.OrderTotals) error {
	const updateItem = `UPDATE order_items
                        SET base_price=$1, extras_price=$2, removal_discount=$3, unit_price=$4, line_total=$5
                        WHERE id=$6 AND order_id=$7`
	const updateTotals = `UPDATE orders SET subtotal=$1, discount=$2, total=$3, updated_at=NOW() WHERE id=$4`

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateTotals, totals.Subtotal, totals.Discount, totals.Total, orderID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrNotFound
		}

		for _, it := range items {
			p := it.Pricing
			if _, err := tx.Exec(ctx, updateItem,
				p.BasePrice, p.ExtrasPrice, p.RemovalDiscount, p.UnitPrice, p.LineTotal,
				it.ItemID, orderID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepository) ListHistory(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error) {
	const query = `SELECT id, order_id, previous_state, new_state, reason, actor, changed_at
                   FROM order_state_history WHERE order_id=$1 ORDER BY changed_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StateHistoryEntry
	for rows.Next() {
		var h model.StateHistoryEntry
		if err := rows.Scan(&h.ID, &h.OrderID, &h.PreviousState, &h.NewState, &h.Reason, &h.Actor, &h.ChangedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DailySummary aggregates orders placed within [day, day+24h).
func (r *orderRepository) DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error) {
	const query = `SELECT state, COUNT(*), COALESCE(SUM(total), 0)
                   FROM orders WHERE placed_at >= $1 AND placed_at < $2
                   GROUP BY state`
	rows, err := r.storage.pool.Query(ctx, query, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &model.DailySummary{
		Date:          day,
		ByState:       make(map[model.OrderState]int, len(model.OrderStates)),
		Revenue:       decimal.Zero,
		AverageTicket: decimal.Zero,
	}
	paid := 0
	for rows.Next() {
		var (
			state model.OrderState
			count int
			sum   decimal.Decimal
		)
		if err := rows.Scan(&state, &count, &sum); err != nil {
			return nil, err
		}
		summary.ByState[state] = count
		summary.TotalOrders += count
		if state != model.OrderStateCanceled {
			summary.Revenue = summary.Revenue.Add(sum)
			paid += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if paid > 0 {
		summary.AverageTicket = summary.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}
	return summary, nil
}

func appendHistory(ctx context.Context, q querier, entry model.StateHistoryEntry) error {
	const query = `INSERT INTO order_state_history (order_id, previous_state, new_state, reason, actor, changed_at)
                   VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := q.Exec(ctx, query, entry.OrderID, entry.PreviousState, entry.NewState, entry.Reason, entry.Actor, entry.ChangedAt)
	return err
}
