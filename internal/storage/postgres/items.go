package postgres

import (
	"context"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

const itemColumns = `id, order_id, pizza_id, quantity, is_half_and_half,
                     extras, removed, second_pizza_id, second_extras, second_removed,
                     both_extras, both_removed,
                     base_price, extras_price, removal_discount, unit_price, line_total`

func insertItem(ctx context.Context, q querier, orderID int64, item model.OrderItem) error {
	const query = `INSERT INTO order_items (order_id, pizza_id, quantity, is_half_and_half,
                       extras, removed, second_pizza_id, second_extras, second_removed,
                       both_extras, both_removed,
                       base_price, extras_price, removal_discount, unit_price, line_total)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	spec := item.Spec
	_, err := q.Exec(ctx, query,
		orderID, spec.PizzaID, spec.Quantity, spec.HalfAndHalf,
		int64s(spec.Extras), strs(spec.Removed), spec.SecondPizzaID, int64s(spec.SecondExtras), strs(spec.SecondRemoved),
		int64s(spec.BothExtras), strs(spec.BothRemoved),
		item.Pricing.BasePrice, item.Pricing.ExtrasPrice, item.Pricing.RemovalDiscount, item.Pricing.UnitPrice, item.Pricing.LineTotal,
	)
	return err
}

// loadItems fetches the items of the given orders, grouped by order id,
// with catalog rows for their pizzas and extras attached.
func loadItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	const query = `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`
	result := make(map[int64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		s := &it.Spec
		p := &it.Pricing
		if err := rows.Scan(&it.ID, &it.OrderID, &s.PizzaID, &s.Quantity, &s.HalfAndHalf,
			&s.Extras, &s.Removed, &s.SecondPizzaID, &s.SecondExtras, &s.SecondRemoved,
			&s.BothExtras, &s.BothRemoved,
			&p.BasePrice, &p.ExtrasPrice, &p.RemovalDiscount, &p.UnitPrice, &p.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(items) == 0 {
		return result, nil
	}

	var pizzaIDs, extraIDs []int64
	for _, it := range items {
		pizzaIDs = append(pizzaIDs, it.Spec.PizzaIDs()...)
		extraIDs = append(extraIDs, it.Spec.ExtraIDs()...)
	}
	pizzas, err := queryPizzas(ctx, q, pizzaIDs)
	if err != nil {
		return nil, err
	}
	extras, err := queryExtras(ctx, q, extraIDs)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if pz, ok := pizzas[it.Spec.PizzaID]; ok {
			it.Pizza = &pz
		}
		if it.Spec.SecondPizzaID != nil {
			if pz, ok := pizzas[*it.Spec.SecondPizzaID]; ok {
				it.SecondPizza = &pz
			}
		}
		if ids := it.Spec.ExtraIDs(); len(ids) > 0 {
			it.ExtraDetails = make(map[int64]model.Extra, len(ids))
			for _, id := range ids {
				if e, ok := extras[id]; ok {
					it.ExtraDetails[id] = e
				}
			}
		}
		result[it.OrderID] = append(result[it.OrderID], it)
	}
	return result, nil
}

// Array columns are NOT NULL, while pgx encodes a nil slice as NULL.
func int64s(v []int64) []int64 {
	if v == nil {
		return []int64{}
	}
	return v
}

func strs(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
