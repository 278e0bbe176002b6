package postgres

import (
	"context"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

func (r *catalogRepository) PizzasByIDs(ctx context.Context, ids []int64) (map[int64]model.Pizza, error) {
	return queryPizzas(ctx, r.storage.pool, ids)
}

func (r *catalogRepository) ExtrasByIDs(ctx context.Context, ids []int64) (map[int64]model.Extra, error) {
	return queryExtras(ctx, r.storage.pool, ids)
}

// queryPizzas returns the pizzas found among ids. Unknown ids are absent from the map.
func queryPizzas(ctx context.Context, q querier, ids []int64) (map[int64]model.Pizza, error) {
	const query = `SELECT id, name, base_price, ingredients FROM pizzas WHERE id = ANY($1)`
	result := make(map[int64]model.Pizza, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, query, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Pizza
		if err := rows.Scan(&p.ID, &p.Name, &p.BasePrice, &p.Ingredients); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func queryExtras(ctx context.Context, q querier, ids []int64) (map[int64]model.Extra, error) {
	const query = `SELECT id, name, price, category FROM extras WHERE id = ANY($1)`
	result := make(map[int64]model.Extra, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, query, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e model.Extra
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.Category); err != nil {
			return nil, err
		}
		result[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// uniqueIDs drops duplicates while keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
