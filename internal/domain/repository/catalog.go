package repository

import (
	"context"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// CatalogRepository provides read-only access to pizzas and extras.
type CatalogRepository interface {
	PizzasByIDs(ctx context.Context, ids []int64) (map[int64]model.Pizza, error)
	ExtrasByIDs(ctx context.Context, ids []int64) (map[int64]model.Extra, error)
}
