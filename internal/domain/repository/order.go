package repository

import (
	"context"
	"time"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, order model.NewOrder) (int64, error)
	Update(ctx context.Context, orderID int64, patch model.OrderPatch) error
	GetByID(ctx context.Context, orderID int64) (*model.Order, error)
	FindState(ctx context.Context, orderID int64) (model.OrderState, bool, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	ListKitchen(ctx context.Context) ([]model.Order, error)
	TransitionState(ctx context.Context, transition model.StateTransition) error
	ApplyPricing(ctx context.Context, orderID int64, items []model.ItemRepricing, totals model.OrderTotals) error
	ListHistory(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error)
	DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error)
}
