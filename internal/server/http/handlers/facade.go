package handlers

import (
	"context"
	"time"

	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	Identify(ctx context.Context, token string) (*model.User, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, cmd usecase.CreateOrderCommand) (*model.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, cmd usecase.UpdateOrderCommand) (*model.Order, error)
	ChangeOrderState(ctx context.Context, cmd usecase.ChangeStateCommand) (*usecase.StateChange, error)
	CancelOrder(ctx context.Context, orderID int64, reason *string, actor string) (*usecase.StateChange, error)
	RecalculateOrder(ctx context.Context, orderID int64) (*model.Order, error)
	Order(ctx context.Context, orderID int64) (*model.Order, error)
	OrderWithHistory(ctx context.Context, orderID int64) (*model.Order, []model.StateHistoryEntry, error)
	Orders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	Kitchen(ctx context.Context) ([]model.Order, error)
	OrderHistory(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error)
	DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error)
}

// HealthFacade reports backing storage availability.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// PizzeriaFacade aggregates the full set of operations used across handlers.
type PizzeriaFacade interface {
	AuthFacade
	OrderFacade
	HealthFacade
}
