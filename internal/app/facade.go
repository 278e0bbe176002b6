package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/pizzeria/internal/adapter/notify"
	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

// HealthChecker reports whether the backing storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PizzeriaFacade is the single entry point used by the HTTP layer.
type PizzeriaFacade struct {
	auth     *usecase.AuthUseCase
	orders   *usecase.OrderUseCase
	notifier notify.Notifier
	health   HealthChecker
	logger   *slog.Logger
}

func NewPizzeriaFacade(auth *usecase.AuthUseCase, orders *usecase.OrderUseCase, notifier notify.Notifier, health HealthChecker, logger *slog.Logger) *PizzeriaFacade {
	if logger == nil {
		logger = slog.Default()
	}
	return &PizzeriaFacade{auth: auth, orders: orders, notifier: notifier, health: health, logger: logger}
}

func (f *PizzeriaFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *PizzeriaFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *PizzeriaFacade) Identify(ctx context.Context, token string) (*model.User, error) {
	return f.auth.Identify(ctx, token)
}

func (f *PizzeriaFacade) CreateOrder(ctx context.Context, cmd usecase.CreateOrderCommand) (*model.Order, error) {
	order, err := f.orders.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}
	f.notify(ctx, order, nil, cmd.Actor, order.PlacedAt)
	return order, nil
}

func (f *PizzeriaFacade) UpdateOrder(ctx context.Context, orderID int64, cmd usecase.UpdateOrderCommand) (*model.Order, error) {
	return f.orders.Update(ctx, orderID, cmd)
}

func (f *PizzeriaFacade) ChangeOrderState(ctx context.Context, cmd usecase.ChangeStateCommand) (*usecase.StateChange, error) {
	change, err := f.orders.ChangeState(ctx, cmd)
	if err != nil {
		return nil, err
	}
	f.notifyChange(ctx, change, cmd.Actor)
	return change, nil
}

func (f *PizzeriaFacade) CancelOrder(ctx context.Context, orderID int64, reason *string, actor string) (*usecase.StateChange, error) {
	change, err := f.orders.Cancel(ctx, orderID, reason, actor)
	if err != nil {
		return nil, err
	}
	f.notifyChange(ctx, change, actor)
	return change, nil
}

func (f *PizzeriaFacade) RecalculateOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.orders.Recalculate(ctx, orderID)
}

func (f *PizzeriaFacade) Order(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, orderID)
}

// OrderWithHistory loads the order and its state history concurrently.
func (f *PizzeriaFacade) OrderWithHistory(ctx context.Context, orderID int64) (*model.Order, []model.StateHistoryEntry, error) {
	var (
		order   *model.Order
		history []model.StateHistoryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = f.orders.Get(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = f.orders.History(gctx, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return order, history, nil
}

func (f *PizzeriaFacade) Orders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	return f.orders.List(ctx, filter)
}

func (f *PizzeriaFacade) Kitchen(ctx context.Context) ([]model.Order, error) {
	return f.orders.Kitchen(ctx)
}

func (f *PizzeriaFacade) OrderHistory(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error) {
	return f.orders.History(ctx, orderID)
}

func (f *PizzeriaFacade) DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error) {
	return f.orders.DailySummary(ctx, day)
}

func (f *PizzeriaFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

func (f *PizzeriaFacade) notifyChange(ctx context.Context, change *usecase.StateChange, actor string) {
	at := time.Now().UTC()
	if ts := stateTimestamp(change.Order); ts != nil {
		at = *ts
	}
	prev := change.Previous
	f.notify(ctx, change.Order, &prev, actor, at)
}

// notify never fails the operation; delivery errors are only logged.
func (f *PizzeriaFacade) notify(ctx context.Context, order *model.Order, previous *model.OrderState, actor string, at time.Time) {
	if f.notifier == nil {
		return
	}
	if actor == "" {
		actor = usecase.SystemActor
	}
	event := notify.OrderEvent{
		OrderID:  order.ID,
		Number:   order.Number,
		Previous: previous,
		Current:  order.State,
		Actor:    actor,
		At:       at,
	}
	if err := f.notifier.Notify(ctx, event); err != nil {
		f.logger.Warn("order notification failed",
			slog.Int64("order_id", order.ID),
			slog.String("state", string(order.State)),
			slog.String("error", err.Error()),
		)
	}
}

func stateTimestamp(order *model.Order) *time.Time {
	switch order.State {
	case model.OrderStatePreparing:
		return order.PrepStartedAt
	case model.OrderStateReady:
		return order.ReadyAt
	case model.OrderStateDelivered:
		return order.DeliveredAt
	case model.OrderStateCanceled:
		return order.CanceledAt
	}
	return nil
}
