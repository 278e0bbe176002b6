// Package facadetest holds facade and notifier stubs for transport and app tests.
package facadetest

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/pizzeria/internal/adapter/notify"
	"github.com/polkiloo/pizzeria/internal/domain/model"
	testhelpers "github.com/polkiloo/pizzeria/internal/test"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

// SampleOrder returns a small priced order used as default facade output.
func SampleOrder(id int64) *model.Order {
	placed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	price := decimal.NewFromInt(390)
	return &model.Order{
		ID:            id,
		Number:        "PZ-20240601-000001",
		State:         model.OrderStateNew,
		Subtotal:      price,
		Discount:      decimal.Zero,
		Total:         price,
		PaymentMethod: model.PaymentCash,
		PlacedAt:      placed,
		UpdatedAt:     placed,
		Items: []model.OrderItem{{
			ID:      1,
			OrderID: id,
			Spec:    model.ItemSpec{PizzaID: 1, Quantity: 1},
			Pricing: model.ItemPricing{
				BasePrice:       price,
				ExtrasPrice:     decimal.Zero,
				RemovalDiscount: decimal.Zero,
				UnitPrice:       price,
				LineTotal:       price,
			},
			Pizza: &model.Pizza{ID: 1, Name: "Muzzarella", BasePrice: price},
		}},
	}
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn           func(context.Context, usecase.CreateOrderCommand) (*model.Order, error)
	UpdateFn           func(context.Context, int64, usecase.UpdateOrderCommand) (*model.Order, error)
	ChangeStateFn      func(context.Context, usecase.ChangeStateCommand) (*usecase.StateChange, error)
	CancelFn           func(context.Context, int64, *string, string) (*usecase.StateChange, error)
	RecalculateFn      func(context.Context, int64) (*model.Order, error)
	OrderFn            func(context.Context, int64) (*model.Order, error)
	OrderWithHistoryFn func(context.Context, int64) (*model.Order, []model.StateHistoryEntry, error)
	OrdersFn           func(context.Context, model.OrderFilter) ([]model.Order, error)
	KitchenFn          func(context.Context) ([]model.Order, error)
	HistoryFn          func(context.Context, int64) ([]model.StateHistoryEntry, error)
	SummaryFn          func(context.Context, time.Time) (*model.DailySummary, error)
}

// CreateOrder delegates to provided function or returns a sample order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, cmd usecase.CreateOrderCommand) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, cmd)
	}
	return SampleOrder(1), nil
}

func (s OrderFacadeStub) UpdateOrder(ctx context.Context, orderID int64, cmd usecase.UpdateOrderCommand) (*model.Order, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, orderID, cmd)
	}
	return SampleOrder(orderID), nil
}

// ChangeOrderState moves the sample order into the requested state.
func (s OrderFacadeStub) ChangeOrderState(ctx context.Context, cmd usecase.ChangeStateCommand) (*usecase.StateChange, error) {
	if s.ChangeStateFn != nil {
		return s.ChangeStateFn(ctx, cmd)
	}
	order := SampleOrder(cmd.OrderID)
	order.State = cmd.Target
	return &usecase.StateChange{Order: order, Previous: model.OrderStateNew}, nil
}

func (s OrderFacadeStub) CancelOrder(ctx context.Context, orderID int64, reason *string, actor string) (*usecase.StateChange, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, reason, actor)
	}
	order := SampleOrder(orderID)
	order.State = model.OrderStateCanceled
	return &usecase.StateChange{Order: order, Previous: model.OrderStateNew}, nil
}

func (s OrderFacadeStub) RecalculateOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.RecalculateFn != nil {
		return s.RecalculateFn(ctx, orderID)
	}
	return SampleOrder(orderID), nil
}

func (s OrderFacadeStub) Order(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, orderID)
	}
	return SampleOrder(orderID), nil
}

func (s OrderFacadeStub) OrderWithHistory(ctx context.Context, orderID int64) (*model.Order, []model.StateHistoryEntry, error) {
	if s.OrderWithHistoryFn != nil {
		return s.OrderWithHistoryFn(ctx, orderID)
	}
	order := SampleOrder(orderID)
	return order, []model.StateHistoryEntry{{ID: 1, OrderID: orderID, NewState: model.OrderStateNew, Actor: "chef", ChangedAt: order.PlacedAt}}, nil
}

// Orders returns predefined listing.
func (s OrderFacadeStub) Orders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, filter)
	}
	return []model.Order{*SampleOrder(1)}, nil
}

func (s OrderFacadeStub) Kitchen(ctx context.Context) ([]model.Order, error) {
	if s.KitchenFn != nil {
		return s.KitchenFn(ctx)
	}
	return []model.Order{*SampleOrder(1)}, nil
}

func (s OrderFacadeStub) OrderHistory(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, orderID)
	}
	return []model.StateHistoryEntry{{ID: 1, OrderID: orderID, NewState: model.OrderStateNew, Actor: "chef"}}, nil
}

func (s OrderFacadeStub) DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error) {
	if s.SummaryFn != nil {
		return s.SummaryFn(ctx, day)
	}
	return &model.DailySummary{
		Date:          day,
		TotalOrders:   1,
		ByState:       map[model.OrderState]int{model.OrderStateNew: 1},
		Revenue:       decimal.NewFromInt(390),
		AverageTicket: decimal.NewFromInt(390),
	}, nil
}

// HealthCheckerStub reports a configurable storage health result.
type HealthCheckerStub struct {
	Err   error
	Calls int
}

func (s *HealthCheckerStub) HealthCheck(ctx context.Context) error {
	s.Calls++
	return s.Err
}

// PizzeriaFacadeStub combines every facade used by the HTTP layer.
type PizzeriaFacadeStub struct {
	testhelpers.AuthFacadeStub
	OrderFacadeStub
	HealthErr error
}

// HealthCheck returns configured error.
func (s PizzeriaFacadeStub) HealthCheck(ctx context.Context) error {
	return s.HealthErr
}

// NotifierStub records delivered order events.
type NotifierStub struct {
	mu     sync.Mutex
	Events []notify.OrderEvent
	Err    error
}

// Notify stores the event and returns the configured error.
func (s *NotifierStub) Notify(ctx context.Context, event notify.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	return s.Err
}

// Recorded returns a copy of the delivered events.
func (s *NotifierStub) Recorded() []notify.OrderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.OrderEvent(nil), s.Events...)
}

var _ notify.Notifier = (*NotifierStub)(nil)
