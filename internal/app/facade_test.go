package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/pricing"
	testhelpers "github.com/polkiloo/pizzeria/internal/test"
	"github.com/polkiloo/pizzeria/internal/test/facadetest"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

type facadeFixture struct {
	facade   *PizzeriaFacade
	users    *testhelpers.UserRepositoryStub
	orders   *testhelpers.OrderRepositoryStub
	notifier *facadetest.NotifierStub
	health   *facadetest.HealthCheckerStub
}

func newFacade() *facadeFixture {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	users := testhelpers.NewUserRepositoryStub()
	strategy := testhelpers.StrategyStub{ParseFn: func(string) (int64, error) { return 1, nil }}
	authUC := usecase.NewAuthUseCase(users, testhelpers.HasherStub{}, strategy)

	orders := testhelpers.NewOrderRepositoryStub()
	catalog := &testhelpers.CatalogRepositoryStub{
		Pizzas: map[int64]model.Pizza{1: {ID: 1, Name: "Muzzarella", BasePrice: decimal.NewFromInt(390)}},
		Extras: map[int64]model.Extra{10: {ID: 10, Name: "Huevo", Price: decimal.NewFromInt(40)}},
	}
	orderUC := usecase.NewOrderUseCase(orders, testhelpers.NewCustomerRepositoryStub(), catalog,
		pricing.NewEngine(pricing.DefaultRemovalDiscount), "PZ", logger)

	notifier := &facadetest.NotifierStub{}
	health := &facadetest.HealthCheckerStub{}

	return &facadeFixture{
		facade:   NewPizzeriaFacade(authUC, orderUC, notifier, health, logger),
		users:    users,
		orders:   orders,
		notifier: notifier,
		health:   health,
	}
}

func (f *facadeFixture) createOrder(t *testing.T) *model.Order {
	t.Helper()
	order, err := f.facade.CreateOrder(context.Background(), usecase.CreateOrderCommand{
		Items: []model.ItemSpec{{PizzaID: 1, Quantity: 2, Extras: []int64{10}}},
		Actor: "chef",
	})
	if err != nil {
		t.Fatalf("create order returned error: %v", err)
	}
	return order
}

func TestPizzeriaFacadeAuth(t *testing.T) {
	f := newFacade()
	token, err := f.facade.Register(context.Background(), "chef", "secret")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if token != "token" {
		t.Fatalf("unexpected token %q", token)
	}

	if _, err := f.users.GetByLogin(context.Background(), "chef"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}

	token, err = f.facade.Authenticate(context.Background(), "chef", "secret")
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	if token != "token" {
		t.Fatalf("unexpected token %q", token)
	}

	user, err := f.facade.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("identify returned error: %v", err)
	}
	if user.Login != "chef" {
		t.Fatalf("expected chef, got %q", user.Login)
	}

	if _, err := f.facade.Authenticate(context.Background(), "chef", "wrong"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestPizzeriaFacadeCreateOrderNotifies(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)

	if !order.Total.Equal(decimal.NewFromInt(860)) {
		t.Fatalf("expected total 860, got %s", order.Total)
	}

	events := f.notifier.Recorded()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	ev := events[0]
	if ev.OrderID != order.ID || ev.Number != order.Number {
		t.Fatalf("unexpected event identity: %+v", ev)
	}
	if ev.Previous != nil {
		t.Fatalf("expected no previous state, got %v", *ev.Previous)
	}
	if ev.Current != model.OrderStateNew || ev.Actor != "chef" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.At.Equal(order.PlacedAt) {
		t.Fatalf("expected event time %v, got %v", order.PlacedAt, ev.At)
	}
}

func TestPizzeriaFacadeCreateOrderFailureDoesNotNotify(t *testing.T) {
	f := newFacade()
	_, err := f.facade.CreateOrder(context.Background(), usecase.CreateOrderCommand{
		Items: []model.ItemSpec{{PizzaID: 99, Quantity: 1}},
	})
	if !errors.Is(err, domainErrors.ErrCatalogIntegrity) {
		t.Fatalf("expected catalog integrity error, got %v", err)
	}
	if len(f.notifier.Recorded()) != 0 {
		t.Fatal("expected no event for rejected order")
	}
}

func TestPizzeriaFacadeChangeStateNotifies(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)

	change, err := f.facade.ChangeOrderState(context.Background(), usecase.ChangeStateCommand{
		OrderID: order.ID,
		Target:  model.OrderStatePreparing,
	})
	if err != nil {
		t.Fatalf("change state returned error: %v", err)
	}
	if change.Previous != model.OrderStateNew || change.Order.State != model.OrderStatePreparing {
		t.Fatalf("unexpected change: %+v", change)
	}

	events := f.notifier.Recorded()
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}
	ev := events[1]
	if ev.Previous == nil || *ev.Previous != model.OrderStateNew {
		t.Fatalf("expected previous new, got %v", ev.Previous)
	}
	if ev.Current != model.OrderStatePreparing {
		t.Fatalf("expected preparing, got %s", ev.Current)
	}
	if ev.Actor != usecase.SystemActor {
		t.Fatalf("expected system actor, got %q", ev.Actor)
	}
	if change.Order.PrepStartedAt == nil || !ev.At.Equal(*change.Order.PrepStartedAt) {
		t.Fatalf("expected event time to match prep start, got %v", ev.At)
	}
}

func TestPizzeriaFacadeInvalidTransitionDoesNotNotify(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)

	_, err := f.facade.ChangeOrderState(context.Background(), usecase.ChangeStateCommand{
		OrderID: order.ID,
		Target:  model.OrderStateDelivered,
	})
	if !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(f.notifier.Recorded()) != 1 {
		t.Fatal("expected only the creation event")
	}
}

func TestPizzeriaFacadeCancelNotifies(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)
	reason := "customer left"

	change, err := f.facade.CancelOrder(context.Background(), order.ID, &reason, "cashier")
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if change.Order.State != model.OrderStateCanceled {
		t.Fatalf("expected canceled, got %s", change.Order.State)
	}

	events := f.notifier.Recorded()
	last := events[len(events)-1]
	if last.Current != model.OrderStateCanceled || last.Actor != "cashier" {
		t.Fatalf("unexpected event: %+v", last)
	}

	if _, err := f.facade.CancelOrder(context.Background(), order.ID, nil, "cashier"); !errors.Is(err, domainErrors.ErrAlreadyCanceled) {
		t.Fatalf("expected already canceled, got %v", err)
	}
}

func TestPizzeriaFacadeNotifierFailureIsNotReturned(t *testing.T) {
	f := newFacade()
	f.notifier.Err = errors.New("kitchen display offline")

	order := f.createOrder(t)
	if _, err := f.facade.ChangeOrderState(context.Background(), usecase.ChangeStateCommand{
		OrderID: order.ID,
		Target:  model.OrderStatePreparing,
	}); err != nil {
		t.Fatalf("expected notifier failure to be swallowed, got %v", err)
	}
	if len(f.notifier.Recorded()) != 2 {
		t.Fatal("expected both notifications to be attempted")
	}
}

func TestPizzeriaFacadeWithoutNotifier(t *testing.T) {
	f := newFacade()
	f.facade.notifier = nil
	f.createOrder(t)
}

func TestPizzeriaFacadeUpdateAndRecalculate(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)

	discount := decimal.NewFromInt(60)
	updated, err := f.facade.UpdateOrder(context.Background(), order.ID, usecase.UpdateOrderCommand{Discount: &discount})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if !updated.Total.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected total 800, got %s", updated.Total)
	}

	recalculated, err := f.facade.RecalculateOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("recalculate returned error: %v", err)
	}
	if !recalculated.Total.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected total to stay 800, got %s", recalculated.Total)
	}
}

func TestPizzeriaFacadeOrderWithHistory(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)
	if _, err := f.facade.ChangeOrderState(context.Background(), usecase.ChangeStateCommand{
		OrderID: order.ID,
		Target:  model.OrderStatePreparing,
	}); err != nil {
		t.Fatalf("change state returned error: %v", err)
	}

	got, history, err := f.facade.OrderWithHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("order with history returned error: %v", err)
	}
	if got.ID != order.ID || got.State != model.OrderStatePreparing {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(history) != 2 {
		t.Fatalf("expected two history entries, got %d", len(history))
	}
	if history[0].PreviousState != nil || history[1].NewState != model.OrderStatePreparing {
		t.Fatalf("unexpected history: %+v", history)
	}

	if _, _, err := f.facade.OrderWithHistory(context.Background(), 404); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPizzeriaFacadeQueries(t *testing.T) {
	f := newFacade()
	order := f.createOrder(t)

	got, err := f.facade.Order(context.Background(), order.ID)
	if err != nil || got.Number != order.Number {
		t.Fatalf("unexpected order %+v, err %v", got, err)
	}

	list, err := f.facade.Orders(context.Background(), model.OrderFilter{})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one order, got %d (err %v)", len(list), err)
	}

	kitchen, err := f.facade.Kitchen(context.Background())
	if err != nil || len(kitchen) != 1 {
		t.Fatalf("expected one kitchen order, got %d (err %v)", len(kitchen), err)
	}

	history, err := f.facade.OrderHistory(context.Background(), order.ID)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected one history entry, got %d (err %v)", len(history), err)
	}

	summary, err := f.facade.DailySummary(context.Background(), order.PlacedAt)
	if err != nil {
		t.Fatalf("daily summary returned error: %v", err)
	}
	if summary.TotalOrders != 1 {
		t.Fatalf("expected one order in summary, got %d", summary.TotalOrders)
	}
}

func TestPizzeriaFacadeHealthCheck(t *testing.T) {
	f := newFacade()
	if err := f.facade.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.health.Err = errors.New("db down")
	if err := f.facade.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health error")
	}
	if f.health.Calls != 2 {
		t.Fatalf("expected two calls, got %d", f.health.Calls)
	}
}

func TestStateTimestamp(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	cases := []struct {
		order model.Order
		want  *time.Time
	}{
		{model.Order{State: model.OrderStateNew}, nil},
		{model.Order{State: model.OrderStatePreparing, PrepStartedAt: &now}, &now},
		{model.Order{State: model.OrderStateReady, ReadyAt: &now}, &now},
		{model.Order{State: model.OrderStateDelivered, DeliveredAt: &now}, &now},
		{model.Order{State: model.OrderStateCanceled, CanceledAt: &now}, &now},
	}
	for _, tc := range cases {
		got := stateTimestamp(&tc.order)
		if (got == nil) != (tc.want == nil) {
			t.Fatalf("state %s: expected %v, got %v", tc.order.State, tc.want, got)
		}
		if got != nil && !got.Equal(*tc.want) {
			t.Fatalf("state %s: expected %v, got %v", tc.order.State, *tc.want, *got)
		}
	}
}
