package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/pricing"
	testhelpers "github.com/polkiloo/pizzeria/internal/test"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type orderFixture struct {
	uc        *OrderUseCase
	orders    *testhelpers.OrderRepositoryStub
	customers *testhelpers.CustomerRepositoryStub
	catalog   *testhelpers.CatalogRepositoryStub
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newOrderFixture() *orderFixture {
	orders := testhelpers.NewOrderRepositoryStub()
	customers := testhelpers.NewCustomerRepositoryStub()
	catalog := &testhelpers.CatalogRepositoryStub{
		Pizzas: map[int64]model.Pizza{
			1: {ID: 1, Name: "Muzzarella", BasePrice: dec(390)},
			2: {ID: 2, Name: "Napolitana", BasePrice: dec(500)},
		},
		Extras: map[int64]model.Extra{
			10: {ID: 10, Name: "Huevo", Price: dec(40)},
			11: {ID: 11, Name: "Jamon", Price: dec(60)},
		},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	uc := NewOrderUseCase(orders, customers, catalog, pricing.NewEngine(pricing.DefaultRemovalDiscount), "PZ", logger)
	uc.now = func() time.Time { return fixedNow }
	return &orderFixture{uc: uc, orders: orders, customers: customers, catalog: catalog}
}

func (f *orderFixture) create(t *testing.T) *model.Order {
	t.Helper()
	order, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Items: []model.ItemSpec{{PizzaID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	return order
}

func (f *orderFixture) advance(t *testing.T, id int64, states ...model.OrderState) {
	t.Helper()
	for _, s := range states {
		if _, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{OrderID: id, Target: s}); err != nil {
			t.Fatalf("transition to %s failed: %v", s, err)
		}
	}
}

func TestOrderUseCaseCreatePricesBeforePersisting(t *testing.T) {
	f := newOrderFixture()
	second := int64(2)

	order, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Customer: &model.NewCustomer{Name: "Ana", Phone: "555"},
		Items: []model.ItemSpec{
			{PizzaID: 1, Quantity: 2, Extras: []int64{10, 11}, Removed: []string{"aceitunas"}},
			{PizzaID: 1, Quantity: 1, HalfAndHalf: true, SecondPizzaID: &second},
		},
		Discount: dec(25),
		Actor:    "",
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if order.State != model.OrderStateNew {
		t.Fatalf("expected state new, got %s", order.State)
	}
	if order.Number != "PZ-20240601-000001" {
		t.Fatalf("unexpected order number %q", order.Number)
	}
	if !order.Subtotal.Equal(dec(880 + 445)) {
		t.Fatalf("unexpected subtotal %s", order.Subtotal)
	}
	if !order.Total.Equal(dec(880 + 445 - 25)) {
		t.Fatalf("unexpected total %s", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if !order.Items[0].Pricing.UnitPrice.Equal(dec(440)) || !order.Items[0].Pricing.LineTotal.Equal(dec(880)) {
		t.Fatalf("unexpected pricing for first item: %+v", order.Items[0].Pricing)
	}
	if !order.Items[1].Pricing.UnitPrice.Equal(dec(445)) {
		t.Fatalf("unexpected half-and-half unit price %s", order.Items[1].Pricing.UnitPrice)
	}
	if order.PaymentMethod != model.PaymentCash {
		t.Fatalf("expected default payment method, got %s", order.PaymentMethod)
	}

	history, err := f.uc.History(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if len(history) != 1 || history[0].PreviousState != nil || history[0].NewState != model.OrderStateNew {
		t.Fatalf("expected single birth entry, got %+v", history)
	}
	if history[0].Actor != SystemActor {
		t.Fatalf("expected system actor, got %q", history[0].Actor)
	}

	if order.CustomerID == nil || len(f.customers.Refreshed) != 1 || f.customers.Refreshed[0] != *order.CustomerID {
		t.Fatalf("expected customer stats refresh, got %v", f.customers.Refreshed)
	}
}

func TestOrderUseCaseCreateClampsTotal(t *testing.T) {
	f := newOrderFixture()
	f.catalog.Pizzas[3] = model.Pizza{ID: 3, Name: "Grande", BasePrice: dec(1000)}

	order, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Items:    []model.ItemSpec{{PizzaID: 3, Quantity: 1}},
		Discount: dec(1200),
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if !order.Subtotal.Equal(dec(1000)) || !order.Discount.Equal(dec(1200)) {
		t.Fatalf("unexpected amounts: subtotal %s discount %s", order.Subtotal, order.Discount)
	}
	if !order.Total.IsZero() {
		t.Fatalf("expected total clamped to zero, got %s", order.Total)
	}
}

func TestOrderUseCaseCreateCatalogIntegrity(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Customer: &model.NewCustomer{Name: "Ana", Phone: testhelpers.RandomPhone()},
		Items:    []model.ItemSpec{{PizzaID: 1, Quantity: 1, Extras: []int64{999}}},
	})
	if !errors.Is(err, domainErrors.ErrCatalogIntegrity) {
		t.Fatalf("expected catalog integrity error, got %v", err)
	}
	if orders, _ := f.orders.List(context.Background(), model.OrderFilter{}); len(orders) != 0 {
		t.Fatalf("expected nothing persisted, got %d orders", len(orders))
	}
	if len(f.customers.Customers) != 0 {
		t.Fatalf("expected no customer to be created for a rejected order, got %d", len(f.customers.Customers))
	}
}

func TestOrderUseCaseCreateUnknownCustomer(t *testing.T) {
	f := newOrderFixture()
	id := int64(77)

	_, err := f.uc.Create(context.Background(), CreateOrderCommand{
		CustomerID: &id,
		Items:      []model.ItemSpec{{PizzaID: 1, Quantity: 1}},
	})
	if !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderUseCaseCreatePropagatesPersistenceErrors(t *testing.T) {
	f := newOrderFixture()
	f.orders.CreateFn = func(context.Context, model.NewOrder) (int64, error) {
		return 0, fmt.Errorf("insert failed")
	}

	if _, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Items: []model.ItemSpec{{PizzaID: 1, Quantity: 1}},
	}); err == nil || err.Error() != "insert failed" {
		t.Fatalf("expected persistence error, got %v", err)
	}

	f.orders.CreateFn = nil
	f.orders.NextSequenceFn = func(context.Context) (int64, error) { return 0, fmt.Errorf("sequence down") }
	if _, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Items: []model.ItemSpec{{PizzaID: 1, Quantity: 1}},
	}); err == nil {
		t.Fatal("expected sequence error")
	}
}

func TestOrderUseCaseCreateIgnoresCustomerRefreshFailure(t *testing.T) {
	f := newOrderFixture()
	f.customers.RefreshErr = fmt.Errorf("stats table locked")

	if _, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Customer: &model.NewCustomer{Name: "Ana", Phone: "555"},
		Items:    []model.ItemSpec{{PizzaID: 1, Quantity: 1}},
	}); err != nil {
		t.Fatalf("expected refresh failure to be swallowed, got %v", err)
	}
}

func TestOrderUseCaseChangeStateValidTransitions(t *testing.T) {
	paths := map[model.OrderState][]model.OrderState{
		model.OrderStatePreparing: {model.OrderStatePreparing},
		model.OrderStateReady:     {model.OrderStatePreparing, model.OrderStateReady},
		model.OrderStateDelivered: {model.OrderStatePreparing, model.OrderStateReady, model.OrderStateDelivered},
		model.OrderStateCanceled:  {model.OrderStatePreparing, model.OrderStateCanceled},
	}

	for target, path := range paths {
		t.Run(string(target), func(t *testing.T) {
			f := newOrderFixture()
			order := f.create(t)
			f.advance(t, order.ID, path[:len(path)-1]...)

			change, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{
				OrderID: order.ID,
				Target:  target,
				Actor:   "chef",
			})
			if err != nil {
				t.Fatalf("change state returned error: %v", err)
			}

			got := change.Order
			if got.State != target {
				t.Fatalf("expected state %s, got %s", target, got.State)
			}
			stamps := map[model.OrderState]*time.Time{
				model.OrderStatePreparing: got.PrepStartedAt,
				model.OrderStateReady:     got.ReadyAt,
				model.OrderStateDelivered: got.DeliveredAt,
				model.OrderStateCanceled:  got.CanceledAt,
			}
			for state, stamp := range stamps {
				if state == target && (stamp == nil || !stamp.Equal(fixedNow)) {
					t.Fatalf("expected %s timestamp to be stamped", state)
				}
				if state != target && stamp != nil {
					t.Fatalf("expected %s timestamp to be cleared", state)
				}
			}

			history, _ := f.uc.History(context.Background(), order.ID)
			last := history[len(history)-1]
			if last.NewState != target || last.PreviousState == nil || *last.PreviousState != change.Previous {
				t.Fatalf("unexpected last history entry %+v", last)
			}
			if last.Actor != "chef" {
				t.Fatalf("expected actor chef, got %q", last.Actor)
			}
		})
	}
}

func TestOrderUseCaseChangeStateInvalidLeavesOrderUntouched(t *testing.T) {
	cases := []struct {
		name   string
		path   []model.OrderState
		target model.OrderState
		want   error
	}{
		{"new to delivered", nil, model.OrderStateDelivered, domainErrors.ErrInvalidTransition},
		{"new to new", nil, model.OrderStateNew, domainErrors.ErrInvalidTransition},
		{"new to ready", nil, model.OrderStateReady, domainErrors.ErrInvalidTransition},
		{"preparing to new", []model.OrderState{model.OrderStatePreparing}, model.OrderStateNew, domainErrors.ErrInvalidTransition},
		{"delivered to canceled", []model.OrderState{model.OrderStatePreparing, model.OrderStateReady, model.OrderStateDelivered}, model.OrderStateCanceled, domainErrors.ErrCancelDelivered},
		{"canceled to canceled", []model.OrderState{model.OrderStateCanceled}, model.OrderStateCanceled, domainErrors.ErrAlreadyCanceled},
		{"canceled to preparing", []model.OrderState{model.OrderStateCanceled}, model.OrderStatePreparing, domainErrors.ErrInvalidTransition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture()
			order := f.create(t)
			f.advance(t, order.ID, tc.path...)

			before, _ := f.uc.Get(context.Background(), order.ID)
			historyBefore, _ := f.uc.History(context.Background(), order.ID)

			_, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{OrderID: order.ID, Target: tc.target})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !domainErrors.IsBusinessRule(err) {
				t.Fatalf("expected business rule error, got %v", err)
			}

			after, _ := f.uc.Get(context.Background(), order.ID)
			historyAfter, _ := f.uc.History(context.Background(), order.ID)
			if after.State != before.State || len(historyAfter) != len(historyBefore) {
				t.Fatalf("order changed after rejected transition")
			}
			if (after.CanceledAt == nil) != (before.CanceledAt == nil) || (after.DeliveredAt == nil) != (before.DeliveredAt == nil) {
				t.Fatalf("timestamps changed after rejected transition")
			}
		})
	}
}

func TestOrderUseCaseCancelDeliveredIsDistinct(t *testing.T) {
	f := newOrderFixture()
	delivered := f.create(t)
	f.advance(t, delivered.ID, model.OrderStatePreparing, model.OrderStateReady, model.OrderStateDelivered)
	fresh := f.create(t)

	_, cancelErr := f.uc.Cancel(context.Background(), delivered.ID, nil, "admin")
	_, invalidErr := f.uc.ChangeState(context.Background(), ChangeStateCommand{OrderID: fresh.ID, Target: model.OrderStateDelivered})

	if !errors.Is(cancelErr, domainErrors.ErrCancelDelivered) {
		t.Fatalf("expected cancel delivered error, got %v", cancelErr)
	}
	if errors.Is(cancelErr, domainErrors.ErrInvalidTransition) {
		t.Fatalf("cancel delivered must be distinguishable from generic invalid transition")
	}
	if !errors.Is(invalidErr, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", invalidErr)
	}
	if cancelErr.Error() != "cannot cancel a delivered order" {
		t.Fatalf("unexpected message %q", cancelErr.Error())
	}
}

func TestOrderUseCaseCancelWithReason(t *testing.T) {
	f := newOrderFixture()
	order := f.create(t)
	reason := "customer left"

	change, err := f.uc.Cancel(context.Background(), order.ID, &reason, "")
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if change.Previous != model.OrderStateNew || change.Order.State != model.OrderStateCanceled {
		t.Fatalf("unexpected change %+v", change)
	}

	history, _ := f.uc.History(context.Background(), order.ID)
	last := history[len(history)-1]
	if last.Reason == nil || *last.Reason != reason || last.Actor != SystemActor {
		t.Fatalf("unexpected history entry %+v", last)
	}
}

func TestOrderUseCaseChangeStateErrors(t *testing.T) {
	f := newOrderFixture()
	order := f.create(t)

	if _, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{OrderID: 999, Target: model.OrderStatePreparing}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{OrderID: order.ID, Target: "baking"}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	expected := model.OrderStateReady
	if _, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{
		OrderID: order.ID, Target: model.OrderStatePreparing, ExpectedState: &expected,
	}); !errors.Is(err, domainErrors.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	f.orders.TransitionStateFn = func(context.Context, model.StateTransition) error {
		return fmt.Errorf("tx aborted")
	}
	if _, err := f.uc.ChangeState(context.Background(), ChangeStateCommand{OrderID: order.ID, Target: model.OrderStatePreparing}); err == nil || err.Error() != "tx aborted" {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestOrderUseCaseUpdateDiscountReaggregates(t *testing.T) {
	f := newOrderFixture()
	order := f.create(t)

	discount := dec(90)
	notes := "ring twice"
	updated, err := f.uc.Update(context.Background(), order.ID, UpdateOrderCommand{Discount: &discount, Notes: &notes})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if !updated.Subtotal.Equal(dec(390)) || !updated.Total.Equal(dec(300)) || !updated.Discount.Equal(dec(90)) {
		t.Fatalf("unexpected totals: %s %s %s", updated.Subtotal, updated.Discount, updated.Total)
	}
	if updated.Notes == nil || *updated.Notes != notes {
		t.Fatalf("notes were not updated")
	}
	if updated.State != model.OrderStateNew {
		t.Fatalf("update must not change state")
	}

	huge := dec(5000)
	updated, err = f.uc.Update(context.Background(), order.ID, UpdateOrderCommand{Discount: &huge})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if !updated.Total.IsZero() {
		t.Fatalf("expected clamped total, got %s", updated.Total)
	}
}

func TestOrderUseCaseUpdateWithoutDiscountKeepsTotals(t *testing.T) {
	f := newOrderFixture()
	order := f.create(t)
	method := model.PaymentCard

	if _, err := f.uc.Update(context.Background(), order.ID, UpdateOrderCommand{PaymentMethod: &method}); err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	last := f.orders.Patches[len(f.orders.Patches)-1]
	if last.Subtotal != nil || last.Total != nil || last.Discount != nil {
		t.Fatalf("expected totals to stay untouched, got %+v", last)
	}
}

func TestOrderUseCaseUpdateErrors(t *testing.T) {
	f := newOrderFixture()
	order := f.create(t)
	notes := "x"

	if _, err := f.uc.Update(context.Background(), 404, UpdateOrderCommand{Notes: &notes}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.uc.Update(context.Background(), order.ID, UpdateOrderCommand{}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	customer := int64(42)
	if _, err := f.uc.Update(context.Background(), order.ID, UpdateOrderCommand{CustomerID: &customer}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected unknown customer validation error, got %v", err)
	}
}

func TestOrderUseCaseRecalculateIsIdempotent(t *testing.T) {
	f := newOrderFixture()
	order, err := f.uc.Create(context.Background(), CreateOrderCommand{
		Items:    []model.ItemSpec{{PizzaID: 1, Quantity: 2, Extras: []int64{10}}},
		Discount: dec(10),
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	f.catalog.Pizzas[1] = model.Pizza{ID: 1, Name: "Muzzarella", BasePrice: dec(400)}

	first, err := f.uc.Recalculate(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("recalculate returned error: %v", err)
	}
	if !first.Subtotal.Equal(dec(880)) || !first.Total.Equal(dec(870)) {
		t.Fatalf("unexpected totals after recalculation: %s %s", first.Subtotal, first.Total)
	}
	if !first.Items[0].Pricing.BasePrice.Equal(dec(400)) {
		t.Fatalf("expected item base price to follow catalog, got %s", first.Items[0].Pricing.BasePrice)
	}

	second, err := f.uc.Recalculate(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("recalculate returned error: %v", err)
	}
	if !second.Total.Equal(first.Total) || !second.Subtotal.Equal(first.Subtotal) {
		t.Fatalf("recalculation is not idempotent")
	}
}

func TestOrderUseCaseRecalculateCatalogIntegrity(t *testing.T) {
	f := newOrderFixture()
	order := f.create(t)
	delete(f.catalog.Pizzas, 1)

	if _, err := f.uc.Recalculate(context.Background(), order.ID); !errors.Is(err, domainErrors.ErrCatalogIntegrity) {
		t.Fatalf("expected catalog integrity error, got %v", err)
	}
}

func TestOrderUseCaseGetNotFound(t *testing.T) {
	f := newOrderFixture()
	if _, err := f.uc.Get(context.Background(), 1); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.uc.History(context.Background(), 1); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found for history, got %v", err)
	}
}

func TestOrderUseCaseKitchenOrdering(t *testing.T) {
	f := newOrderFixture()
	base := fixedNow.Add(-time.Hour)
	f.orders.Put(model.Order{ID: 1, State: model.OrderStateNew, PlacedAt: base.Add(1 * time.Minute)})
	f.orders.Put(model.Order{ID: 2, State: model.OrderStatePreparing, PlacedAt: base.Add(5 * time.Minute)})
	f.orders.Put(model.Order{ID: 3, State: model.OrderStateNew, PlacedAt: base})
	f.orders.Put(model.Order{ID: 4, State: model.OrderStateReady, PlacedAt: base})
	f.orders.Put(model.Order{ID: 5, State: model.OrderStatePreparing, PlacedAt: base.Add(2 * time.Minute)})

	orders, err := f.uc.Kitchen(context.Background())
	if err != nil {
		t.Fatalf("kitchen returned error: %v", err)
	}
	want := []int64{5, 2, 3, 1}
	if len(orders) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(orders))
	}
	for i, id := range want {
		if orders[i].ID != id {
			t.Fatalf("position %d: expected order %d, got %d", i, id, orders[i].ID)
		}
	}
}

func TestOrderUseCaseListAppliesDefaults(t *testing.T) {
	f := newOrderFixture()
	for i := 0; i < 3; i++ {
		f.create(t)
	}

	orders, err := f.uc.List(context.Background(), model.OrderFilter{})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if orders[0].ID != 3 {
		t.Fatalf("expected newest first, got %d", orders[0].ID)
	}

	if _, err := f.uc.List(context.Background(), model.OrderFilter{Limit: 1000}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderUseCaseDailySummary(t *testing.T) {
	f := newOrderFixture()
	a := f.create(t)
	f.create(t)
	f.advance(t, a.ID, model.OrderStateCanceled)

	summary, err := f.uc.DailySummary(context.Background(), time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	if summary.TotalOrders != 2 || summary.ByState[model.OrderStateCanceled] != 1 || summary.ByState[model.OrderStateNew] != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !summary.Revenue.Equal(dec(390)) || !summary.AverageTicket.Equal(dec(390)) {
		t.Fatalf("unexpected revenue %s / %s", summary.Revenue, summary.AverageTicket)
	}

	empty, err := f.uc.DailySummary(context.Background(), fixedNow.AddDate(0, 0, -3))
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	if empty.TotalOrders != 0 || !empty.Revenue.IsZero() {
		t.Fatalf("expected empty summary, got %+v", empty)
	}
}
