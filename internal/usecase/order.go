package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/domain/repository"
	"github.com/polkiloo/pizzeria/internal/pkg/keylock"
	"github.com/polkiloo/pizzeria/internal/pricing"
)

// SystemActor is recorded in history when no staff member is known.
const SystemActor = "system"

// CreateOrderCommand carries the input of a new order.
type CreateOrderCommand struct {
	CustomerID       *int64
	Customer         *model.NewCustomer
	Items            []model.ItemSpec
	Discount         decimal.Decimal
	PaymentMethod    model.PaymentMethod
	Notes            *string
	EstimatedMinutes *int
	Actor            string
}

// UpdateOrderCommand lists the order fields callers may change.
type UpdateOrderCommand struct {
	PaymentMethod    *model.PaymentMethod
	Notes            *string
	EstimatedMinutes *int
	Discount         *decimal.Decimal
	CustomerID       *int64
}

// ChangeStateCommand requests a lifecycle transition.
type ChangeStateCommand struct {
	OrderID       int64
	Target        model.OrderState
	Reason        *string
	Actor         string
	ExpectedState *model.OrderState
}

// StateChange is the outcome of a successful transition.
type StateChange struct {
	Order    *model.Order
	Previous model.OrderState
}

// OrderUseCase encapsulates order lifecycle logic.
type OrderUseCase struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	catalog   repository.CatalogRepository
	engine    *pricing.Engine
	locks     *keylock.Locker[int64]
	prefix    string
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	catalog repository.CatalogRepository,
	engine *pricing.Engine,
	numberPrefix string,
	logger *slog.Logger,
) *OrderUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUseCase{
		orders:    orders,
		customers: customers,
		catalog:   catalog,
		engine:    engine,
		locks:     keylock.New[int64](),
		prefix:    numberPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates, prices and persists a new order in state new.
func (u *OrderUseCase) Create(ctx context.Context, cmd CreateOrderCommand) (*model.Order, error) {
	cmd, err := ValidateCreateOrder(cmd)
	if err != nil {
		return nil, err
	}

	catalog, err := u.loadCatalog(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}

	priced, err := u.engine.PriceItems(cmd.Items, catalog)
	if err != nil {
		return nil, err
	}
	totals := pricing.PriceOrder(priced, cmd.Discount)

	seq, err := u.orders.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	// Customers are written only once the order is known to be priceable.
	customerID, err := u.resolveCustomer(ctx, cmd)
	if err != nil {
		return nil, err
	}

	placedAt := u.now().UTC()
	items := make([]model.OrderItem, len(priced))
	for i, p := range priced {
		items[i] = model.OrderItem{Spec: p.Spec, Pricing: p.Pricing}
	}

	id, err := u.orders.Create(ctx, model.NewOrder{
		Number:           FormatOrderNumber(u.prefix, placedAt, seq),
		CustomerID:       customerID,
		PaymentMethod:    cmd.PaymentMethod,
		Notes:            cmd.Notes,
		EstimatedMinutes: cmd.EstimatedMinutes,
		Subtotal:         totals.Subtotal,
		Discount:         totals.Discount,
		Total:            totals.Total,
		Items:            items,
		Actor:            actorOrSystem(cmd.Actor),
		PlacedAt:         placedAt,
	})
	if err != nil {
		return nil, err
	}

	u.refreshCustomer(ctx, customerID)

	return u.Get(ctx, id)
}

// Update applies whitelisted field changes. A discount change re-aggregates the totals.
func (u *OrderUseCase) Update(ctx context.Context, orderID int64, cmd UpdateOrderCommand) (*model.Order, error) {
	if err := ValidateUpdateOrder(cmd); err != nil {
		return nil, err
	}

	unlock, err := u.locks.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := u.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	patch := model.OrderPatch{
		PaymentMethod:    cmd.PaymentMethod,
		Notes:            cmd.Notes,
		EstimatedMinutes: cmd.EstimatedMinutes,
		CustomerID:       cmd.CustomerID,
	}

	if cmd.CustomerID != nil {
		if _, err := u.customers.GetByID(ctx, *cmd.CustomerID); err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, validationError("unknown customer %d", *cmd.CustomerID)
			}
			return nil, err
		}
	}

	if cmd.Discount != nil {
		totals := pricing.Aggregate(lineTotals(order.Items), *cmd.Discount)
		patch.Discount = &totals.Discount
		patch.Subtotal = &totals.Subtotal
		patch.Total = &totals.Total
	}

	if err := u.orders.Update(ctx, orderID, patch); err != nil {
		return nil, err
	}

	u.refreshCustomer(ctx, order.CustomerID)
	if cmd.CustomerID != nil && (order.CustomerID == nil || *order.CustomerID != *cmd.CustomerID) {
		u.refreshCustomer(ctx, cmd.CustomerID)
	}

	return u.Get(ctx, orderID)
}

// ChangeState moves an order along the lifecycle. Transitions of one order are serialized.
func (u *OrderUseCase) ChangeState(ctx context.Context, cmd ChangeStateCommand) (*StateChange, error) {
	if !cmd.Target.Valid() {
		return nil, validationError("unknown state %q", cmd.Target)
	}

	unlock, err := u.locks.Lock(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, found, err := u.orders.FindState(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("order %d: %w", cmd.OrderID, domainErrors.ErrNotFound)
	}

	if cmd.ExpectedState != nil && *cmd.ExpectedState != current {
		return nil, fmt.Errorf("%w: expected %s, found %s", domainErrors.ErrStateConflict, *cmd.ExpectedState, current)
	}

	if err := checkTransition(current, cmd.Target); err != nil {
		return nil, err
	}

	if err := u.orders.TransitionState(ctx, model.StateTransition{
		OrderID: cmd.OrderID,
		From:    current,
		To:      cmd.Target,
		Reason:  cmd.Reason,
		Actor:   actorOrSystem(cmd.Actor),
		At:      u.now().UTC(),
	}); err != nil {
		return nil, err
	}

	order, err := u.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	u.refreshCustomer(ctx, order.CustomerID)

	return &StateChange{Order: order, Previous: current}, nil
}

// Cancel moves an order to canceled.
func (u *OrderUseCase) Cancel(ctx context.Context, orderID int64, reason *string, actor string) (*StateChange, error) {
	return u.ChangeState(ctx, ChangeStateCommand{
		OrderID: orderID,
		Target:  model.OrderStateCanceled,
		Reason:  reason,
		Actor:   actor,
	})
}

// Recalculate re-prices every item from the current catalog and the stored discount.
func (u *OrderUseCase) Recalculate(ctx context.Context, orderID int64) (*model.Order, error) {
	unlock, err := u.locks.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := u.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	specs := make([]model.ItemSpec, len(order.Items))
	for i, item := range order.Items {
		specs[i] = item.Spec
	}

	catalog, err := u.loadCatalog(ctx, specs)
	if err != nil {
		return nil, err
	}

	priced, err := u.engine.PriceItems(specs, catalog)
	if err != nil {
		return nil, err
	}

	updates := make([]model.ItemRepricing, len(priced))
	for i, p := range priced {
		updates[i] = model.ItemRepricing{ItemID: order.Items[i].ID, Pricing: p.Pricing}
	}

	if err := u.orders.ApplyPricing(ctx, orderID, updates, pricing.PriceOrder(priced, order.Discount)); err != nil {
		return nil, err
	}

	u.refreshCustomer(ctx, order.CustomerID)

	return u.Get(ctx, orderID)
}

// Get returns a fully assembled order.
func (u *OrderUseCase) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", orderID, domainErrors.ErrNotFound)
	}
	return order, nil
}

// List returns orders matching the filter, newest first.
func (u *OrderUseCase) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return u.orders.List(ctx, filter)
}

// Kitchen returns orders still to be prepared, preparing first.
func (u *OrderUseCase) Kitchen(ctx context.Context) ([]model.Order, error) {
	return u.orders.ListKitchen(ctx)
}

// History returns the state history of an order in chronological order.
func (u *OrderUseCase) History(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error) {
	_, found, err := u.orders.FindState(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("order %d: %w", orderID, domainErrors.ErrNotFound)
	}
	return u.orders.ListHistory(ctx, orderID)
}

// DailySummary aggregates orders placed on the given day. A zero day means today.
func (u *OrderUseCase) DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error) {
	if day.IsZero() {
		day = u.now().UTC()
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return u.orders.DailySummary(ctx, day)
}

// FormatOrderNumber renders PREFIX-YYYYMMDD-NNNNNN.
func FormatOrderNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, at.UTC().Format("20060102"), seq)
}

func (u *OrderUseCase) resolveCustomer(ctx context.Context, cmd CreateOrderCommand) (*int64, error) {
	switch {
	case cmd.CustomerID != nil:
		customer, err := u.customers.GetByID(ctx, *cmd.CustomerID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, validationError("unknown customer %d", *cmd.CustomerID)
			}
			return nil, err
		}
		return &customer.ID, nil
	case cmd.Customer != nil:
		customer, err := u.customers.FindOrCreate(ctx, *cmd.Customer)
		if err != nil {
			return nil, err
		}
		return &customer.ID, nil
	default:
		return nil, nil
	}
}

func (u *OrderUseCase) loadCatalog(ctx context.Context, specs []model.ItemSpec) (pricing.Catalog, error) {
	var pizzaIDs, extraIDs []int64
	seenPizzas := make(map[int64]struct{})
	seenExtras := make(map[int64]struct{})
	for _, spec := range specs {
		for _, id := range spec.PizzaIDs() {
			if _, ok := seenPizzas[id]; !ok {
				seenPizzas[id] = struct{}{}
				pizzaIDs = append(pizzaIDs, id)
			}
		}
		for _, id := range spec.ExtraIDs() {
			if _, ok := seenExtras[id]; !ok {
				seenExtras[id] = struct{}{}
				extraIDs = append(extraIDs, id)
			}
		}
	}

	pizzas, err := u.catalog.PizzasByIDs(ctx, pizzaIDs)
	if err != nil {
		return pricing.Catalog{}, err
	}

	extras := map[int64]model.Extra{}
	if len(extraIDs) > 0 {
		if extras, err = u.catalog.ExtrasByIDs(ctx, extraIDs); err != nil {
			return pricing.Catalog{}, err
		}
	}

	return pricing.Catalog{Pizzas: pizzas, Extras: extras}, nil
}

func (u *OrderUseCase) refreshCustomer(ctx context.Context, customerID *int64) {
	if customerID == nil {
		return
	}
	if err := u.customers.RefreshStats(ctx, *customerID); err != nil {
		u.logger.Warn("refresh customer stats failed", slog.Int64("customer_id", *customerID), slog.String("error", err.Error()))
	}
}

func lineTotals(items []model.OrderItem) []decimal.Decimal {
	totals := make([]decimal.Decimal, len(items))
	for i, item := range items {
		totals[i] = item.Pricing.LineTotal
	}
	return totals
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return SystemActor
	}
	return actor
}
