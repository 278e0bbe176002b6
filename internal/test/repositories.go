package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// UserRepositoryStub stores staff users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// CatalogRepositoryStub serves pizzas and extras from maps.
type CatalogRepositoryStub struct {
	Pizzas map[int64]model.Pizza
	Extras map[int64]model.Extra
	Err    error
}

// PizzasByIDs returns known pizzas among ids.
func (s *CatalogRepositoryStub) PizzasByIDs(ctx context.Context, ids []int64) (map[int64]model.Pizza, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[int64]model.Pizza, len(ids))
	for _, id := range ids {
		if p, ok := s.Pizzas[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// ExtrasByIDs returns known extras among ids.
func (s *CatalogRepositoryStub) ExtrasByIDs(ctx context.Context, ids []int64) (map[int64]model.Extra, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[int64]model.Extra, len(ids))
	for _, id := range ids {
		if e, ok := s.Extras[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

// CustomerRepositoryStub keeps customers in memory and records stat refreshes.
type CustomerRepositoryStub struct {
	mu         sync.Mutex
	Customers  map[int64]*model.Customer
	Next       int64
	Err        error
	RefreshErr error
	Refreshed  []int64
}

// NewCustomerRepositoryStub constructs an empty customer stub.
func NewCustomerRepositoryStub() *CustomerRepositoryStub {
	return &CustomerRepositoryStub{Customers: make(map[int64]*model.Customer), Next: 1}
}

// GetByID fetches customer or returns not found.
func (s *CustomerRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if c, ok := s.Customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domainErrors.ErrNotFound
}

// FindOrCreate returns the customer with matching phone or creates one.
func (s *CustomerRepositoryStub) FindOrCreate(ctx context.Context, customer model.NewCustomer) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Customers == nil {
		s.Customers = make(map[int64]*model.Customer)
	}
	for _, c := range s.Customers {
		if c.Phone == customer.Phone {
			c.Name = customer.Name
			if customer.Address != nil {
				c.Address = customer.Address
			}
			cp := *c
			return &cp, nil
		}
	}
	if s.Next == 0 {
		s.Next = 1
	}
	c := &model.Customer{ID: s.Next, Name: customer.Name, Phone: customer.Phone, Address: customer.Address, CreatedAt: time.Now()}
	s.Next++
	s.Customers[c.ID] = c
	cp := *c
	return &cp, nil
}

// RefreshStats records the call and returns RefreshErr.
func (s *CustomerRepositoryStub) RefreshStats(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Refreshed = append(s.Refreshed, id)
	return s.RefreshErr
}

// OrderRepositoryStub is an in-memory order store honouring compare-and-swap transitions.
// Fn overrides replace the default behaviour of individual methods.
type OrderRepositoryStub struct {
	mu      sync.Mutex
	orders  map[int64]*model.Order
	history map[int64][]model.StateHistoryEntry
	seq     int64
	nextID  int64
	itemID  int64
	histID  int64

	NextSequenceFn    func(context.Context) (int64, error)
	CreateFn          func(context.Context, model.NewOrder) (int64, error)
	UpdateFn          func(context.Context, int64, model.OrderPatch) error
	GetByIDFn         func(context.Context, int64) (*model.Order, error)
	TransitionStateFn func(context.Context, model.StateTransition) error
	ApplyPricingFn    func(context.Context, int64, []model.ItemRepricing, model.OrderTotals) error

	// AfterFindState runs after FindState reads the current state.
	AfterFindState func()

	Transitions []model.StateTransition
	Patches     []model.OrderPatch
}

// NewOrderRepositoryStub constructs an empty in-memory order store.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		orders:  make(map[int64]*model.Order),
		history: make(map[int64][]model.StateHistoryEntry),
	}
}

// Put seeds an order directly, bypassing creation.
func (s *OrderRepositoryStub) Put(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == 0 {
		s.nextID++
		order.ID = s.nextID
	} else if order.ID > s.nextID {
		s.nextID = order.ID
	}
	for i := range order.Items {
		if order.Items[i].ID == 0 {
			s.itemID++
			order.Items[i].ID = s.itemID
		}
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = cloneOrder(&order)
}

// NextSequence increments an in-memory counter.
func (s *OrderRepositoryStub) NextSequence(ctx context.Context) (int64, error) {
	if s.NextSequenceFn != nil {
		return s.NextSequenceFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

// Create stores the order, its items and the birth history entry.
func (s *OrderRepositoryStub) Create(ctx context.Context, order model.NewOrder) (int64, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := &model.Order{
		ID:               s.nextID,
		Number:           order.Number,
		CustomerID:       order.CustomerID,
		State:            model.OrderStateNew,
		Subtotal:         order.Subtotal,
		Discount:         order.Discount,
		Total:            order.Total,
		PaymentMethod:    order.PaymentMethod,
		Notes:            order.Notes,
		EstimatedMinutes: order.EstimatedMinutes,
		PlacedAt:         order.PlacedAt,
		UpdatedAt:        order.PlacedAt,
	}
	for _, item := range order.Items {
		s.itemID++
		item.ID = s.itemID
		item.OrderID = stored.ID
		stored.Items = append(stored.Items, item)
	}
	s.orders[stored.ID] = stored

	s.histID++
	s.history[stored.ID] = append(s.history[stored.ID], model.StateHistoryEntry{
		ID:        s.histID,
		OrderID:   stored.ID,
		NewState:  model.OrderStateNew,
		Actor:     order.Actor,
		ChangedAt: order.PlacedAt,
	})
	return stored.ID, nil
}

// Update applies non-nil patch fields.
func (s *OrderRepositoryStub) Update(ctx context.Context, orderID int64, patch model.OrderPatch) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, orderID, patch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	s.Patches = append(s.Patches, patch)
	if patch.PaymentMethod != nil {
		o.PaymentMethod = *patch.PaymentMethod
	}
	if patch.Notes != nil {
		o.Notes = patch.Notes
	}
	if patch.EstimatedMinutes != nil {
		o.EstimatedMinutes = patch.EstimatedMinutes
	}
	if patch.Discount != nil {
		o.Discount = *patch.Discount
	}
	if patch.Subtotal != nil {
		o.Subtotal = *patch.Subtotal
	}
	if patch.Total != nil {
		o.Total = *patch.Total
	}
	if patch.CustomerID != nil {
		o.CustomerID = patch.CustomerID
	}
	o.UpdatedAt = time.Now()
	return nil
}

// GetByID returns a copy of the stored order or nil when absent.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, orderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

// FindState returns the current state of an order.
func (s *OrderRepositoryStub) FindState(ctx context.Context, orderID int64) (model.OrderState, bool, error) {
	s.mu.Lock()
	o, ok := s.orders[orderID]
	var state model.OrderState
	if ok {
		state = o.State
	}
	s.mu.Unlock()

	if s.AfterFindState != nil {
		s.AfterFindState()
	}
	return state, ok, nil
}

// List filters and paginates stored orders, newest first.
func (s *OrderRepositoryStub) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Order
	for _, o := range s.orders {
		if filter.State != nil && o.State != *filter.State {
			continue
		}
		if filter.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *filter.CustomerID) {
			continue
		}
		if filter.From != nil && o.PlacedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !o.PlacedAt.Before(*filter.To) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ListKitchen returns preparing then new orders by placement time.
func (s *OrderRepositoryStub) ListKitchen(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Order
	for _, o := range s.orders {
		if o.State == model.OrderStateNew || o.State == model.OrderStatePreparing {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State == model.OrderStatePreparing
		}
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PlacedAt.Before(out[j].PlacedAt)
	})
	return out, nil
}

// TransitionState swaps the state only when it still equals transition.From.
func (s *OrderRepositoryStub) TransitionState(ctx context.Context, transition model.StateTransition) error {
	if s.TransitionStateFn != nil {
		return s.TransitionStateFn(ctx, transition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[transition.OrderID]
	if !ok || o.State != transition.From {
		return domainErrors.ErrStateConflict
	}

	at := transition.At
	o.State = transition.To
	o.PrepStartedAt, o.ReadyAt, o.DeliveredAt, o.CanceledAt = nil, nil, nil, nil
	switch transition.To {
	case model.OrderStatePreparing:
		o.PrepStartedAt = &at
	case model.OrderStateReady:
		o.ReadyAt = &at
	case model.OrderStateDelivered:
		o.DeliveredAt = &at
	case model.OrderStateCanceled:
		o.CanceledAt = &at
	}
	o.UpdatedAt = at

	prev := transition.From
	s.histID++
	s.history[o.ID] = append(s.history[o.ID], model.StateHistoryEntry{
		ID:            s.histID,
		OrderID:       o.ID,
		PreviousState: &prev,
		NewState:      transition.To,
		Reason:        transition.Reason,
		Actor:         transition.Actor,
		ChangedAt:     at,
	})
	s.Transitions = append(s.Transitions, transition)
	return nil
}

// ApplyPricing rewrites item prices and order totals.
func (s *OrderRepositoryStub) ApplyPricing(ctx context.Context, orderID int64, items []model.ItemRepricing, totals model.OrderTotals) error {
	if s.ApplyPricingFn != nil {
		return s.ApplyPricingFn(ctx, orderID, items, totals)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	for _, upd := range items {
		for i := range o.Items {
			if o.Items[i].ID == upd.ItemID {
				o.Items[i].Pricing = upd.Pricing
			}
		}
	}
	o.Subtotal = totals.Subtotal
	o.Total = totals.Total
	return nil
}

// ListHistory returns history entries in insertion order.
func (s *OrderRepositoryStub) ListHistory(ctx context.Context, orderID int64) ([]model.StateHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StateHistoryEntry(nil), s.history[orderID]...), nil
}

// DailySummary aggregates stored orders placed on day.
func (s *OrderRepositoryStub) DailySummary(ctx context.Context, day time.Time) (*model.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := day.AddDate(0, 0, 1)
	summary := &model.DailySummary{Date: day, ByState: make(map[model.OrderState]int), Revenue: decimal.Zero, AverageTicket: decimal.Zero}
	paid := 0
	for _, o := range s.orders {
		if o.PlacedAt.Before(day) || !o.PlacedAt.Before(end) {
			continue
		}
		summary.TotalOrders++
		summary.ByState[o.State]++
		if o.State != model.OrderStateCanceled {
			summary.Revenue = summary.Revenue.Add(o.Total)
			paid++
		}
	}
	if paid > 0 {
		summary.AverageTicket = summary.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}
	return summary, nil
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp
}
