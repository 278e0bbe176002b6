package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRequest carries inline customer data for a new order.
type CustomerRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address *string `json:"address"`
}

// ItemRequest describes one ordered pizza.
type ItemRequest struct {
	PizzaID       int64    `json:"pizza_id"`
	Quantity      *int     `json:"quantity"`
	Extras        []int64  `json:"extras"`
	Removed       []string `json:"removed_ingredients"`
	HalfAndHalf   bool     `json:"half_and_half"`
	SecondPizzaID *int64   `json:"second_pizza_id"`
	SecondExtras  []int64  `json:"second_extras"`
	SecondRemoved []string `json:"second_removed_ingredients"`
	BothExtras    []int64  `json:"both_extras"`
	BothRemoved   []string `json:"both_removed_ingredients"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	CustomerID       *int64           `json:"customer_id"`
	Customer         *CustomerRequest `json:"customer"`
	Items            []ItemRequest    `json:"items"`
	Discount         *decimal.Decimal `json:"discount"`
	PaymentMethod    string           `json:"payment_method"`
	Notes            *string          `json:"notes"`
	EstimatedMinutes *int             `json:"estimated_minutes"`
}

// UpdateOrderRequest lists the only fields PATCH /api/orders/:id accepts.
type UpdateOrderRequest struct {
	PaymentMethod    *string          `json:"payment_method"`
	Notes            *string          `json:"notes"`
	EstimatedMinutes *int             `json:"estimated_minutes"`
	Discount         *decimal.Decimal `json:"discount"`
	CustomerID       *int64           `json:"customer_id"`
}

// ChangeStateRequest is the body of PATCH /api/orders/:id/state.
type ChangeStateRequest struct {
	State         string  `json:"state"`
	Reason        *string `json:"reason"`
	ExpectedState *string `json:"expected_state"`
}

// CancelRequest is the optional body of POST /api/orders/:id/cancel.
type CancelRequest struct {
	Reason *string `json:"reason"`
}

// CustomerResponse is the customer projection embedded into orders.
type CustomerResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address *string `json:"address,omitempty"`
}

// ExtraResponse is an extra attached to one portion of an item.
type ExtraResponse struct {
	ID    int64            `json:"id"`
	Name  string           `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// ItemResponse is a priced line item.
type ItemResponse struct {
	ID              int64           `json:"id"`
	PizzaID         int64           `json:"pizza_id"`
	PizzaName       string          `json:"pizza_name,omitempty"`
	Quantity        int             `json:"quantity"`
	HalfAndHalf     bool            `json:"half_and_half"`
	SecondPizzaID   *int64          `json:"second_pizza_id,omitempty"`
	SecondPizzaName string          `json:"second_pizza_name,omitempty"`
	Extras          []ExtraResponse `json:"extras"`
	Removed         []string        `json:"removed_ingredients"`
	SecondExtras    []ExtraResponse `json:"second_extras,omitempty"`
	SecondRemoved   []string        `json:"second_removed_ingredients,omitempty"`
	BothExtras      []ExtraResponse `json:"both_extras,omitempty"`
	BothRemoved     []string        `json:"both_removed_ingredients,omitempty"`
	BasePrice       decimal.Decimal `json:"base_price"`
	ExtrasPrice     decimal.Decimal `json:"extras_price"`
	RemovalDiscount decimal.Decimal `json:"removal_discount"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// HistoryResponse is one state-history entry.
type HistoryResponse struct {
	ID            int64     `json:"id"`
	PreviousState *string   `json:"previous_state"`
	State         string    `json:"state"`
	Reason        *string   `json:"reason,omitempty"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changed_at"`
}

// OrderResponse is the full representation of an order.
type OrderResponse struct {
	ID               int64             `json:"id"`
	Number           string            `json:"number"`
	State            string            `json:"state"`
	CustomerID       *int64            `json:"customer_id,omitempty"`
	Customer         *CustomerResponse `json:"customer,omitempty"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Discount         decimal.Decimal   `json:"discount"`
	Total            decimal.Decimal   `json:"total"`
	PaymentMethod    string            `json:"payment_method"`
	Notes            *string           `json:"notes,omitempty"`
	EstimatedMinutes *int              `json:"estimated_minutes,omitempty"`
	PlacedAt         time.Time         `json:"placed_at"`
	PrepStartedAt    *time.Time        `json:"prep_started_at,omitempty"`
	ReadyAt          *time.Time        `json:"ready_at,omitempty"`
	DeliveredAt      *time.Time        `json:"delivered_at,omitempty"`
	CanceledAt       *time.Time        `json:"canceled_at,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Items            []ItemResponse    `json:"items,omitempty"`
	History          []HistoryResponse `json:"history,omitempty"`
}

// StateChangeResponse is returned by state changes and cancellations.
type StateChangeResponse struct {
	PreviousState string        `json:"previous_state"`
	Order         OrderResponse `json:"order"`
}

// SummaryResponse aggregates one business day.
type SummaryResponse struct {
	Date          string          `json:"date"`
	TotalOrders   int             `json:"total_orders"`
	ByState       map[string]int  `json:"by_state"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}
