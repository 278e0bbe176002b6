package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderState describes the preparation lifecycle of an order.
type OrderState string

const (
	OrderStateNew       OrderState = "new"
	OrderStatePreparing OrderState = "preparing"
	OrderStateReady     OrderState = "ready"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCanceled  OrderState = "canceled"
)

// OrderStates lists every known state in lifecycle order.
var OrderStates = []OrderState{
	OrderStateNew,
	OrderStatePreparing,
	OrderStateReady,
	OrderStateDelivered,
	OrderStateCanceled,
}

// Valid reports whether s is a known state.
func (s OrderState) Valid() bool {
	for _, known := range OrderStates {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderState) Terminal() bool {
	return s == OrderStateDelivered || s == OrderStateCanceled
}

// PaymentMethod describes how the customer settles the order.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// Order is a customer purchase moving through the preparation lifecycle.
type Order struct {
	ID               int64
	Number           string
	CustomerID       *int64
	Customer         *CustomerSummary
	State            OrderState
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	PaymentMethod    PaymentMethod
	Notes            *string
	EstimatedMinutes *int
	PlacedAt         time.Time
	PrepStartedAt    *time.Time
	ReadyAt          *time.Time
	DeliveredAt      *time.Time
	CanceledAt       *time.Time
	UpdatedAt        time.Time
	Items            []OrderItem
}

// NewOrder carries an already priced order to be persisted atomically.
type NewOrder struct {
	Number           string
	CustomerID       *int64
	PaymentMethod    PaymentMethod
	Notes            *string
	EstimatedMinutes *int
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	Items            []OrderItem
	Actor            string
	PlacedAt         time.Time
}

// OrderPatch lists the mutable order fields. Nil fields are left untouched.
type OrderPatch struct {
	PaymentMethod    *PaymentMethod
	Notes            *string
	EstimatedMinutes *int
	Discount         *decimal.Decimal
	Subtotal         *decimal.Decimal
	Total            *decimal.Decimal
	CustomerID       *int64
}

// Empty reports whether the patch changes nothing.
func (p OrderPatch) Empty() bool {
	return p.PaymentMethod == nil && p.Notes == nil && p.EstimatedMinutes == nil &&
		p.Discount == nil && p.Subtotal == nil && p.Total == nil && p.CustomerID == nil
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	State      *OrderState
	From       *time.Time
	To         *time.Time
	CustomerID *int64
	Limit      int
	Offset     int
}

// StateTransition is a compare-and-swap request to move an order from one state to another.
type StateTransition struct {
	OrderID int64
	From    OrderState
	To      OrderState
	Reason  *string
	Actor   string
	At      time.Time
}
