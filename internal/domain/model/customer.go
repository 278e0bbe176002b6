package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the person an order is placed for.
type Customer struct {
	ID          int64
	Name        string
	Phone       string
	Address     *string
	TotalOrders int
	TotalSpent  decimal.Decimal
	CreatedAt   time.Time
}

// CustomerSummary is the customer projection embedded into orders.
type CustomerSummary struct {
	ID      int64
	Name    string
	Phone   string
	Address *string
}

// NewCustomer holds inline customer data supplied with an order.
type NewCustomer struct {
	Name    string
	Phone   string
	Address *string
}
