package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary aggregates orders placed on one calendar day.
type DailySummary struct {
	Date          time.Time
	TotalOrders   int
	ByState       map[OrderState]int
	Revenue       decimal.Decimal
	AverageTicket decimal.Decimal
}
