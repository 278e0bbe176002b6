package model

import "github.com/shopspring/decimal"

// Portion identifies which part of a pizza an adjustment applies to.
type Portion string

const (
	PortionWhole  Portion = "whole"
	PortionFirst  Portion = "first"
	PortionSecond Portion = "second"
	PortionBoth   Portion = "both"
)

// ItemSpec is the raw configuration of one ordered pizza.
//
// For a whole pizza only PizzaID, Extras and Removed are used. For a
// half-and-half pizza Extras/Removed belong to the first half, the Second*
// fields to the second half and the Both* fields to the whole pizza.
type ItemSpec struct {
	PizzaID       int64
	Quantity      int
	Extras        []int64
	Removed       []string
	HalfAndHalf   bool
	SecondPizzaID *int64
	SecondExtras  []int64
	SecondRemoved []string
	BothExtras    []int64
	BothRemoved   []string
}

// ExtraIDs returns every extra id referenced by the spec, in portion order.
func (s ItemSpec) ExtraIDs() []int64 {
	ids := make([]int64, 0, len(s.Extras)+len(s.SecondExtras)+len(s.BothExtras))
	ids = append(ids, s.Extras...)
	ids = append(ids, s.SecondExtras...)
	ids = append(ids, s.BothExtras...)
	return ids
}

// PizzaIDs returns the pizza ids referenced by the spec.
func (s ItemSpec) PizzaIDs() []int64 {
	ids := []int64{s.PizzaID}
	if s.SecondPizzaID != nil {
		ids = append(ids, *s.SecondPizzaID)
	}
	return ids
}

// ItemPricing holds the derived price fields of a line item.
type ItemPricing struct {
	BasePrice       decimal.Decimal
	ExtrasPrice     decimal.Decimal
	RemovalDiscount decimal.Decimal
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
}

// OrderItem is one priced line of an order.
type OrderItem struct {
	ID      int64
	OrderID int64
	Spec    ItemSpec
	Pricing ItemPricing

	// Catalog projections resolved on read.
	Pizza        *Pizza
	SecondPizza  *Pizza
	ExtraDetails map[int64]Extra
}

// ItemRepricing pairs a persisted line item with freshly computed prices.
type ItemRepricing struct {
	ItemID  int64
	Pricing ItemPricing
}

// OrderTotals are the order-level amounts produced by pricing.
type OrderTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}
