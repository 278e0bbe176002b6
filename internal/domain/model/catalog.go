package model

import "github.com/shopspring/decimal"

// Pizza is a read-only catalog recipe.
type Pizza struct {
	ID          int64
	Name        string
	BasePrice   decimal.Decimal
	Ingredients []string
}

// Extra is a read-only catalog add-on.
type Extra struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Category string
}
