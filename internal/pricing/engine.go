// Package pricing turns item specifications into priced line items and
// aggregates them into order totals.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// DefaultRemovalDiscount is the discount granted per removed ingredient.
var DefaultRemovalDiscount = decimal.NewFromInt(50)

var two = decimal.NewFromInt(2)

// moneyPlaces is the scale of every persisted amount.
const moneyPlaces = 2

// AdjustmentKind distinguishes added extras from removed ingredients.
type AdjustmentKind string

const (
	AdjustmentExtra   AdjustmentKind = "extra"
	AdjustmentRemoval AdjustmentKind = "removal"
)

// Adjustment is one line of a human-readable price breakdown.
type Adjustment struct {
	Kind    AdjustmentKind
	Portion model.Portion
	Name    string
	ExtraID int64
	Amount  decimal.Decimal
}

// PricedItem is the outcome of pricing a single requested item.
type PricedItem struct {
	Spec      model.ItemSpec
	Pricing   model.ItemPricing
	Breakdown []Adjustment
}

// Catalog is the resolved catalog data needed to price a set of items.
type Catalog struct {
	Pizzas map[int64]model.Pizza
	Extras map[int64]model.Extra
}

// Engine prices order items.
type Engine struct {
	removalDiscount decimal.Decimal
}

// NewEngine constructs Engine with the given per-ingredient removal discount.
func NewEngine(removalDiscount decimal.Decimal) *Engine {
	if removalDiscount.IsNegative() {
		removalDiscount = decimal.Zero
	}
	return &Engine{removalDiscount: removalDiscount}
}

// RemovalDiscount returns the per-ingredient discount applied by the engine.
func (e *Engine) RemovalDiscount() decimal.Decimal {
	return e.removalDiscount
}

// PriceItem computes base, extras, removal discount, unit price and line total.
func (e *Engine) PriceItem(spec model.ItemSpec, catalog Catalog) (PricedItem, error) {
	first, ok := catalog.Pizzas[spec.PizzaID]
	if !ok {
		return PricedItem{}, fmt.Errorf("%w: unknown pizza %d", domainErrors.ErrCatalogIntegrity, spec.PizzaID)
	}

	base := first.BasePrice
	if spec.HalfAndHalf {
		if spec.SecondPizzaID == nil {
			return PricedItem{}, fmt.Errorf("%w: half-and-half item requires a second pizza", domainErrors.ErrValidation)
		}
		second, ok := catalog.Pizzas[*spec.SecondPizzaID]
		if !ok {
			return PricedItem{}, fmt.Errorf("%w: unknown pizza %d", domainErrors.ErrCatalogIntegrity, *spec.SecondPizzaID)
		}
		base = first.BasePrice.Add(second.BasePrice).Div(two).Round(moneyPlaces)
	}

	var breakdown []Adjustment
	extras := decimal.Zero

	addExtras := func(portion model.Portion, ids []int64) error {
		for _, id := range ids {
			extra, ok := catalog.Extras[id]
			if !ok {
				return fmt.Errorf("%w: unknown extra %d", domainErrors.ErrCatalogIntegrity, id)
			}
			extras = extras.Add(extra.Price)
			breakdown = append(breakdown, Adjustment{
				Kind:    AdjustmentExtra,
				Portion: portion,
				Name:    extra.Name,
				ExtraID: extra.ID,
				Amount:  extra.Price,
			})
		}
		return nil
	}

	removed := 0
	addRemovals := func(portion model.Portion, names []string) {
		for _, name := range names {
			removed++
			breakdown = append(breakdown, Adjustment{
				Kind:    AdjustmentRemoval,
				Portion: portion,
				Name:    name,
				Amount:  e.removalDiscount.Neg(),
			})
		}
	}

	if spec.HalfAndHalf {
		if err := addExtras(model.PortionFirst, spec.Extras); err != nil {
			return PricedItem{}, err
		}
		if err := addExtras(model.PortionSecond, spec.SecondExtras); err != nil {
			return PricedItem{}, err
		}
		if err := addExtras(model.PortionBoth, spec.BothExtras); err != nil {
			return PricedItem{}, err
		}
		addRemovals(model.PortionFirst, spec.Removed)
		addRemovals(model.PortionSecond, spec.SecondRemoved)
		addRemovals(model.PortionBoth, spec.BothRemoved)
	} else {
		if err := addExtras(model.PortionWhole, spec.Extras); err != nil {
			return PricedItem{}, err
		}
		addRemovals(model.PortionWhole, spec.Removed)
	}

	removal := e.removalDiscount.Mul(decimal.NewFromInt(int64(removed)))

	unit := base.Add(extras).Sub(removal).Round(moneyPlaces)
	if unit.IsNegative() {
		unit = decimal.Zero
	}

	quantity := spec.Quantity
	if quantity < 1 {
		quantity = 1
	}

	return PricedItem{
		Spec: spec,
		Pricing: model.ItemPricing{
			BasePrice:       base,
			ExtrasPrice:     extras,
			RemovalDiscount: removal,
			UnitPrice:       unit,
			LineTotal:       unit.Mul(decimal.NewFromInt(int64(quantity))),
		},
		Breakdown: breakdown,
	}, nil
}

// PriceItems prices every spec, aborting on the first failure.
func (e *Engine) PriceItems(specs []model.ItemSpec, catalog Catalog) ([]PricedItem, error) {
	priced := make([]PricedItem, 0, len(specs))
	for i, spec := range specs {
		item, err := e.PriceItem(spec, catalog)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		priced = append(priced, item)
	}
	return priced, nil
}

// PriceOrder aggregates priced items and a discount into order totals.
func PriceOrder(items []PricedItem, discount decimal.Decimal) model.OrderTotals {
	lines := make([]decimal.Decimal, len(items))
	for i, item := range items {
		lines[i] = item.Pricing.LineTotal
	}
	return Aggregate(lines, discount)
}

// Aggregate sums line totals and subtracts the discount. The total never goes
// below zero.
func Aggregate(lineTotals []decimal.Decimal, discount decimal.Decimal) model.OrderTotals {
	subtotal := decimal.Zero
	for _, line := range lineTotals {
		subtotal = subtotal.Add(line)
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return model.OrderTotals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
	}
}
