// Package pricing computes effective unit prices and order breakdowns.
// All arithmetic runs at full decimal precision; amounts are rounded to
// currency precision only when leaving the engine.
package pricing

import "github.com/shopspring/decimal"

type Config struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingPrice     decimal.Decimal
}

// DefaultConfig returns the stock policy: 10% tax, free shipping over $100,
// $10 flat shipping otherwise.
func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.NewFromFloat(0.10),
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingPrice:     decimal.NewFromInt(10),
	}
}

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Breakdown struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// EffectiveUnitPrice applies the discount percentage to the listed price:
// price * (1 - discount/100).
func (e *Engine) EffectiveUnitPrice(price, discountPercent float64) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	d := decimal.NewFromFloat(discountPercent)
	factor := decimal.NewFromInt(1).Sub(d.Div(decimal.NewFromInt(100)))
	return p.Mul(factor)
}

// ItemsTotal sums unit price times quantity across lines.
func (e *Engine) ItemsTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ComputeBreakdown derives tax, shipping and grand total from the line set.
// Shipping is free strictly above the threshold, flat otherwise.
func (e *Engine) ComputeBreakdown(lines []Line) Breakdown {
	itemsPrice := e.ItemsTotal(lines)

	taxPrice := itemsPrice.Mul(e.cfg.TaxRate)

	shippingPrice := e.cfg.FlatShippingPrice
	if itemsPrice.GreaterThan(e.cfg.FreeShippingThreshold) {
		shippingPrice = decimal.Zero
	}

	return Breakdown{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice.Add(taxPrice).Add(shippingPrice),
	}
}

// ToCurrency rounds an amount to two decimal places for persistence and
// presentation.
func ToCurrency(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
