package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price float64, qty int) Line {
	return Line{UnitPrice: decimal.NewFromFloat(price), Quantity: qty}
}

func TestEffectiveUnitPrice(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	testCases := []struct {
		name     string
		price    float64
		discount float64
		expected float64
	}{
		{name: "No discount", price: 50, discount: 0, expected: 50},
		{name: "Ten percent off", price: 100, discount: 10, expected: 90},
		{name: "Quarter off odd price", price: 19.99, discount: 25, expected: 14.9925},
		{name: "Full discount", price: 80, discount: 100, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.EffectiveUnitPrice(tc.price, tc.discount)
			assert.True(t, got.Equal(decimal.NewFromFloat(tc.expected)),
				"expected %v, got %s", tc.expected, got)
		})
	}
}

func TestItemsTotal(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	total := engine.ItemsTotal([]Line{line(19.99, 3), line(5.50, 2)})
	assert.True(t, total.Equal(decimal.NewFromFloat(70.97)), "got %s", total)

	assert.True(t, engine.ItemsTotal(nil).IsZero())
}

func TestComputeBreakdown(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	testCases := []struct {
		name         string
		lines        []Line
		wantItems    float64
		wantTax      float64
		wantShipping float64
		wantTotal    float64
	}{
		{
			name:         "Above free shipping threshold",
			lines:        []Line{line(60, 2)},
			wantItems:    120,
			wantTax:      12,
			wantShipping: 0,
			wantTotal:    132,
		},
		{
			name:         "Below threshold pays flat shipping",
			lines:        []Line{line(25, 2)},
			wantItems:    50,
			wantTax:      5,
			wantShipping: 10,
			wantTotal:    65,
		},
		{
			name:         "Exactly at threshold still pays shipping",
			lines:        []Line{line(100, 1)},
			wantItems:    100,
			wantTax:      10,
			wantShipping: 10,
			wantTotal:    120,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := engine.ComputeBreakdown(tc.lines)

			assert.True(t, b.ItemsPrice.Equal(decimal.NewFromFloat(tc.wantItems)), "items: got %s", b.ItemsPrice)
			assert.True(t, b.TaxPrice.Equal(decimal.NewFromFloat(tc.wantTax)), "tax: got %s", b.TaxPrice)
			assert.True(t, b.ShippingPrice.Equal(decimal.NewFromFloat(tc.wantShipping)), "shipping: got %s", b.ShippingPrice)
			assert.True(t, b.TotalPrice.Equal(decimal.NewFromFloat(tc.wantTotal)), "total: got %s", b.TotalPrice)
		})
	}
}

func TestComputeBreakdownTotalIdentity(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	b := engine.ComputeBreakdown([]Line{line(19.99, 3), line(7.25, 1), line(42.10, 2)})
	sum := b.ItemsPrice.Add(b.TaxPrice).Add(b.ShippingPrice)
	assert.True(t, b.TotalPrice.Equal(sum), "total %s != items+tax+shipping %s", b.TotalPrice, sum)
}

func TestComputeBreakdownCustomPolicy(t *testing.T) {
	engine := NewEngine(Config{
		TaxRate:               decimal.NewFromFloat(0.20),
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingPrice:     decimal.NewFromInt(5),
	})

	b := engine.ComputeBreakdown([]Line{line(30, 2)})
	assert.True(t, b.TaxPrice.Equal(decimal.NewFromInt(12)), "tax: got %s", b.TaxPrice)
	assert.True(t, b.ShippingPrice.IsZero(), "shipping: got %s", b.ShippingPrice)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(72)), "total: got %s", b.TotalPrice)
}

func TestToCurrency(t *testing.T) {
	assert.Equal(t, 14.99, ToCurrency(decimal.NewFromFloat(14.9925)))
	assert.Equal(t, 15.0, ToCurrency(decimal.NewFromFloat(14.995)))
	assert.Equal(t, 0.0, ToCurrency(decimal.Zero))
}
