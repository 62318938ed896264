package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []line
		subtotal int64
		fee      int64
		total    int64
	}{
		{
			name: "two products",
			lines: []line{
				{ProductID: "p1", Quantity: 2, PriceCents: 1000},
				{ProductID: "p2", Quantity: 3, PriceCents: 500},
			},
			subtotal: 3500,
			fee:      525,
			total:    4025,
		},
		{
			name:     "half cent rounds to even up",
			lines:    []line{{ProductID: "p1", Quantity: 1, PriceCents: 10}},
			subtotal: 10,
			fee:      2, // 1.5 cents, half-even -> 2
			total:    12,
		},
		{
			name:     "half cent rounds to even down",
			lines:    []line{{ProductID: "p1", Quantity: 1, PriceCents: 30}},
			subtotal: 30,
			fee:      4, // 4.5 cents, half-even -> 4
			total:    34,
		},
		{
			name:     "zero price line",
			lines:    []line{{ProductID: "p1", Quantity: 5, PriceCents: 0}},
			subtotal: 0,
			fee:      0,
			total:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTotals(tt.lines)
			assert.Equal(t, tt.subtotal, got.SubtotalCents)
			assert.Equal(t, tt.fee, got.FeeCents)
			assert.Equal(t, tt.total, got.TotalCents)
		})
	}
}

func TestDollarsCents(t *testing.T) {
	assert.Equal(t, 40.25, Dollars(4025))
	assert.Equal(t, 0.0, Dollars(0))
	assert.Equal(t, int64(1999), Cents(19.99))
	assert.Equal(t, int64(1000), Cents(10))
}
