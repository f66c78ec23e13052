package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validShipping() Shipping {
	return Shipping{
		FullName: "Ahmed Mostafa",
		Phone:    "0100 123 4567",
		Address:  "12 El-Nasr Street",
		City:     "Mansoura",
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"01001234567", "01001234567"},
		{"0100 123 4567", "01001234567"},
		{"010-0123-4567", "01001234567"},
		{"+20 100 123 4567", "01001234567"},
		{"(0100) 123.4567", "01001234567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNewDraft_ComputesSummary(t *testing.T) {
	items := []CartItem{
		{ID: "feed-25", Name: "Poultry feed", Price: decimal.RequireFromString("50"), Quantity: 2},
		{ID: "ivermectin", Name: "Ivermectin 50ml", Price: decimal.RequireFromString("19.99"), Quantity: 1},
	}

	d, err := NewDraft(items, validShipping(), 5000)
	require.NoError(t, err)

	assert.Equal(t, int64(11999), d.Summary.SubtotalMinor)
	assert.Equal(t, int64(5000), d.Summary.ShippingMinor)
	assert.Equal(t, int64(16999), d.Summary.TotalMinor)
	assert.Equal(t, "01001234567", d.Shipping.Phone)
}

func TestNewDraft_EmptyCart(t *testing.T) {
	_, err := NewDraft(nil, validShipping(), 5000)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestNewDraft_RejectsBadShipping(t *testing.T) {
	items := []CartItem{{ID: "feed-25", Name: "Poultry feed", Price: decimal.RequireFromString("50"), Quantity: 1}}

	tests := []struct {
		name     string
		mutate   func(*Shipping)
	}{
		{"missing name", func(s *Shipping) { s.FullName = "" }},
		{"short phone", func(s *Shipping) { s.Phone = "0100123" }},
		{"landline prefix", func(s *Shipping) { s.Phone = "02123456789" }},
		{"missing address", func(s *Shipping) { s.Address = "" }},
		{"missing city", func(s *Shipping) { s.City = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shipping := validShipping()
			tt.mutate(&shipping)
			_, err := NewDraft(items, shipping, 5000)
			assert.ErrorIs(t, err, ErrInvalidDraft)
		})
	}
}

func TestNewDraft_RejectsNegativePrice(t *testing.T) {
	items := []CartItem{{ID: "feed-25", Name: "Poultry feed", Price: decimal.RequireFromString("-5"), Quantity: 1}}

	_, err := NewDraft(items, validShipping(), 5000)
	assert.ErrorIs(t, err, ErrInvalidDraft)
}

func TestNewDraft_RejectsZeroQuantity(t *testing.T) {
	items := []CartItem{{ID: "feed-25", Name: "Poultry feed", Price: decimal.RequireFromString("5"), Quantity: 0}}

	_, err := NewDraft(items, validShipping(), 5000)
	assert.ErrorIs(t, err, ErrInvalidDraft)
}
