package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{2200, "USD", "$22.00"},
		{5, "usd", "$0.05"},
		{0, "USD", "$0.00"},
		{-150, "USD", "-$1.50"},
		{123456, "EUR", "€1234.56"},
		{999, "JPY", "9.99 JPY"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.cents, tt.currency))
	}
}

func TestNewAmount(t *testing.T) {
	a := NewAmount(1700, "USD")
	assert.Equal(t, int64(1700), a.Cents)
	assert.Equal(t, "$17.00", a.Formatted)
}
