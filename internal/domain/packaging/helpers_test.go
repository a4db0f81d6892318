package packaging

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stock(v int64) *int64 {
	return &v
}

func in(qty, unit string) LayerInput {
	return LayerInput{Quantity: qty, Unit: unit}
}

func mustStructure(t *testing.T, inputs ...LayerInput) Structure {
	t.Helper()
	s, err := BuildStructure(inputs)
	require.NoError(t, err)
	return s
}

func assertDecimal(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got, "expected %s, got nil", want)
	assert.True(t, decimal.RequireFromString(want).Equal(*got), "expected %s, got %s", want, got.String())
}
