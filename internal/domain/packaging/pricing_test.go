package packaging

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartonOfPieces(t *testing.T, masterPrice string) Structure {
	return mustStructure(t,
		LayerInput{Quantity: "1", Unit: "CTN", SellingPrice: dec(masterPrice)},
		in("24", "PCS"),
	)
}

func TestPriceCalculator_CartonScenario(t *testing.T) {
	calc := NewPriceCalculator()
	s := cartonOfPieces(t, "1200")

	changed := calc.AutoCalculate(s)
	assert.Equal(t, []int{1}, changed)

	inner, _ := s.Countable(1)
	assertDecimal(t, "50", inner.SellingPrice)
	assertDecimal(t, "37.5", calc.BuyingPerPiece(s, dec("900")))
	assertDecimal(t, "12.5", calc.ProfitPerPiece(s, 1, dec("900")))
	assertDecimal(t, "300", calc.ProfitPerMaster(s, dec("900")))
}

func TestPriceCalculator_AutoCalculate(t *testing.T) {
	calc := NewPriceCalculator()

	t.Run("derives intermediate and innermost prices", func(t *testing.T) {
		s := mustStructure(t,
			LayerInput{Quantity: "1", Unit: "CTN", SellingPrice: dec("1440")},
			in("12", "BOXES"),
			in("500", "GM"),
			in("10", "PCS"),
		)
		changed := calc.AutoCalculate(s)
		assert.Equal(t, []int{1, 3}, changed)

		box, _ := s.Countable(1)
		piece, _ := s.Countable(3)
		assertDecimal(t, "120", box.SellingPrice)
		assertDecimal(t, "12", piece.SellingPrice)
	})

	t.Run("skips values that are already derived", func(t *testing.T) {
		s := cartonOfPieces(t, "1200")
		require.NotEmpty(t, calc.AutoCalculate(s))
		assert.Empty(t, calc.AutoCalculate(s))
	})

	t.Run("rounds to cents", func(t *testing.T) {
		s := mustStructure(t,
			LayerInput{Quantity: "1", Unit: "CTN", SellingPrice: dec("100")},
			in("3", "PCS"),
		)
		calc.AutoCalculate(s)
		piece, _ := s.Countable(1)
		assertDecimal(t, "33.33", piece.SellingPrice)
	})

	t.Run("no master price is a no-op", func(t *testing.T) {
		s := mustStructure(t, in("1", "CTN"), LayerInput{Quantity: "24", Unit: "PCS", SellingPrice: dec("7")})
		assert.Empty(t, calc.AutoCalculate(s))
		piece, _ := s.Countable(1)
		assertDecimal(t, "7", piece.SellingPrice)
	})

	t.Run("zero master price is a no-op", func(t *testing.T) {
		s := cartonOfPieces(t, "0")
		assert.Empty(t, calc.AutoCalculate(s))
		piece, _ := s.Countable(1)
		assert.Nil(t, piece.SellingPrice)
	})
}

// Rounding each piece price to the cent drifts the re-derived master price by
// at most half a cent per piece.
func TestPriceCalculator_RoundTrip(t *testing.T) {
	calc := NewPriceCalculator()
	tests := []struct {
		price     string
		qty       string
		wantDrift string
	}{
		{"1200", "24", "0"},
		{"100", "3", "0.01"},
		{"999", "3", "0"},
		{"250", "8", "0"},
		{"75.50", "2", "0"},
		{"1000", "7", "0.02"},
		{"1000", "24", "0.08"},
	}
	for _, tt := range tests {
		t.Run(tt.price+"/"+tt.qty, func(t *testing.T) {
			s := cartonOfPieces(t, tt.price)
			s[1].(*CountableLayer).Quantity = ParseQuantity(tt.qty)
			calc.AutoCalculate(s)

			piece, _ := s.Countable(1)
			require.NotNil(t, piece.SellingPrice)
			total := decimal.NewFromInt(s.TotalPiecesPerMaster())
			drift := piece.SellingPrice.Mul(total).Sub(decimal.RequireFromString(tt.price)).Abs()

			assert.True(t, decimal.RequireFromString(tt.wantDrift).Equal(drift), "drift %s", drift)
			assert.True(t, drift.LessThanOrEqual(total.Mul(decimal.RequireFromString("0.005"))),
				"price %s over %s pieces drifted by %s", tt.price, tt.qty, drift)
		})
	}
}

func TestPriceCalculator_ManualMode(t *testing.T) {
	calc := NewPriceCalculator()
	s := mustStructure(t,
		LayerInput{Quantity: "1", Unit: "CTN", SellingPrice: dec("1500")},
		LayerInput{Quantity: "12", Unit: "BOXES", SellingPrice: dec("130")},
		LayerInput{Quantity: "10", Unit: "PCS", SellingPrice: dec("14")},
	)
	buying := dec("1200")

	assertDecimal(t, "10", calc.BuyingPerPiece(s, buying))
	assertDecimal(t, "13", calc.SellingPerPiece(s, 1))
	assertDecimal(t, "14", calc.SellingPerPiece(s, 2))
	assertDecimal(t, "2.5", calc.ProfitPerPiece(s, 0, buying))
	assertDecimal(t, "3", calc.ProfitPerPiece(s, 1, buying))
	assertDecimal(t, "4", calc.ProfitPerPiece(s, 2, buying))
}

func TestPriceCalculator_NullPropagation(t *testing.T) {
	calc := NewPriceCalculator()
	s := cartonOfPieces(t, "1200")
	calc.AutoCalculate(s)

	for _, buying := range []*decimal.Decimal{nil, dec("0")} {
		assert.Nil(t, calc.BuyingPerPiece(s, buying))
		assert.Nil(t, calc.ProfitPerPiece(s, 1, buying))
		assert.Nil(t, calc.ProfitPerMaster(s, buying))
	}

	unpriced := mustStructure(t, in("1", "CTN"), in("24", "PCS"))
	assert.Nil(t, calc.SellingPerPiece(unpriced, 1))
	assert.Nil(t, calc.ProfitPerPiece(unpriced, 1, dec("900")))
	assert.Nil(t, calc.MasterSellingPrice(unpriced))
	assert.Nil(t, calc.ProfitPerMaster(unpriced, dec("900")))
}

func TestPriceCalculator_MasterSellingPriceFallback(t *testing.T) {
	calc := NewPriceCalculator()
	s := mustStructure(t, in("1", "CTN"), LayerInput{Quantity: "24", Unit: "PCS", SellingPrice: dec("55")})

	assertDecimal(t, "1320", calc.MasterSellingPrice(s))
	assertDecimal(t, "420", calc.ProfitPerMaster(s, dec("900")))
}

func TestPriceCalculator_Summarize(t *testing.T) {
	calc := NewPriceCalculator()
	s := mustStructure(t,
		LayerInput{Quantity: "1", Unit: "CTN", SellingPrice: dec("1200")},
		in("24", "PCS"),
		in("250", "ML"),
	)
	calc.AutoCalculate(s)

	p := calc.Summarize(s, dec("900"))
	assert.Equal(t, int64(24), p.TotalPiecesPerMaster)
	assertDecimal(t, "37.5", p.BuyingPerPiece)
	assertDecimal(t, "1200", p.MasterSellingPrice)
	assertDecimal(t, "300", p.ProfitPerMaster)
	require.Len(t, p.Layers, 3)

	assert.Nil(t, p.Layers[0].MaxLoose)
	require.NotNil(t, p.Layers[1].MaxLoose)
	assert.Equal(t, int64(23), *p.Layers[1].MaxLoose)
	assertDecimal(t, "12.5", p.Layers[1].ProfitPerPiece)

	assert.True(t, p.Layers[2].Measurement)
	assert.Nil(t, p.Layers[2].SellingPrice)
	assert.Nil(t, p.Layers[2].ProfitPerPiece)
}
