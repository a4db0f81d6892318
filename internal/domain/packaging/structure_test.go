package packaging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStructure(t *testing.T) {
	t.Run("forces master quantity to one", func(t *testing.T) {
		s := mustStructure(t, in("5", "CTN"), in("24", "PCS"))
		master, ok := s.Master()
		require.True(t, ok)
		assert.Equal(t, int64(1), master.Quantity)
	})

	t.Run("rejects empty structure", func(t *testing.T) {
		_, err := BuildStructure(nil)
		assert.ErrorIs(t, err, ErrEmptyStructure)
	})

	t.Run("rejects measurement master", func(t *testing.T) {
		_, err := BuildStructure([]LayerInput{in("1", "KG"), in("10", "PCS")})
		assert.ErrorIs(t, err, ErrMeasurementMaster)
	})

	t.Run("accepts exactly the piece bound", func(t *testing.T) {
		s := mustStructure(t, in("1", "CTN"), in("1000000", "BOXES"), in("1000", "PCS"))
		assert.Equal(t, MaxPiecesPerMaster, s.TotalPiecesPerMaster())
	})

	t.Run("rejects stock whose piece roll-up does not fit", func(t *testing.T) {
		master := in("1", "CTN")
		master.Stock = stock(math.MaxInt64)
		_, err := BuildStructure([]LayerInput{master, in("24", "PCS")})
		assert.ErrorIs(t, err, ErrStockTooLarge)
	})
}

func TestBuildStructure_RejectsPieceCountsThatWouldWrap(t *testing.T) {
	tests := []struct {
		name   string
		layers []LayerInput
	}{
		{"product wraps to zero", []LayerInput{in("1", "CTN"), in("4294967296", "BOXES"), in("4294967296", "PCS")}},
		{"product wraps negative", []LayerInput{in("1", "CTN"), in("3037000500", "BOXES"), in("3037000500", "PCS")}},
		{"one past the bound", []LayerInput{in("1", "CTN"), in("1000000", "BOXES"), in("1001", "PCS")}},
		{"bound crossed below a measurement layer", []LayerInput{in("1", "CTN"), in("100000", "BOXES"), in("500", "ML"), in("100000", "PCS")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildStructure(tt.layers)
			require.ErrorIs(t, err, ErrTooManyPieces)
			assert.ErrorIs(t, err, ErrInvalidLayers(""))
		})
	}
}

func TestStructure_CumulativeQtyUpTo(t *testing.T) {
	s := mustStructure(t, in("1", "CTN"), in("12", "BOXES"), in("6", "PACKS"), in("10", "PCS"))

	tests := []struct {
		name  string
		index int
		want  int64
	}{
		{"master", 0, 720},
		{"boxes", 1, 60},
		{"packs", 2, 10},
		{"innermost", 3, 1},
		{"negative index", -1, 1},
		{"past the end", 9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CumulativeQtyUpTo(tt.index))
		})
	}
}

func TestStructure_AggregationProperty(t *testing.T) {
	quantities := [][]string{
		{"24"},
		{"10", "24"},
		{"4", "6", "12"},
		{"2", "3", "5", "7"},
	}
	for _, qs := range quantities {
		inputs := []LayerInput{in("1", "CTN")}
		product := int64(1)
		for _, q := range qs {
			inputs = append(inputs, in(q, "PACKS"))
			product *= ParseQuantity(q)
		}
		s := mustStructure(t, inputs...)

		assert.Equal(t, product, s.CumulativeQtyUpTo(0))
		assert.Equal(t, int64(1), s.CumulativeQtyUpTo(s.LastIndex()))
	}
}

func TestStructure_MeasurementTransparency(t *testing.T) {
	without := mustStructure(t, in("1", "CTN"), in("12", "JARS"), in("6", "PCS"))

	for pos := 1; pos <= 3; pos++ {
		inputs := []LayerInput{in("1", "CTN"), in("12", "JARS"), in("6", "PCS")}
		inputs = append(inputs[:pos], append([]LayerInput{in("500", "GM")}, inputs[pos:]...)...)
		with := mustStructure(t, inputs...)

		for i := range without {
			j := i
			if i >= pos {
				j = i + 1
			}
			assert.Equal(t, without.CumulativeQtyUpTo(i), with.CumulativeQtyUpTo(j),
				"measurement at %d changed index %d", pos, i)
		}
	}
}

func TestStructure_ZeroAndBlankQuantitiesCountAsOne(t *testing.T) {
	s := mustStructure(t, in("1", "CTN"), in("", "PACKS"), in("0", "PCS"))
	assert.Equal(t, int64(1), s.TotalPiecesPerMaster())
}

func TestStructure_InnermostCountableIndex(t *testing.T) {
	s := mustStructure(t, in("1", "CTN"), in("24", "PCS"), in("500", "ML"))
	assert.Equal(t, 1, s.InnermostCountableIndex())
	assert.True(t, s.IsMeasurement(2))
	assert.False(t, s.IsMeasurement(1))
	assert.False(t, s.IsMeasurement(7))
}

func TestStructure_PieceMultiplier(t *testing.T) {
	s := mustStructure(t, in("1", "BOXES"), in("10", "PACKS"), in("24", "PCS"))
	assert.Equal(t, int64(240), s.PieceMultiplier(0))
	assert.Equal(t, int64(24), s.PieceMultiplier(1))
	assert.Equal(t, int64(1), s.PieceMultiplier(2))
}

func TestStructure_WithStocksDoesNotMutate(t *testing.T) {
	s := mustStructure(t, in("1", "CTN"), in("24", "PCS"))
	copied := s.WithStocks(StockMap{1: 5})

	assert.Equal(t, int64(0), s.Stocks()[1])
	assert.Equal(t, int64(5), copied.Stocks()[1])
}

func TestStructure_InputsRoundTrip(t *testing.T) {
	s := mustStructure(t,
		LayerInput{Quantity: "1", Unit: "CTN", SellingPrice: dec("1200"), Stock: stock(2)},
		in("24", "PCS"),
		in("0.5", "KG"),
	)

	rebuilt := mustStructure(t, s.Inputs()...)
	assert.Equal(t, s.TotalPiecesPerMaster(), rebuilt.TotalPiecesPerMaster())
	assert.Equal(t, s.Stocks(), rebuilt.Stocks())
	assert.Equal(t, s.Prices(), rebuilt.Prices())
	assert.True(t, rebuilt.IsMeasurement(2))
}
