// Package supplier reads packaging hints out of free-text supplier item
// descriptions such as "BISCUITS 12 BOXES X 24 PCS".
package supplier

import (
	"regexp"
	"strings"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PackagingType names the rule that recognized a description.
type PackagingType string

const (
	PackagingTripleNested PackagingType = "triple_nested"
	PackagingDoubleNested PackagingType = "double_nested"
	PackagingSimpleCarton PackagingType = "simple_carton"
	PackagingSingleUnit   PackagingType = "single_unit"
	PackagingBale         PackagingType = "bale"
	PackagingUnknown      PackagingType = "unknown"
)

const priceScale = 2

const (
	times       = `\s*[X×*]\s*`
	integer     = `(\d+)`
	number      = `(\d+(?:\.\d+)?)`
	sizeUnits   = `(GMS|GM|G|KGS|KG|ML|LTRS|LTR|L|PCS)`
	outerUnits  = `(BOXES|TRAYS|JARS|BALES|PKTS|PACKS|OUTERS)`
	innerUnits  = `(PCS|PIECES|POUCHES|SACHETS|PACKETS)`
	containers  = `(?:BAG|BOTTLE|TIN|JAR|PKT|PACKET|TUB|CAN|BOX|SACK|JERRYCAN)S?`
	anyUnitWord = `([A-Z]+)`
)

var (
	triplePattern = regexp.MustCompile(`(?i)\b` + integer + `\s*` + anyUnitWord + times + integer + `\s*` + anyUnitWord + times + integer + `\s*` + anyUnitWord + `\b`)
	doublePattern = regexp.MustCompile(`(?i)\b` + integer + `\s*` + outerUnits + times + integer + `\s*` + innerUnits + `\b`)
	cartonPattern = regexp.MustCompile(`(?i)\b` + integer + times + number + `\s*` + sizeUnits + `\b`)
	singlePattern = regexp.MustCompile(`(?i)\b1` + times + number + `\s*` + sizeUnits + `\b(?:\s*` + containers + `\b)?`)
	balePattern   = regexp.MustCompile(`(?i)\b` + integer + `\s*BALES?` + times + number + `\s*KGS?\b`)

	trailingParen = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	spaces        = regexp.MustCompile(`\s+`)
)

// ParsedLayer is one layer guessed from a description.
type ParsedLayer struct {
	Quantity decimal.Decimal
	Unit     string
}

// ParseResult is the advisory outcome of parsing a description. Layers never
// include the supplier (master) unit itself.
type ParseResult struct {
	CleanName                 string
	PackagingType             PackagingType
	SupplierUnit              string
	Layers                    []ParsedLayer
	TotalSellableUnits        int64
	CalculatedPricePerPiece   decimal.Decimal
	CalculatedPricePerSubUnit *decimal.Decimal
	CartonPrice               decimal.Decimal
}

// Recognized reports whether any rule matched.
func (r ParseResult) Recognized() bool {
	return r.PackagingType != PackagingUnknown
}

// ToLayerInputs returns the layers as packaging inputs headed by one supplier
// unit. When the first parsed layer already is a single countable unit it
// serves as the master.
func (r ParseResult) ToLayerInputs() []packaging.LayerInput {
	inputs := make([]packaging.LayerInput, 0, len(r.Layers)+1)
	if len(r.Layers) == 0 || !isSingleCountable(r.Layers[0]) {
		inputs = append(inputs, packaging.LayerInput{Quantity: "1", Unit: r.SupplierUnit})
	}
	for _, l := range r.Layers {
		inputs = append(inputs, packaging.LayerInput{Quantity: l.Quantity.String(), Unit: l.Unit})
	}
	return inputs
}

func isSingleCountable(l ParsedLayer) bool {
	return !valueobject.IsMeasurementUnit(l.Unit) && l.Quantity.Equal(decimal.NewFromInt(1))
}

// Parser applies an ordered list of rules to a description. The first rule
// that matches wins; unmatched input yields a single-piece fallback.
type Parser struct {
	rules []rule
}

type rule struct {
	packagingType PackagingType
	pattern       *regexp.Regexp
	build         func(m []string, price decimal.Decimal) (result ParseResult, ok bool)
}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{rules: []rule{
		{PackagingTripleNested, triplePattern, buildTriple},
		{PackagingDoubleNested, doublePattern, buildDouble},
		{PackagingSimpleCarton, cartonPattern, buildCarton},
		{PackagingSingleUnit, singlePattern, buildSingle},
		{PackagingBale, balePattern, buildBale},
	}}
}

// Parse extracts a packaging guess from description. It never fails.
func (p *Parser) Parse(description string, cartonPrice decimal.Decimal) ParseResult {
	text := strings.TrimSpace(description)
	for _, r := range p.rules {
		for _, loc := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			m := submatches(text, loc)
			result, ok := r.build(m, cartonPrice)
			if !ok {
				continue
			}
			result.PackagingType = r.packagingType
			result.CartonPrice = cartonPrice.Round(priceScale)
			result.CleanName = cleanName(text[:loc[0]] + " " + text[loc[1]:])
			return result
		}
	}
	return ParseResult{
		CleanName:               cleanName(text),
		PackagingType:           PackagingUnknown,
		SupplierUnit:            valueobject.UnitCodePCS,
		Layers:                  []ParsedLayer{{Quantity: decimal.NewFromInt(1), Unit: valueobject.UnitCodePCS}},
		TotalSellableUnits:      1,
		CalculatedPricePerPiece: cartonPrice.Round(priceScale),
		CartonPrice:             cartonPrice.Round(priceScale),
	}
}

func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func buildTriple(m []string, price decimal.Decimal) (ParseResult, bool) {
	a, b, c := atoi(m[1]), atoi(m[3]), atoi(m[5])
	if a == 0 || b == 0 || c == 0 {
		return ParseResult{}, false
	}
	total := a * b * c
	return ParseResult{
		SupplierUnit: valueobject.UnitCodeCTN,
		Layers: []ParsedLayer{
			layer(m[1], m[2]),
			layer(m[3], m[4]),
			layer(m[5], m[6]),
		},
		TotalSellableUnits:        total,
		CalculatedPricePerPiece:   divide(price, total),
		CalculatedPricePerSubUnit: ptr(divide(price, a)),
	}, true
}

func buildDouble(m []string, price decimal.Decimal) (ParseResult, bool) {
	a, b := atoi(m[1]), atoi(m[3])
	if a == 0 || b == 0 {
		return ParseResult{}, false
	}
	total := a * b
	return ParseResult{
		SupplierUnit:              valueobject.UnitCodeCTN,
		Layers:                    []ParsedLayer{layer(m[1], m[2]), layer(m[3], m[4])},
		TotalSellableUnits:        total,
		CalculatedPricePerPiece:   divide(price, total),
		CalculatedPricePerSubUnit: ptr(divide(price, a)),
	}, true
}

// buildCarton handles "N x SIZE UNIT". A measurement size describes each of
// the N pieces; a PCS size makes the N units packets of SIZE pieces.
func buildCarton(m []string, price decimal.Decimal) (ParseResult, bool) {
	n := atoi(m[1])
	if n < 2 {
		return ParseResult{}, false
	}
	unit := strings.ToUpper(m[3])

	if unit != valueobject.UnitCodePCS {
		return ParseResult{
			SupplierUnit: valueobject.UnitCodeCTN,
			Layers: []ParsedLayer{
				{Quantity: decimal.NewFromInt(n), Unit: valueobject.UnitCodePCS},
				layer(m[2], unit),
			},
			TotalSellableUnits:      n,
			CalculatedPricePerPiece: divide(price, n),
		}, true
	}

	size := atoi(m[2])
	if size == 0 {
		return ParseResult{}, false
	}
	total := n * size
	return ParseResult{
		SupplierUnit: valueobject.UnitCodeCTN,
		Layers: []ParsedLayer{
			{Quantity: decimal.NewFromInt(n), Unit: "PKTS"},
			{Quantity: decimal.NewFromInt(size), Unit: valueobject.UnitCodePCS},
		},
		TotalSellableUnits:        total,
		CalculatedPricePerPiece:   divide(price, total),
		CalculatedPricePerSubUnit: ptr(divide(price, n)),
	}, true
}

func buildSingle(m []string, price decimal.Decimal) (ParseResult, bool) {
	return ParseResult{
		SupplierUnit:            valueobject.UnitCodeUNIT,
		Layers:                  []ParsedLayer{layer(m[1], m[2])},
		TotalSellableUnits:      1,
		CalculatedPricePerPiece: price.Round(priceScale),
	}, true
}

func buildBale(m []string, price decimal.Decimal) (ParseResult, bool) {
	n := atoi(m[1])
	if n == 0 {
		return ParseResult{}, false
	}
	return ParseResult{
		SupplierUnit: valueobject.UnitCodeBALE,
		Layers: []ParsedLayer{
			{Quantity: decimal.NewFromInt(n), Unit: valueobject.UnitCodePCS},
			layer(m[2], valueobject.UnitCodeKG),
		},
		TotalSellableUnits:      n,
		CalculatedPricePerPiece: divide(price, n),
	}, true
}

func layer(qty, unit string) ParsedLayer {
	return ParsedLayer{
		Quantity: packaging.ParseMeasure(qty),
		Unit:     valueobject.NormalizeUnitLabel(unit),
	}
}

// atoi returns 0 for anything that is not a positive integer.
func atoi(s string) int64 {
	if strings.TrimSpace(s) == "" || strings.TrimLeft(s, "0") == "" {
		return 0
	}
	return packaging.ParseQuantity(s)
}

func divide(price decimal.Decimal, by int64) decimal.Decimal {
	if by <= 0 {
		by = 1
	}
	return price.Div(decimal.NewFromInt(by)).Round(priceScale)
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func cleanName(s string) string {
	s = trailingParen.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " -")
}
