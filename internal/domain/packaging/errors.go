package packaging

import "github.com/goodsdist/backend/internal/domain/shared"

// Error codes raised by the packaging model
const (
	CodeInvalidLayers     = "INVALID_LAYERS"
	CodeInvalidLayerIndex = "INVALID_LAYER_INDEX"
	CodeInvalidPrice      = "INVALID_PRICE"
	CodeInvalidStock      = "INVALID_STOCK"
	CodeStockOutOfRange   = "STOCK_OUT_OF_RANGE"
	CodeInvalidName       = "INVALID_NAME"
	CodeInvalidPolicy     = "INVALID_STOCK_POLICY"
	CodeMeasurementLayer  = "MEASUREMENT_LAYER"
)

func ErrInvalidLayers(msg string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidLayers, msg)
}

func ErrInvalidPrice(msg string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidPrice, msg)
}

func ErrInvalidStock(msg string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidStock, msg)
}

var (
	ErrLayerIndexOutOfRange = shared.NewDomainError(CodeInvalidLayerIndex, "Layer index is out of range")
	ErrMeasurementLayer     = shared.NewDomainError(CodeMeasurementLayer, "Measurement layers carry no price or stock")
	ErrEmptyStructure       = shared.NewDomainError(CodeInvalidLayers, "Packaging structure must have at least one layer")
	ErrMeasurementMaster    = shared.NewDomainError(CodeInvalidLayers, "Outermost layer must be a countable unit")
	ErrStockOutOfRange      = shared.NewDomainError(CodeStockOutOfRange, "Loose stock must be below the layer quantity")
	ErrTooManyPieces        = shared.NewDomainError(CodeInvalidLayers, "Packaging structure holds too many pieces per master unit")
	ErrStockTooLarge        = shared.NewDomainError(CodeInvalidStock, "Stock exceeds the largest countable number of pieces")
)

func newError(code, msg string) *shared.DomainError {
	return shared.NewDomainError(code, msg)
}
