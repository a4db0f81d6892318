package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeTenantRequired is used when no valid tenant header was sent
	ErrCodeTenantRequired = "ERR_TENANT_REQUIRED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeAlreadyProcessed is used when an idempotency key was seen before
	ErrCodeAlreadyProcessed = "ERR_ALREADY_PROCESSED"
)

// Packaging error codes
const (
	ErrCodeInvalidLayers     = "ERR_INVALID_LAYERS"
	ErrCodeInvalidLayerIndex = "ERR_INVALID_LAYER_INDEX"
	ErrCodeInvalidPrice      = "ERR_INVALID_PRICE"
	ErrCodeInvalidStock      = "ERR_INVALID_STOCK"
	ErrCodeInvalidName       = "ERR_INVALID_NAME"
	ErrCodeInvalidPolicy     = "ERR_INVALID_STOCK_POLICY"
	// ErrCodeStockOutOfRange is used when the reject policy refuses a loose count
	ErrCodeStockOutOfRange = "ERR_STOCK_OUT_OF_RANGE"
	// ErrCodeMeasurementLayer is used when a price or stock targets a measurement layer
	ErrCodeMeasurementLayer = "ERR_MEASUREMENT_LAYER"
	ErrCodeInvalidState     = "ERR_INVALID_STATE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTenantRequired:  http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeAlreadyProcessed:    http.StatusConflict,

	// Malformed packaging input -> 400 Bad Request
	ErrCodeInvalidLayers:     http.StatusBadRequest,
	ErrCodeInvalidLayerIndex: http.StatusBadRequest,
	ErrCodeInvalidPrice:      http.StatusBadRequest,
	ErrCodeInvalidStock:      http.StatusBadRequest,
	ErrCodeInvalidName:       http.StatusBadRequest,
	ErrCodeInvalidPolicy:     http.StatusBadRequest,

	// Packaging rule violations -> 422 Unprocessable Entity
	ErrCodeStockOutOfRange:  http.StatusUnprocessableEntity,
	ErrCodeMeasurementLayer: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"ALREADY_PROCESSED":    ErrCodeAlreadyProcessed,
	"INVALID_LAYERS":       ErrCodeInvalidLayers,
	"INVALID_LAYER_INDEX":  ErrCodeInvalidLayerIndex,
	"INVALID_PRICE":        ErrCodeInvalidPrice,
	"INVALID_STOCK":        ErrCodeInvalidStock,
	"INVALID_NAME":         ErrCodeInvalidName,
	"INVALID_STOCK_POLICY": ErrCodeInvalidPolicy,
	"STOCK_OUT_OF_RANGE":   ErrCodeStockOutOfRange,
	"MEASUREMENT_LAYER":    ErrCodeMeasurementLayer,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
