package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeLockNotAcquired is used when a reconciliation lock is already held
	ErrCodeLockNotAcquired = "ERR_LOCK_NOT_ACQUIRED"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeAmountMismatch is used when a payment amount cannot be reconciled
	ErrCodeAmountMismatch = "ERR_AMOUNT_MISMATCH"
	// ErrCodeInvalidTarget is used when an overflow target invoice is unusable
	ErrCodeInvalidTarget = "ERR_INVALID_TARGET"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeLockNotAcquired:     http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:   http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:   http.StatusUnprocessableEntity,
	ErrCodeAmountMismatch: http.StatusUnprocessableEntity,
	ErrCodeInvalidTarget:  http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to transport-level codes.
// Domain errors carry business-oriented codes; the API surface groups them
// into a smaller, stable vocabulary.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"OPTIMISTIC_LOCK_ERROR":  ErrCodeConcurrencyConflict,
	"LOCK_NOT_ACQUIRED":      ErrCodeLockNotAcquired,
	"INVALID_AMOUNT":         ErrCodeAmountMismatch,
	"INVALID_AMOUNT_TYPE":    ErrCodeAmountMismatch,
	"AMOUNT_TYPE_REQUIRED":   ErrCodeAmountMismatch,
	"EXCEEDS_OUTSTANDING":    ErrCodeAmountMismatch,
	"INVALID_TARGET":         ErrCodeInvalidTarget,
	"COMPANY_MISMATCH":       ErrCodeBusinessRule,
	"DUPLICATE_PRODUCT":      ErrCodeBusinessRule,
	"INVALID_INVOICE":        ErrCodeBusinessRule,
	"INVALID_COMPANY":        ErrCodeInvalidInput,
	"INVALID_NAME":           ErrCodeInvalidInput,
	"INVALID_BASE_PRICE":     ErrCodeInvalidInput,
	"INVALID_COMMISSION":     ErrCodeInvalidInput,
	"INVALID_GST":            ErrCodeInvalidInput,
	"INVALID_INVOICE_NUMBER": ErrCodeInvalidInput,
	"INVALID_LINE_ITEMS":     ErrCodeInvalidInput,
	"INVALID_TOTALS":         ErrCodeInvalidInput,
	"INVALID_ISSUE_MODE":     ErrCodeInvalidInput,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the transport format.
// If the code is already in the transport format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
