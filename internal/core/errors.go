// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNoData      = &Error{Code: "NO_DATA", Message: "no price data available"}
	ErrDataGap     = &Error{Code: "DATA_GAP", Message: "price data missing for valuation date"}
	ErrSeriesOrder = &Error{Code: "SERIES_ORDER", Message: "price series dates not strictly increasing"}

	// Provider errors
	ErrProviderFailed = &Error{Code: "PROVIDER_FAILED", Message: "price data provider failed"}

	// Strategy errors
	ErrInvalidState    = &Error{Code: "INVALID_STATE", Message: "execute called before analyze"}
	ErrUnknownStrategy = &Error{Code: "UNKNOWN_STRATEGY", Message: "strategy not registered"}

	// Ledger errors
	ErrInsufficientPosition = &Error{Code: "INSUFFICIENT_POSITION", Message: "sell exceeds held shares"}
	ErrInsufficientFunds    = &Error{Code: "INSUFFICIENT_FUNDS", Message: "buy exceeds available cash"}
	ErrUnknownSide          = &Error{Code: "UNKNOWN_SIDE", Message: "order side not recognized"}

	// Run errors
	ErrRunFailed = &Error{Code: "RUN_FAILED", Message: "simulation run failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
