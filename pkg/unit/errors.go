package unit

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an error independently of its message.
type ErrorCode string

// Common codes (000-099)
const (
	ErrCodeUnknown          ErrorCode = "00001"
	ErrCodeInvalidRequest   ErrorCode = "00002"
	ErrCodeNotFound         ErrorCode = "00004"
	ErrCodeAlreadyExists    ErrorCode = "00005"
	ErrCodeTimeout          ErrorCode = "00006"
	ErrCodeRateLimited      ErrorCode = "00007"
	ErrCodeInternalError    ErrorCode = "00008"
	ErrCodeInvalidInput     ErrorCode = "00009"
	ErrCodeValidationFailed ErrorCode = "00010"
)

// Model catalog (100-199)
const (
	ErrCodeModelNotFound      ErrorCode = "00100"
	ErrCodeModelAlreadyExists ErrorCode = "00101"
	ErrCodeVersionNotFound    ErrorCode = "00102"
	ErrCodeVersionExists      ErrorCode = "00103"
)

// Benchmarks (200-299)
const (
	ErrCodeBenchmarkNotFound ErrorCode = "00200"
	ErrCodeBenchmarkInvalid  ErrorCode = "00201"
)

// Hardware (300-399)
const (
	ErrCodeInvalidQuantization ErrorCode = "00300"
	ErrCodeGPUTypeNotFound     ErrorCode = "00301"
)

// Ranking (400-499)
const (
	ErrCodeInvalidWeights  ErrorCode = "00400"
	ErrCodeInvalidCriteria ErrorCode = "00401"
	ErrCodeInvalidMatrix   ErrorCode = "00402"
)

// Recommendation (500-599)
const (
	ErrCodeRecommendInvalidRequest ErrorCode = "00500"
)

// UnitError is the error type returned by every unit.
type UnitError struct {
	Code    ErrorCode
	Domain  string
	Message string
	Details map[string]any
	Cause   error
}

func (e *UnitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *UnitError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of e carrying an extra detail. Package-level
// sentinel errors are shared, so they are never mutated in place.
func (e *UnitError) WithDetails(key string, value any) *UnitError {
	c := e.clone()
	c.Details[key] = value
	return c
}

// WithCause returns a copy of e wrapping err.
func (e *UnitError) WithCause(err error) *UnitError {
	c := e.clone()
	c.Cause = err
	return c
}

// Is matches on code, so a copy made by WithDetails still satisfies
// errors.Is against the sentinel it came from.
func (e *UnitError) Is(target error) bool {
	t, ok := target.(*UnitError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *UnitError) clone() *UnitError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	return &UnitError{
		Code:    e.Code,
		Domain:  e.Domain,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

func NewError(code ErrorCode, message string) *UnitError {
	return &UnitError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

func NewDomainError(domain string, code ErrorCode, message string) *UnitError {
	return &UnitError{
		Code:    code,
		Domain:  domain,
		Message: message,
		Details: make(map[string]any),
	}
}

func WrapError(err error, code ErrorCode, message string) *UnitError {
	return &UnitError{
		Code:    code,
		Message: message,
		Cause:   err,
		Details: make(map[string]any),
	}
}

func AsUnitError(err error) (*UnitError, bool) {
	if err == nil {
		return nil, false
	}
	var ue *UnitError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// ErrorToHTTPStatus maps an error code to the HTTP status returned by the REST routes.
func ErrorToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeInvalidInput, ErrCodeValidationFailed,
		ErrCodeBenchmarkInvalid, ErrCodeRecommendInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeInvalidQuantization, ErrCodeInvalidWeights, ErrCodeInvalidCriteria, ErrCodeInvalidMatrix:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound, ErrCodeModelNotFound, ErrCodeVersionNotFound,
		ErrCodeBenchmarkNotFound, ErrCodeGPUTypeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeModelAlreadyExists, ErrCodeVersionExists:
		return http.StatusConflict
	case ErrCodeTimeout:
		return http.StatusRequestTimeout
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	ue, ok := AsUnitError(err)
	if !ok {
		return false
	}
	status := ErrorToHTTPStatus(ue.Code)
	return status >= 400 && status < 500
}

func IsNotFound(err error) bool {
	if ue, ok := AsUnitError(err); ok {
		return ErrorToHTTPStatus(ue.Code) == http.StatusNotFound
	}
	return false
}

func IsAlreadyExists(err error) bool {
	if ue, ok := AsUnitError(err); ok {
		return ErrorToHTTPStatus(ue.Code) == http.StatusConflict
	}
	return false
}

var (
	ErrUnknown       = NewError(ErrCodeUnknown, "unknown error")
	ErrInvalidInput  = NewError(ErrCodeInvalidInput, "invalid input")
	ErrNotFound      = NewError(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists = NewError(ErrCodeAlreadyExists, "resource already exists")
	ErrTimeout       = NewError(ErrCodeTimeout, "operation timeout")
	ErrInternal      = NewError(ErrCodeInternalError, "internal error")
	ErrValidation    = NewError(ErrCodeValidationFailed, "validation failed")
	ErrStoreNotSet   = NewError(ErrCodeInternalError, "store not set")
)
