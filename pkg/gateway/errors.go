package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jguan/model-catalog/pkg/unit"
)

const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeUnitNotFound     = "UNIT_NOT_FOUND"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeExecutionFailed  = "EXECUTION_FAILED"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	// status overrides the HTTP status derived from Code.
	status int
}

func NewErrorInfo(code string, message string) *ErrorInfo {
	return &ErrorInfo{
		Code:    code,
		Message: message,
	}
}

func NewErrorInfoWithDetails(code string, message string, details any) *ErrorInfo {
	return &ErrorInfo{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ToErrorInfo converts a unit error into the gateway envelope. The unit's
// own code travels in Details.unit_code.
func ToErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	if ei, ok := err.(*ErrorInfo); ok {
		return ei
	}

	ue, ok := unit.AsUnitError(err)
	if !ok {
		return &ErrorInfo{
			Code:    ErrCodeExecutionFailed,
			Message: err.Error(),
		}
	}

	details := map[string]any{"unit_code": string(ue.Code)}
	if ue.Domain != "" {
		details["domain"] = ue.Domain
	}
	for k, v := range ue.Details {
		details[k] = v
	}

	status := unit.ErrorToHTTPStatus(ue.Code)
	code := ErrCodeExecutionFailed
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = ErrCodeValidationFailed
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusConflict:
		code = ErrCodeConflict
	case http.StatusRequestTimeout:
		code = ErrCodeTimeout
	case http.StatusTooManyRequests:
		code = ErrCodeRateLimited
	}

	return &ErrorInfo{
		Code:    code,
		Message: err.Error(),
		Details: details,
		status:  status,
	}
}

// HTTPStatus is the status code the REST routes answer with for e.
func (e *ErrorInfo) HTTPStatus() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	if e.status != 0 {
		return e.status
	}

	switch e.Code {
	case ErrCodeInvalidRequest, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeUnitNotFound, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (e *ErrorInfo) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ErrorInfo) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func (e *ErrorInfo) Is(target error) bool {
	t, ok := target.(*ErrorInfo)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
