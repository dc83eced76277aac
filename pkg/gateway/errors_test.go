package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/ranking"
)

func TestErrorInfo_Error(t *testing.T) {
	tests := []struct {
		name     string
		errInfo  *ErrorInfo
		expected string
	}{
		{
			name:     "without details",
			errInfo:  NewErrorInfo(ErrCodeInvalidRequest, "invalid input"),
			expected: "[INVALID_REQUEST] invalid input",
		},
		{
			name:     "with details",
			errInfo:  NewErrorInfoWithDetails(ErrCodeValidationFailed, "field required", map[string]string{"field": "name"}),
			expected: "[VALIDATION_FAILED] field required: map[field:name]",
		},
		{
			name:     "empty message",
			errInfo:  NewErrorInfo(ErrCodeInternalError, ""),
			expected: "[INTERNAL_ERROR] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.errInfo.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestToErrorInfo(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if got := ToErrorInfo(nil); got != nil {
			t.Errorf("ToErrorInfo(nil) = %v, want nil", got)
		}
	})

	t.Run("ErrorInfo pointer", func(t *testing.T) {
		original := NewErrorInfo(ErrCodeTimeout, "request timeout")
		if got := ToErrorInfo(original); got != original {
			t.Errorf("ToErrorInfo should return same pointer for *ErrorInfo")
		}
	})

	t.Run("standard error", func(t *testing.T) {
		got := ToErrorInfo(errors.New("something went wrong"))
		if got.Code != ErrCodeExecutionFailed {
			t.Errorf("Code = %q, want %q", got.Code, ErrCodeExecutionFailed)
		}
		if got.HTTPStatus() != http.StatusInternalServerError {
			t.Errorf("HTTPStatus() = %d, want 500", got.HTTPStatus())
		}
	})

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"model not found", model.ErrModelNotFound.WithDetails("id", "m-1"), ErrCodeNotFound, http.StatusNotFound},
		{"duplicate model", model.ErrModelAlreadyExists, ErrCodeConflict, http.StatusConflict},
		{"invalid weights", ranking.ErrInvalidWeights, ErrCodeValidationFailed, http.StatusUnprocessableEntity},
		{"invalid input", unit.NewError(unit.ErrCodeInvalidInput, "bad"), ErrCodeValidationFailed, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("lookup: %w", model.ErrVersionNotFound), ErrCodeNotFound, http.StatusNotFound},
		{"internal", unit.NewError(unit.ErrCodeInternalError, "boom"), ErrCodeExecutionFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToErrorInfo(tt.err)
			if got.Code != tt.code {
				t.Errorf("Code = %q, want %q", got.Code, tt.code)
			}
			if got.HTTPStatus() != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got.HTTPStatus(), tt.status)
			}
			details, ok := got.Details.(map[string]any)
			if !ok || details["unit_code"] == "" {
				t.Errorf("expected unit_code in details, got %v", got.Details)
			}
		})
	}

	t.Run("details are copied", func(t *testing.T) {
		got := ToErrorInfo(model.ErrModelNotFound.WithDetails("id", "m-1"))
		details := got.Details.(map[string]any)
		if details["id"] != "m-1" {
			t.Errorf("details[id] = %v, want m-1", details["id"])
		}
		if details["unit_code"] != string(unit.ErrCodeModelNotFound) {
			t.Errorf("details[unit_code] = %v", details["unit_code"])
		}
	})
}

func TestErrorInfo_HTTPStatus(t *testing.T) {
	tests := map[string]int{
		ErrCodeInvalidRequest:   http.StatusBadRequest,
		ErrCodeValidationFailed: http.StatusBadRequest,
		ErrCodeUnitNotFound:     http.StatusNotFound,
		ErrCodeRateLimited:      http.StatusTooManyRequests,
		ErrCodeTimeout:          http.StatusGatewayTimeout,
		ErrCodeInternalError:    http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := NewErrorInfo(code, "x").HTTPStatus(); got != want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", code, got, want)
		}
	}

	var nilInfo *ErrorInfo
	if nilInfo.HTTPStatus() != http.StatusInternalServerError {
		t.Error("nil ErrorInfo should map to 500")
	}
}

func TestErrorInfo_JSON(t *testing.T) {
	err := NewErrorInfo(ErrCodeRateLimited, "rate limit exceeded")
	expected := `{"code":"RATE_LIMITED","message":"rate limit exceeded"}`
	if got := err.JSON(); got != expected {
		t.Errorf("JSON() = %q, want %q", got, expected)
	}
}

func TestErrorInfo_Is(t *testing.T) {
	t.Run("same code", func(t *testing.T) {
		if !errors.Is(NewErrorInfo(ErrCodeTimeout, "timeout 1"), NewErrorInfo(ErrCodeTimeout, "timeout 2")) {
			t.Error("errors.Is should return true for same error codes")
		}
	})

	t.Run("different code", func(t *testing.T) {
		if errors.Is(NewErrorInfo(ErrCodeTimeout, "timeout"), NewErrorInfo(ErrCodeInternalError, "internal error")) {
			t.Error("errors.Is should return false for different error codes")
		}
	})

	t.Run("non ErrorInfo target", func(t *testing.T) {
		if errors.Is(NewErrorInfo(ErrCodeTimeout, "timeout"), errors.New("standard error")) {
			t.Error("errors.Is should return false for non-ErrorInfo target")
		}
	})
}
