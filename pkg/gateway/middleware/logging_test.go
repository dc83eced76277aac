package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogging(t *testing.T) {
	t.Run("logs request details", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Request-ID", "req_123")
			w.Header().Set("X-Trace-ID", "trace_456")
			_, _ = w.Write([]byte(`{"success":true}`))
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/execute", bytes.NewBufferString(`{"type":"query"}`))
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()

		Logging(logger)(handler).ServeHTTP(rec, req)

		logOutput := buf.String()
		for _, want := range []string{
			`"method":"POST"`,
			`"path":"/api/v1/execute"`,
			`"status":200`,
			`"bytes":16`,
			`"request_id":"req_123"`,
			`"trace_id":"trace_456"`,
			`"remote_addr":"192.168.1.1:12345"`,
			`"level":"INFO"`,
		} {
			if !strings.Contains(logOutput, want) {
				t.Errorf("expected %s in log output: %s", want, logOutput)
			}
		}
	})

	levels := []struct {
		status int
		level  string
	}{
		{http.StatusNotFound, `"level":"WARN"`},
		{http.StatusInternalServerError, `"level":"ERROR"`},
	}
	for _, tt := range levels {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			Logging(logger)(handler).ServeHTTP(httptest.NewRecorder(), req)

			if !strings.Contains(buf.String(), tt.level) {
				t.Errorf("expected %s, got %s", tt.level, buf.String())
			}
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		rec := httptest.NewRecorder()
		Logging(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
