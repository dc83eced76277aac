package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/jguan/model-catalog/pkg/unit"
)

const (
	ContentTypeJSON = "application/json"
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	maxBodyBytes = 1 << 20
)

// HTTPAdapter serves the generic POST /execute endpoint, which accepts a
// raw Request envelope.
type HTTPAdapter struct {
	gateway *Gateway
}

func NewHTTPAdapter(gateway *Gateway) *HTTPAdapter {
	return &HTTPAdapter{
		gateway: gateway,
	}
}

func (a *HTTPAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "method not allowed")
		return
	}

	if !isJSON(r) {
		writeJSONError(w, http.StatusUnsupportedMediaType, ErrCodeInvalidRequest, "content-type must be application/json")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var req Request
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body: "+err.Error())
			return
		}
	}

	if traceID := r.Header.Get(HeaderTraceID); traceID != "" {
		req.Options.TraceID = traceID
	}

	writeResponse(w, a.gateway.Handle(r.Context(), &req))
}

func (a *HTTPAdapter) Gateway() *Gateway {
	return a.gateway
}

func isJSON(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == ContentTypeJSON
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", ContentTypeJSON)

	if resp.Meta != nil {
		if resp.Meta.RequestID != "" {
			w.Header().Set(HeaderRequestID, resp.Meta.RequestID)
		}
		if resp.Meta.TraceID != "" {
			w.Header().Set(HeaderTraceID, resp.Meta.TraceID)
		}
	}

	statusCode := http.StatusOK
	if !resp.Success {
		statusCode = resp.Error.HTTPStatus()
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, code string, message string) {
	requestID := unit.GenerateRequestID()

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.Header().Set(HeaderRequestID, requestID)
	w.WriteHeader(statusCode)

	resp := &Response{
		Error: NewErrorInfo(code, message),
		Meta: &ResponseMeta{
			RequestID: requestID,
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
