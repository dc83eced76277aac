package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/registry"
	"github.com/jguan/model-catalog/pkg/unit"
)

func newCatalogRouter(t *testing.T) *Router {
	t.Helper()
	reg := unit.NewRegistry()
	require.NoError(t, registry.RegisterAll(reg))
	return NewRouter(NewGateway(reg))
}

type routeResult struct {
	code int
	resp Response
	data map[string]any
}

func call(t *testing.T, h http.Handler, method, path string, body any) routeResult {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", ContentTypeJSON)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out struct {
		Response
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return routeResult{code: rec.Code, resp: out.Response, data: out.Data}
}

func TestDefaultRoutes_TargetRegisteredUnits(t *testing.T) {
	reg := unit.NewRegistry()
	require.NoError(t, registry.RegisterAll(reg))

	for _, route := range defaultRoutes() {
		switch route.Type {
		case TypeCommand:
			assert.NotNil(t, reg.GetCommand(route.Unit), "%s %s", route.Method, route.Path)
		case TypeQuery:
			assert.NotNil(t, reg.GetQuery(route.Unit), "%s %s", route.Method, route.Path)
		default:
			t.Errorf("route %s %s has type %q", route.Method, route.Path, route.Type)
		}
	}
}

func TestRouter_CatalogFlow(t *testing.T) {
	router := newCatalogRouter(t)

	res := call(t, router, http.MethodPost, "/api/v1/models", map[string]any{
		"id": "m-1", "name": "llama-3-8b", "architecture": "llama", "parameters": 8e9, "tags": []string{"chat"},
	})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/models", map[string]any{
		"name": "llama-3-8b", "architecture": "llama", "parameters": 8e9,
	})
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Equal(t, ErrCodeConflict, res.resp.Error.Code)

	res = call(t, router, http.MethodPost, "/api/v1/models/m-1/versions", map[string]any{
		"id": "v-1", "version": "v1", "quantization": "fp16",
	})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/models/m-1/use-cases", map[string]any{
		"category": "chatbot", "suitability_score": 0.9,
	})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/benchmarks", map[string]any{
		"model_version_id": "v-1", "workload_type": "chatbot",
		"ttft_p90_ms": 120, "throughput_tokens_sec": 800, "accuracy_score": 0.8,
	})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/models?architecture=llama&limit=5", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)
	assert.EqualValues(t, 1, res.data["total"])

	res = call(t, router, http.MethodGet, "/api/v1/models/m-1", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/models/m-1/versions", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/models/m-1/details", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/models/search?query=llama", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/use-cases/chatbot/models", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/benchmarks/v-1?limit=10", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)
	assert.EqualValues(t, 1, res.data["total"])

	res = call(t, router, http.MethodGet, "/api/v1/benchmarks/v-1/stats", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/recommend", map[string]any{"use_case": "chatbot"})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)
	assert.EqualValues(t, 1, res.data["total_candidates"])

	res = call(t, router, http.MethodDelete, "/api/v1/models/m-1", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodGet, "/api/v1/models/m-1", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, ErrCodeNotFound, res.resp.Error.Code)
}

func TestRouter_HardwareAndRanking(t *testing.T) {
	router := newCatalogRouter(t)

	res := call(t, router, http.MethodPost, "/api/v1/hardware/vram/calculate", map[string]any{
		"parameters": 7e9, "quantization": "fp16",
	})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/hardware/vram/calculate", map[string]any{
		"parameters": 7e9, "quantization": "fp12",
	})
	assert.Equal(t, http.StatusBadRequest, res.code, "quantization is an enum")
	assert.Equal(t, ErrCodeValidationFailed, res.resp.Error.Code)

	res = call(t, router, http.MethodGet, "/api/v1/hardware/gpus?spot_only=true", nil)
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/ranking/topsis", map[string]any{
		"alternatives": []map[string]any{
			{"id": "a", "values": map[string]any{"cost": 1.0, "speed": 10.0}},
			{"id": "b", "values": map[string]any{"cost": 2.0, "speed": 5.0}},
		},
		"weights":          map[string]any{"cost": 0.5, "speed": 0.5},
		"benefit_criteria": []string{"speed"},
		"cost_criteria":    []string{"cost"},
	})
	require.Equal(t, http.StatusOK, res.code, res.resp.Error)

	res = call(t, router, http.MethodPost, "/api/v1/ranking/topsis", map[string]any{
		"alternatives": []map[string]any{
			{"id": "a", "values": map[string]any{"cost": 1.0}},
			{"id": "b", "values": map[string]any{"cost": 2.0}},
		},
		"weights":       map[string]any{"cost": 0.4},
		"cost_criteria": []string{"cost"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.code, "weights must sum to 1")
	assert.Equal(t, ErrCodeValidationFailed, res.resp.Error.Code)
}

func TestRouter_Errors(t *testing.T) {
	router := newCatalogRouter(t)

	t.Run("unknown route", func(t *testing.T) {
		res := call(t, router, http.MethodGet, "/api/v1/nope", nil)
		assert.Equal(t, http.StatusNotFound, res.code)
		assert.Equal(t, ErrCodeUnitNotFound, res.resp.Error.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		res := call(t, router, http.MethodPut, "/api/v1/models", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, res.code)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing required input", func(t *testing.T) {
		res := call(t, router, http.MethodPost, "/api/v1/recommend", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, res.code)
		assert.Equal(t, ErrCodeValidationFailed, res.resp.Error.Code)
	})

	t.Run("non-numeric query parameter", func(t *testing.T) {
		res := call(t, router, http.MethodGet, "/api/v1/models?limit=ten", nil)
		assert.Equal(t, http.StatusBadRequest, res.code)
	})
}

func TestMatchPath(t *testing.T) {
	params, ok := matchPath("/api/v1/models/{id}/versions", "/api/v1/models/m-1/versions/")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "m-1"}, params)

	_, ok = matchPath("/api/v1/models/{id}", "/api/v1/models")
	assert.False(t, ok)

	_, ok = matchPath("/api/v1/models/{id}", "/api/v1/benchmarks/x")
	assert.False(t, ok)
}
