package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// InputSource says where a route reads its unit input from.
type InputSource int

const (
	SourceNone InputSource = iota
	SourceBody
	SourceQuery
)

type Route struct {
	Method string
	Path   string
	Unit   string
	Type   string
	Source InputSource
	// Params renames path parameters to unit input keys.
	Params map[string]string
}

type Router struct {
	routes  []Route
	gateway *Gateway
}

func NewRouter(gateway *Gateway) *Router {
	return &Router{
		routes:  defaultRoutes(),
		gateway: gateway,
	}
}

func (r *Router) AddRoute(route Route) {
	r.routes = append(r.routes, route)
}

func (r *Router) Routes() []Route {
	return r.routes
}

// ServeHTTP dispatches to the first route whose method and path match.
// Literal segments must be listed before parameters at the same position.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	pathMatched := false
	for _, route := range r.routes {
		pathParams, ok := matchPath(route.Path, req.URL.Path)
		if !ok {
			continue
		}
		pathMatched = true
		if route.Method != req.Method {
			continue
		}

		r.handleRoute(w, req, route, pathParams)
		return
	}

	if pathMatched {
		writeJSONError(w, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "method not allowed: "+req.Method+" "+req.URL.Path)
		return
	}
	writeJSONError(w, http.StatusNotFound, ErrCodeUnitNotFound, "route not found: "+req.Method+" "+req.URL.Path)
}

func (r *Router) handleRoute(w http.ResponseWriter, httpReq *http.Request, route Route, pathParams map[string]string) {
	input, err := r.readInput(httpReq, route)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	for name, value := range pathParams {
		key := name
		if renamed, ok := route.Params[name]; ok {
			key = renamed
		}
		input[key] = value
	}

	req := &Request{
		Type:  route.Type,
		Unit:  route.Unit,
		Input: input,
		Options: RequestOptions{
			TraceID: httpReq.Header.Get(HeaderTraceID),
		},
	}

	writeResponse(w, r.gateway.Handle(httpReq.Context(), req))
}

func (r *Router) readInput(httpReq *http.Request, route Route) (map[string]any, error) {
	switch route.Source {
	case SourceBody:
		return decodeBody(httpReq)
	case SourceQuery:
		raw := make(map[string]string)
		for k, v := range httpReq.URL.Query() {
			if len(v) > 0 {
				raw[k] = strings.Join(v, ",")
			}
		}
		schema, ok := r.gateway.Registry().Schema(route.Unit)
		if !ok {
			out := make(map[string]any, len(raw))
			for k, v := range raw {
				out[k] = v
			}
			return out, nil
		}
		return schema.Coerce(raw), nil
	default:
		return map[string]any{}, nil
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	input := map[string]any{}
	if r.Body == nil {
		return input, nil
	}
	if !isJSON(r) {
		return nil, errors.New("content-type must be application/json")
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&input)
	if errors.Is(err, io.EOF) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, errors.New("invalid JSON body: " + err.Error())
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

var (
	modelIDParam   = map[string]string{"id": "model_id"}
	versionIDParam = map[string]string{"version_id": "model_version_id"}
)

func defaultRoutes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/v1/recommend", Unit: "recommend.models", Type: TypeQuery, Source: SourceBody},

		{Method: http.MethodPost, Path: "/api/v1/hardware/vram/calculate", Unit: "hardware.vram_estimate", Type: TypeQuery, Source: SourceBody},
		{Method: http.MethodPost, Path: "/api/v1/hardware/vram/compare", Unit: "hardware.vram_compare", Type: TypeQuery, Source: SourceBody},
		{Method: http.MethodPost, Path: "/api/v1/hardware/vram/max-batch", Unit: "hardware.max_batch", Type: TypeQuery, Source: SourceBody},
		{Method: http.MethodPost, Path: "/api/v1/hardware/gpu/recommend", Unit: "hardware.gpu_recommend", Type: TypeQuery, Source: SourceBody},
		{Method: http.MethodGet, Path: "/api/v1/hardware/gpus", Unit: "hardware.gpu_catalog", Type: TypeQuery, Source: SourceQuery},
		{Method: http.MethodPost, Path: "/api/v1/hardware/spot-savings", Unit: "hardware.spot_savings", Type: TypeQuery, Source: SourceBody},

		{Method: http.MethodPost, Path: "/api/v1/ranking/topsis", Unit: "ranking.topsis", Type: TypeQuery, Source: SourceBody},
		{Method: http.MethodPost, Path: "/api/v1/ranking/pareto", Unit: "ranking.pareto", Type: TypeQuery, Source: SourceBody},

		{Method: http.MethodGet, Path: "/api/v1/models", Unit: "model.list", Type: TypeQuery, Source: SourceQuery},
		{Method: http.MethodPost, Path: "/api/v1/models", Unit: "model.create", Type: TypeCommand, Source: SourceBody},
		{Method: http.MethodGet, Path: "/api/v1/models/search", Unit: "recommend.search", Type: TypeQuery, Source: SourceQuery},
		{Method: http.MethodGet, Path: "/api/v1/models/{id}", Unit: "model.get", Type: TypeQuery, Params: modelIDParam},
		{Method: http.MethodDelete, Path: "/api/v1/models/{id}", Unit: "model.delete", Type: TypeCommand, Params: modelIDParam},
		{Method: http.MethodGet, Path: "/api/v1/models/{id}/details", Unit: "recommend.model_details", Type: TypeQuery, Params: modelIDParam},
		{Method: http.MethodGet, Path: "/api/v1/models/{id}/versions", Unit: "model.versions", Type: TypeQuery, Params: modelIDParam},
		{Method: http.MethodPost, Path: "/api/v1/models/{id}/versions", Unit: "model.add_version", Type: TypeCommand, Source: SourceBody, Params: modelIDParam},
		{Method: http.MethodPost, Path: "/api/v1/models/{id}/use-cases", Unit: "model.assign_use_case", Type: TypeCommand, Source: SourceBody, Params: modelIDParam},
		{Method: http.MethodGet, Path: "/api/v1/use-cases/{use_case}/models", Unit: "model.by_use_case", Type: TypeQuery},

		{Method: http.MethodPost, Path: "/api/v1/benchmarks", Unit: "benchmark.record", Type: TypeCommand, Source: SourceBody},
		{Method: http.MethodGet, Path: "/api/v1/benchmarks/{version_id}", Unit: "benchmark.list", Type: TypeQuery, Source: SourceQuery, Params: versionIDParam},
		{Method: http.MethodGet, Path: "/api/v1/benchmarks/{version_id}/stats", Unit: "benchmark.stats", Type: TypeQuery, Source: SourceQuery, Params: versionIDParam},
	}
}

func matchPath(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, pp := range patternParts {
		pt := pathParts[i]

		if strings.HasPrefix(pp, "{") && strings.HasSuffix(pp, "}") {
			if pt == "" {
				return nil, false
			}
			params[pp[1:len(pp)-1]] = pt
		} else if pp != pt {
			return nil, false
		}
	}

	return params, true
}
