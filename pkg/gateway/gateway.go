package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/jguan/model-catalog/pkg/unit"
)

const (
	TypeCommand = "command"
	TypeQuery   = "query"

	DefaultTimeout = 30 * time.Second
)

type Request struct {
	Type    string         `json:"type"`
	Unit    string         `json:"unit"`
	Input   map[string]any `json:"input,omitempty"`
	Options RequestOptions `json:"options,omitempty"`
}

type RequestOptions struct {
	Timeout time.Duration `json:"timeout,omitempty"`
	TraceID string        `json:"trace_id,omitempty"`
}

type Response struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Error   *ErrorInfo    `json:"error,omitempty"`
	Meta    *ResponseMeta `json:"meta,omitempty"`
}

type ResponseMeta struct {
	RequestID string `json:"request_id"`
	Duration  int64  `json:"duration_ms"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Observer is told about every unit the gateway executes.
type Observer interface {
	ObserveUnit(unitName string, d time.Duration, err error)
}

type Gateway struct {
	registry       *unit.Registry
	requestTimeout time.Duration
	observer       Observer
}

type GatewayOption func(*Gateway)

func WithTimeout(timeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		if timeout > 0 {
			g.requestTimeout = timeout
		}
	}
}

func WithObserver(o Observer) GatewayOption {
	return func(g *Gateway) {
		g.observer = o
	}
}

func NewGateway(registry *unit.Registry, opts ...GatewayOption) *Gateway {
	if registry == nil {
		registry = unit.NewRegistry()
	}

	g := &Gateway{
		registry:       registry,
		requestTimeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Handle resolves req.Unit, validates the input against the unit's schema
// and executes it under the request timeout. It never returns nil.
func (g *Gateway) Handle(ctx context.Context, req *Request) *Response {
	start := time.Now()
	requestID := unit.GenerateRequestID()

	resp := &Response{
		Meta: &ResponseMeta{
			RequestID: requestID,
		},
	}
	defer func() {
		resp.Meta.Duration = time.Since(start).Milliseconds()
	}()

	if err := g.validateRequest(req); err != nil {
		resp.Error = err
		return resp
	}

	traceID := req.Options.TraceID
	if traceID == "" {
		traceID = unit.GenerateTraceID()
	}
	resp.Meta.TraceID = traceID

	ctx = unit.WithRequestID(ctx, requestID)
	ctx = unit.WithTraceID(ctx, traceID)
	ctx = unit.WithStartTime(ctx, start)
	ctx = unit.WithUnitName(ctx, req.Unit)

	timeout := req.Options.Timeout
	if timeout <= 0 {
		timeout = g.requestTimeout
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := g.execute(ctx, req)
	if g.observer != nil && !isLookupFailure(err) {
		g.observer.ObserveUnit(req.Unit, time.Since(start), err)
	}
	if err != nil {
		resp.Error = ToErrorInfo(err)
		return resp
	}

	resp.Success = true
	resp.Data = result
	return resp
}

func (g *Gateway) validateRequest(req *Request) *ErrorInfo {
	if req == nil {
		return NewErrorInfo(ErrCodeInvalidRequest, "request is nil")
	}

	switch req.Type {
	case TypeCommand, TypeQuery:
	default:
		return NewErrorInfo(ErrCodeInvalidRequest, "invalid request type: "+req.Type)
	}

	if req.Unit == "" {
		return NewErrorInfo(ErrCodeInvalidRequest, "unit is required")
	}

	return nil
}

// executable is the part of unit.Command and unit.Query the gateway needs.
type executable interface {
	InputSchema() unit.Schema
	Execute(ctx context.Context, input any) (any, error)
}

func (g *Gateway) execute(ctx context.Context, req *Request) (any, error) {
	var u executable
	switch req.Type {
	case TypeCommand:
		if cmd := g.registry.GetCommand(req.Unit); cmd != nil {
			u = cmd
		}
	case TypeQuery:
		if q := g.registry.GetQuery(req.Unit); q != nil {
			u = q
		}
	}
	if u == nil {
		return nil, NewErrorInfo(ErrCodeUnitNotFound, req.Type+" not found: "+req.Unit)
	}

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}
	schema := u.InputSchema()
	if err := schema.Validate(input); err != nil {
		return nil, NewErrorInfoWithDetails(ErrCodeValidationFailed, "invalid input for "+req.Unit, err.Error())
	}

	result, err := u.Execute(ctx, input)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewErrorInfo(ErrCodeTimeout, req.Unit+" timed out")
		}
		return nil, err
	}
	return result, nil
}

// isLookupFailure reports errors raised before any unit ran, which are not
// attributed to a unit in metrics.
func isLookupFailure(err error) bool {
	var ei *ErrorInfo
	return errors.As(err, &ei) && ei.Code == ErrCodeUnitNotFound
}

func (g *Gateway) Registry() *unit.Registry {
	return g.registry
}

func (g *Gateway) Timeout() time.Duration {
	return g.requestTimeout
}
