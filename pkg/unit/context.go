package unit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	TraceIDKey   contextKey = "trace_id"
	StartTimeKey contextKey = "start_time"
	UnitNameKey  contextKey = "unit_name"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, t)
}

func WithUnitName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, UnitNameKey, name)
}

func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(RequestIDKey).(string)
	return s
}

func GetTraceID(ctx context.Context) string {
	s, _ := ctx.Value(TraceIDKey).(string)
	return s
}

func GetUnitName(ctx context.Context) string {
	s, _ := ctx.Value(UnitNameKey).(string)
	return s
}

func GetStartTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(StartTimeKey).(time.Time)
	return t
}

func GenerateRequestID() string {
	return "req_" + randomHex(16)
}

func GenerateTraceID() string {
	return "trc_" + randomHex(16)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		ts := time.Now().UnixNano()
		for i := range n {
			b[i] = byte(ts >> (i % 8 * 8))
		}
	}
	return hex.EncodeToString(b)
}
