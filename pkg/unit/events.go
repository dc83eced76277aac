package unit

import (
	"time"

	"github.com/google/uuid"
)

type ExecutionEventType string

const (
	ExecutionStarted   ExecutionEventType = "execution_started"
	ExecutionCompleted ExecutionEventType = "execution_completed"
	ExecutionFailed    ExecutionEventType = "execution_failed"
)

// ExecutionEvent is published around every unit execution that carries a
// publisher. Input and output are intentionally omitted from failed events.
type ExecutionEvent struct {
	EventType          string    `json:"event_type"`
	EventDomain        string    `json:"domain"`
	UnitName           string    `json:"unit_name"`
	Input              any       `json:"input,omitempty"`
	Output             any       `json:"output,omitempty"`
	Error              string    `json:"error,omitempty"`
	EventTimestamp     time.Time `json:"timestamp"`
	EventCorrelationID string    `json:"correlation_id"`
	DurationMs         int64     `json:"duration_ms,omitempty"`
}

func (e *ExecutionEvent) Type() string          { return e.EventType }
func (e *ExecutionEvent) Domain() string        { return e.EventDomain }
func (e *ExecutionEvent) Payload() any          { return e }
func (e *ExecutionEvent) Timestamp() time.Time  { return e.EventTimestamp }
func (e *ExecutionEvent) CorrelationID() string { return e.EventCorrelationID }

// EventPublisher is satisfied by the in-memory event bus.
type EventPublisher interface {
	Publish(event any) error
}

// ExecutionContext tracks one unit execution for event publishing.
type ExecutionContext struct {
	Publisher     EventPublisher
	Domain        string
	UnitName      string
	CorrelationID string
	StartTime     time.Time
}

func NewExecutionContext(publisher EventPublisher, domain, unitName string) *ExecutionContext {
	return &ExecutionContext{
		Publisher:     publisher,
		Domain:        domain,
		UnitName:      unitName,
		CorrelationID: uuid.New().String(),
		StartTime:     time.Now(),
	}
}

func (ec *ExecutionContext) PublishStarted(input any) {
	ec.publish(ExecutionStarted, func(e *ExecutionEvent) { e.Input = input })
}

func (ec *ExecutionContext) PublishCompleted(output any) {
	ec.publish(ExecutionCompleted, func(e *ExecutionEvent) {
		e.Output = output
		e.DurationMs = time.Since(ec.StartTime).Milliseconds()
	})
}

func (ec *ExecutionContext) PublishFailed(err error) {
	ec.publish(ExecutionFailed, func(e *ExecutionEvent) {
		if err != nil {
			e.Error = err.Error()
		}
		e.DurationMs = time.Since(ec.StartTime).Milliseconds()
	})
}

func (ec *ExecutionContext) publish(t ExecutionEventType, fill func(*ExecutionEvent)) {
	if ec == nil || ec.Publisher == nil {
		return
	}
	event := &ExecutionEvent{
		EventType:          string(t),
		EventDomain:        ec.Domain,
		UnitName:           ec.UnitName,
		EventTimestamp:     time.Now(),
		EventCorrelationID: ec.CorrelationID,
	}
	fill(event)
	// publishing is best effort; a full bus must not fail the unit
	_ = ec.Publisher.Publish(event)
}

// DomainEvent is the common shape of the events units emit after a
// successful mutation (model.created, benchmark.recorded, ...).
type DomainEvent struct {
	EventType          string    `json:"event_type"`
	EventDomain        string    `json:"domain"`
	EventPayload       any       `json:"payload"`
	EventTimestamp     time.Time `json:"timestamp"`
	EventCorrelationID string    `json:"correlation_id"`
}

func NewDomainEvent(domain, eventType string, payload any) *DomainEvent {
	return &DomainEvent{
		EventType:          eventType,
		EventDomain:        domain,
		EventPayload:       payload,
		EventTimestamp:     time.Now(),
		EventCorrelationID: uuid.New().String(),
	}
}

func (e *DomainEvent) Type() string          { return e.EventType }
func (e *DomainEvent) Domain() string        { return e.EventDomain }
func (e *DomainEvent) Payload() any          { return e.EventPayload }
func (e *DomainEvent) Timestamp() time.Time  { return e.EventTimestamp }
func (e *DomainEvent) CorrelationID() string { return e.EventCorrelationID }

type NoopEventPublisher struct{}

func (n *NoopEventPublisher) Publish(event any) error { return nil }

var (
	_ EventPublisher = (*NoopEventPublisher)(nil)
	_ Event          = (*ExecutionEvent)(nil)
	_ Event          = (*DomainEvent)(nil)
)
