package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCreated         = "model.created"
	EventTypeDeleted         = "model.deleted"
	EventTypeVersionAdded    = "model.version_added"
	EventTypeUseCaseAssigned = "model.use_case_assigned"
)

// Event is emitted after a successful catalog mutation.
type Event struct {
	eventType     string
	payload       map[string]any
	timestamp     time.Time
	correlationID string
}

func newEvent(eventType string, payload map[string]any) *Event {
	return &Event{
		eventType:     eventType,
		payload:       payload,
		timestamp:     time.Now(),
		correlationID: uuid.New().String(),
	}
}

func NewCreatedEvent(m *Model) *Event {
	return newEvent(EventTypeCreated, map[string]any{
		"model_id":     m.ID,
		"name":         m.Name,
		"architecture": m.Architecture,
		"parameters":   m.Parameters,
	})
}

func NewDeletedEvent(modelID, name string) *Event {
	return newEvent(EventTypeDeleted, map[string]any{"model_id": modelID, "name": name})
}

func NewVersionAddedEvent(v *Version) *Event {
	return newEvent(EventTypeVersionAdded, map[string]any{
		"model_id":     v.ModelID,
		"version_id":   v.ID,
		"quantization": v.Quantization,
	})
}

func NewUseCaseAssignedEvent(u *UseCase) *Event {
	return newEvent(EventTypeUseCaseAssigned, map[string]any{
		"model_id":    u.ModelID,
		"category":    u.Category,
		"subcategory": u.Subcategory,
		"recommended": u.Recommended,
	})
}

func (e *Event) Type() string          { return e.eventType }
func (e *Event) Domain() string        { return "model" }
func (e *Event) Payload() any          { return e.payload }
func (e *Event) Timestamp() time.Time  { return e.timestamp }
func (e *Event) CorrelationID() string { return e.correlationID }
