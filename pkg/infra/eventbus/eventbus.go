// Package eventbus fans unit events (model.created, benchmark.recorded,
// recommend.completed, execution events) out to in-process subscribers.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jguan/model-catalog/pkg/unit"
)

var (
	ErrClosed     = errors.New("eventbus is closed")
	ErrBufferFull = errors.New("eventbus buffer is full")
)

type SubscriptionID string

type EventHandler func(event unit.Event) error

type EventFilter func(event unit.Event) bool

type EventBus interface {
	unit.EventPublisher
	Subscribe(handler EventHandler, filters ...EventFilter) (SubscriptionID, error)
	Unsubscribe(id SubscriptionID) error
	Close() error
}

// InMemoryEventBus delivers events asynchronously from a bounded buffer.
// Publish never blocks; a full buffer drops the event and returns
// ErrBufferFull.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[SubscriptionID]*subscription
	eventChan   chan unit.Event
	workerCount int
	wg          sync.WaitGroup
	closed      bool

	published atomic.Int64
	dropped   atomic.Int64
}

type subscription struct {
	id      SubscriptionID
	handler EventHandler
	filters []EventFilter
}

type config struct {
	bufferSize  int
	workerCount int
}

type Option func(*config)

func WithBufferSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

func WithWorkerCount(count int) Option {
	return func(c *config) {
		if count > 0 {
			c.workerCount = count
		}
	}
}

func NewInMemoryEventBus(opts ...Option) *InMemoryEventBus {
	cfg := &config{bufferSize: 1000, workerCount: 4}
	for _, opt := range opts {
		opt(cfg)
	}

	bus := &InMemoryEventBus{
		subscribers: make(map[SubscriptionID]*subscription),
		eventChan:   make(chan unit.Event, cfg.bufferSize),
		workerCount: cfg.workerCount,
	}

	for range bus.workerCount {
		bus.wg.Add(1)
		go bus.worker()
	}
	return bus
}

// Publish accepts any unit.Event, which makes the bus a
// unit.EventPublisher for commands and queries.
func (b *InMemoryEventBus) Publish(event any) error {
	e, ok := event.(unit.Event)
	if !ok || e == nil {
		return fmt.Errorf("event must implement unit.Event, got %T", event)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.eventChan <- e:
		b.published.Add(1)
		return nil
	default:
		b.dropped.Add(1)
		return ErrBufferFull
	}
}

func (b *InMemoryEventBus) Subscribe(handler EventHandler, filters ...EventFilter) (SubscriptionID, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", ErrClosed
	}

	id := SubscriptionID(uuid.New().String())
	b.subscribers[id] = &subscription{id: id, handler: handler, filters: filters}
	return id, nil
}

func (b *InMemoryEventBus) Unsubscribe(id SubscriptionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return fmt.Errorf("subscription %s not found", id)
	}
	delete(b.subscribers, id)
	return nil
}

// Close stops accepting events, delivers what is already buffered and
// waits for the workers to finish.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.eventChan)
	b.mu.Unlock()

	b.wg.Wait()

	b.mu.Lock()
	b.subscribers = make(map[SubscriptionID]*subscription)
	b.mu.Unlock()
	return nil
}

// Stats reports how many events were accepted and dropped.
func (b *InMemoryEventBus) Stats() (published, dropped int64) {
	return b.published.Load(), b.dropped.Load()
}

func (b *InMemoryEventBus) worker() {
	defer b.wg.Done()
	for event := range b.eventChan {
		b.dispatch(event)
	}
}

func (b *InMemoryEventBus) dispatch(event unit.Event) {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if !matchFilters(event, sub.filters) {
			continue
		}
		if err := sub.handler(event); err != nil {
			slog.Warn("event handler failed", "subscription", sub.id, "type", event.Type(), "error", err)
		}
	}
}

func matchFilters(event unit.Event, filters []EventFilter) bool {
	for _, filter := range filters {
		if !filter(event) {
			return false
		}
	}
	return true
}

func FilterByType(eventType string) EventFilter {
	return func(event unit.Event) bool {
		return event.Type() == eventType
	}
}

func FilterByDomain(domain string) EventFilter {
	return func(event unit.Event) bool {
		return event.Domain() == domain
	}
}

func FilterByTypes(types ...string) EventFilter {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(event unit.Event) bool {
		_, ok := set[event.Type()]
		return ok
	}
}

// LogHandler writes every event it receives to logger at debug level,
// execution failures at warn.
func LogHandler(logger *slog.Logger) EventHandler {
	return func(event unit.Event) error {
		level := slog.LevelDebug
		if event.Type() == string(unit.ExecutionFailed) {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "event",
			"type", event.Type(),
			"domain", event.Domain(),
			"correlation_id", event.CorrelationID())
		return nil
	}
}

var _ EventBus = (*InMemoryEventBus)(nil)
