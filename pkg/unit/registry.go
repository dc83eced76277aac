// Package unit defines the atomic unit interfaces (commands and queries)
// and the registry every transport dispatches through.
package unit

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrCommandAlreadyRegistered = errors.New("command already registered")
	ErrQueryAlreadyRegistered   = errors.New("query already registered")
	ErrCommandNotFound          = errors.New("command not found")
	ErrQueryNotFound            = errors.New("query not found")
)

// Registry is the central, thread-safe registry for commands and queries.
type Registry struct {
	commands map[string]Command
	queries  map[string]Query
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		queries:  make(map[string]Query),
	}
}

// RegisterCommand returns ErrCommandAlreadyRegistered on a name clash and
// ErrCommandNotFound if cmd is nil.
func (r *Registry) RegisterCommand(cmd Command) error {
	if cmd == nil {
		return ErrCommandNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if _, exists := r.commands[name]; exists {
		return ErrCommandAlreadyRegistered
	}

	r.commands[name] = cmd
	return nil
}

// RegisterQuery returns ErrQueryAlreadyRegistered on a name clash and
// ErrQueryNotFound if q is nil.
func (r *Registry) RegisterQuery(q Query) error {
	if q == nil {
		return ErrQueryNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := q.Name()
	if _, exists := r.queries[name]; exists {
		return ErrQueryAlreadyRegistered
	}

	r.queries[name] = q
	return nil
}

// GetCommand returns nil if no command is registered under name.
func (r *Registry) GetCommand(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.commands[name]
}

// GetQuery returns nil if no query is registered under name.
func (r *Registry) GetQuery(name string) Query {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.queries[name]
}

// Schema returns the input schema of the named command or query.
func (r *Registry) Schema(name string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.commands[name]; ok {
		return cmd.InputSchema(), true
	}
	if q, ok := r.queries[name]; ok {
		return q.InputSchema(), true
	}
	return Schema{}, false
}

// ListCommands returns all commands sorted by name.
func (r *Registry) ListCommands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// ListQueries returns all queries sorted by name.
func (r *Registry) ListQueries() []Query {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Query, 0, len(r.queries))
	for _, q := range r.queries {
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

func (r *Registry) UnregisterCommand(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		delete(r.commands, name)
		return true
	}
	return false
}

func (r *Registry) UnregisterQuery(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.queries[name]; exists {
		delete(r.queries, name)
		return true
	}
	return false
}

func (r *Registry) CommandCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.commands)
}

func (r *Registry) QueryCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.queries)
}
