package workflow

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps action names to their implementations.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
	order   []string
}

// NewRegistry returns a registry holding the given actions.
func NewRegistry(actions ...Action) (*Registry, error) {
	r := &Registry{actions: make(map[string]Action)}
	for _, a := range actions {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an action. Names must be unique and non-empty.
func (r *Registry) Register(a Action) error {
	if a == nil {
		return fmt.Errorf("register action: nil action")
	}
	name := strings.TrimSpace(a.Name())
	if name == "" {
		return fmt.Errorf("register action: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("register action: %q already registered", name)
	}
	r.actions[name] = a
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names lists registered actions in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
