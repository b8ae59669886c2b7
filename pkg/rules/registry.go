package rules

import (
	"sync"
)

// Validator inspects a resolved value and returns an empty string when it is
// valid, or a human-readable message otherwise. Validators must not mutate
// the value they receive.
type Validator func(value any) string

// RuleSet registers a group of rules, for example the rules of a single form
// step. Rule sets are applied explicitly at start-up.
type RuleSet func(*Registry)

// Registry maps validation keys to ordered validator chains. Keys are matched
// verbatim: two keys that differ only in whitespace are distinct entries.
// Registration appends, so several rule sets may contribute to the same key.
type Registry struct {
	mu     sync.RWMutex
	chains map[string][]Validator
	order  []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[string][]Validator)}
}

// Register appends validators to the chain for key. Nil validators are
// ignored.
func (r *Registry) Register(key string, validators ...Validator) {
	if r == nil || key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.chains == nil {
		r.chains = make(map[string][]Validator)
	}
	if _, exists := r.chains[key]; !exists {
		r.order = append(r.order, key)
		r.chains[key] = nil
	}
	for _, validator := range validators {
		if validator == nil {
			continue
		}
		r.chains[key] = append(r.chains[key], validator)
	}
}

// Apply runs each rule set against the registry and returns it for chaining.
func (r *Registry) Apply(sets ...RuleSet) *Registry {
	for _, set := range sets {
		if set == nil {
			continue
		}
		set(r)
	}
	return r
}

// Lookup returns a copy of the chain registered for key. Unknown keys return
// an empty, non-nil slice.
func (r *Registry) Lookup(key string) []Validator {
	if r == nil {
		return []Validator{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.chains[key]
	out := make([]Validator, len(chain))
	copy(out, chain)
	return out
}

// Has reports whether key was registered.
func (r *Registry) Has(key string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.chains[key]
	return ok
}

// Keys returns registered keys in first-registration order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len reports the number of registered keys.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
