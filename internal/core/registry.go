package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named templates for lookup by name. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds t. A template with the same name fails with DuplicateKey.
func (r *Registry) Register(t *Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.Name()]; exists {
		return &Error{Kind: KindDuplicateKey, Template: t.Name(), Msg: fmt.Sprintf("template already registered: %s", t.Name())}
	}
	r.templates[t.Name()] = t
	return nil
}

// MustRegister is Register that panics, for init-time registration.
func (r *Registry) MustRegister(t *Template) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Replace adds t, replacing any template with the same name.
func (r *Registry) Replace(t *Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Name()] = t
}

// Lookup returns the named template.
func (r *Registry) Lookup(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[name]
	return t, ok
}

// Get is Lookup with a NotFound error.
func (r *Registry) Get(name string) (*Template, error) {
	if t, ok := r.Lookup(name); ok {
		return t, nil
	}
	return nil, &Error{Kind: KindNotFound, Template: name, Msg: fmt.Sprintf("template not found: %s", name)}
}

// All returns every template sorted by name.
func (r *Registry) All() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Remove deletes the named template and reports whether it existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.templates[name]
	delete(r.templates, name)
	return ok
}
