// Package registry maps configured provider names to implementations.
package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Named is anything registered under a name, such as a funding or market
// provider.
type Named interface {
	Name() string
}

// Registry keeps a mapping from provider names to their implementations.
type Registry[T Named] struct {
	entries map[string]T
}

// New builds an empty registry.
func New[T Named]() *Registry[T] {
	return &Registry[T]{entries: map[string]T{}}
}

// Register adds or replaces an implementation. Names are case-insensitive.
func (r *Registry[T]) Register(entry T) {
	if r.entries == nil {
		r.entries = map[string]T{}
	}
	r.entries[strings.ToLower(entry.Name())] = entry
}

// Resolve returns an implementation by name or an error if it is absent.
func (r *Registry[T]) Resolve(name string) (T, error) {
	if entry, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]; ok {
		return entry, nil
	}
	var zero T
	return zero, fmt.Errorf("provider %s is not registered (known: %s)", name, strings.Join(r.Names(), ", "))
}

// ResolveAll resolves names in order, skipping duplicates. An empty list
// selects every registered implementation in name order.
func (r *Registry[T]) ResolveAll(names []string) ([]T, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	seen := make(map[string]bool, len(names))
	out := make([]T, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if seen[key] {
			continue
		}
		seen[key] = true
		entry, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// Names lists the registered names, sorted.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
