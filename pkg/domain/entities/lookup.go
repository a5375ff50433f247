package entities

import "fmt"

// Lookup is a sparse parameter map. A lookup of an absent key is a
// DataIncompleteError, never a zero value.
type Lookup[K comparable, V any] struct {
	name    string
	entries map[K]V
}

// NewLookup creates an empty named lookup
func NewLookup[K comparable, V any](name string, capacity int) Lookup[K, V] {
	return Lookup[K, V]{
		name:    name,
		entries: make(map[K]V, capacity),
	}
}

// Set stores a value. Only the normalizer populates lookups.
func (l Lookup[K, V]) Set(key K, value V) {
	l.entries[key] = value
}

// Get returns the value for key or a DataIncompleteError naming the parameter
func (l Lookup[K, V]) Get(key K) (V, error) {
	v, ok := l.entries[key]
	if !ok {
		return v, &DataIncompleteError{Relation: l.name, Key: fmt.Sprint(key)}
	}
	return v, nil
}

// Has reports whether key has an entry
func (l Lookup[K, V]) Has(key K) bool {
	_, ok := l.entries[key]
	return ok
}

// Len returns the number of entries
func (l Lookup[K, V]) Len() int {
	return len(l.entries)
}

// Name returns the parameter name used in error messages
func (l Lookup[K, V]) Name() string {
	return l.name
}

// Range calls fn for every entry in unspecified order
func (l Lookup[K, V]) Range(fn func(K, V)) {
	for k, v := range l.entries {
		fn(k, v)
	}
}
