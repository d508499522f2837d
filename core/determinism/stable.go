// Package determinism provides ordered containers for deterministic iteration.
// Mapping configurations, synthesis sets and log output iterate with these instead of Go maps.
package determinism

import (
	"cmp"
	"slices"
)

// OrderedMap is a map that iterates in insertion order.
// Overwriting a key keeps its original position.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// NewOrderedMap creates a new OrderedMap
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		values: make(map[K]V),
	}
}

// Set adds or updates a key-value pair
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get retrieves a value by key
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	val, ok := m.values[key]
	return val, ok
}

// GetOrCreate returns the value for key, storing create() first if absent
func (m *OrderedMap[K, V]) GetOrCreate(key K, create func() V) V {
	if val, ok := m.values[key]; ok {
		return val
	}
	val := create()
	m.Set(key, val)
	return val
}

// Has reports whether key is present
func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.values[key]
	return ok
}

// Delete removes a key
func (m *OrderedMap[K, V]) Delete(key K) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Range iterates in insertion order until fn returns false
func (m *OrderedMap[K, V]) Range(fn func(K, V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			break
		}
	}
}

// Keys returns all keys in insertion order
func (m *OrderedMap[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// Len returns the number of entries
func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// Clear removes every entry
func (m *OrderedMap[K, V]) Clear() {
	m.keys = m.keys[:0]
	clear(m.values)
}

// OrderedSet is a set that iterates in insertion order
type OrderedSet[K comparable] struct {
	m *OrderedMap[K, struct{}]
}

// NewOrderedSet creates a set holding items
func NewOrderedSet[K comparable](items ...K) *OrderedSet[K] {
	s := &OrderedSet[K]{m: NewOrderedMap[K, struct{}]()}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item, reporting whether it was absent
func (s *OrderedSet[K]) Add(item K) bool {
	if s.m.Has(item) {
		return false
	}
	s.m.Set(item, struct{}{})
	return true
}

// Remove deletes item
func (s *OrderedSet[K]) Remove(item K) {
	s.m.Delete(item)
}

// Contains reports membership
func (s *OrderedSet[K]) Contains(item K) bool {
	return s.m.Has(item)
}

// Items returns the members in insertion order
func (s *OrderedSet[K]) Items() []K {
	return s.m.Keys()
}

// Len returns the number of members
func (s *OrderedSet[K]) Len() int {
	return s.m.Len()
}

// Clear removes every member
func (s *OrderedSet[K]) Clear() {
	s.m.Clear()
}

// SortedKeys returns the keys of a map in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RangeMapSorted iterates over a map in sorted key order
func RangeMapSorted[K cmp.Ordered, V any](m map[K]V, fn func(K, V) bool) {
	for _, k := range SortedKeys(m) {
		if !fn(k, m[k]) {
			break
		}
	}
}
