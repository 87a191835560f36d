// Package ordered provides an immutable insertion-ordered map used for keyed
// entity slices of the store.
package ordered

import "iter"

// Map is an insertion-ordered map with copy-on-write updates. A Map value is
// never mutated after construction; Upsert and Delete return a new Map and
// leave the receiver untouched. The zero value is an empty map.
type Map[K comparable, V any] struct {
	keys  []K
	items map[K]V
}

// Len reports the number of entries.
func (m Map[K, V]) Len() int {
	return len(m.keys)
}

// Get returns the value stored under k.
func (m Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.items[k]
	return v, ok
}

// Has reports whether k is present.
func (m Map[K, V]) Has(k K) bool {
	_, ok := m.items[k]
	return ok
}

// Keys returns the keys in insertion order.
func (m Map[K, V]) Keys() []K {
	if len(m.keys) == 0 {
		return nil
	}
	dup := make([]K, len(m.keys))
	copy(dup, m.keys)
	return dup
}

// Values returns the values in key order.
func (m Map[K, V]) Values() []V {
	if len(m.keys) == 0 {
		return nil
	}
	values := make([]V, len(m.keys))
	for i, k := range m.keys {
		values[i] = m.items[k]
	}
	return values
}

// All iterates entries in insertion order.
func (m Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.items[k]) {
				return
			}
		}
	}
}

// Upsert returns a shallow copy of m with k set to v. An existing key keeps
// its position; a new key is appended. Every other entry is carried over
// unchanged.
func (m Map[K, V]) Upsert(k K, v V) Map[K, V] {
	_, exists := m.items[k]

	items := make(map[K]V, len(m.items)+1)
	for key, val := range m.items {
		items[key] = val
	}
	items[k] = v

	keys := m.keys
	if !exists {
		keys = make([]K, len(m.keys), len(m.keys)+1)
		copy(keys, m.keys)
		keys = append(keys, k)
	}
	return Map[K, V]{keys: keys, items: items}
}

// Delete returns a copy of m without k. Deleting a missing key returns m.
func (m Map[K, V]) Delete(k K) Map[K, V] {
	if _, ok := m.items[k]; !ok {
		return m
	}
	items := make(map[K]V, len(m.items)-1)
	keys := make([]K, 0, len(m.keys)-1)
	for _, key := range m.keys {
		if key == k {
			continue
		}
		keys = append(keys, key)
		items[key] = m.items[key]
	}
	return Map[K, V]{keys: keys, items: items}
}
