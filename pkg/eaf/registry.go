package eaf

import (
	"fmt"
)

// registry is an insertion-ordered map keyed by entity ID.
type registry[T any] struct {
	keys  []string
	items map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: make(map[string]T)}
}

// add stores v under id. It reports false if id is already taken.
func (r *registry[T]) add(id string, v T) bool {
	if _, ok := r.items[id]; ok {
		return false
	}
	r.keys = append(r.keys, id)
	r.items[id] = v
	return true
}

func (r *registry[T]) get(id string) (T, bool) {
	v, ok := r.items[id]
	return v, ok
}

func (r *registry[T]) has(id string) bool {
	_, ok := r.items[id]
	return ok
}

func (r *registry[T]) len() int {
	return len(r.keys)
}

// values returns the entries in insertion order.
func (r *registry[T]) values() []T {
	out := make([]T, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.items[k])
	}
	return out
}

// rekey moves the entry at old to id, keeping its position.
func (r *registry[T]) rekey(old, id string) bool {
	v, ok := r.items[old]
	if !ok || r.has(id) {
		return false
	}
	delete(r.items, old)
	r.items[id] = v
	for i, k := range r.keys {
		if k == old {
			r.keys[i] = id
			break
		}
	}
	return true
}

// probe returns the first free ID of the form prefix+n, starting from len+1.
// Reserved IDs are skipped as if already taken.
func (r *registry[T]) probe(prefix string, reserved map[string]bool) string {
	n := r.len() + len(reserved) + 1
	for {
		id := fmt.Sprintf("%s%d", prefix, n)
		if !r.has(id) && !reserved[id] {
			return id
		}
		n++
	}
}
