package csync

import (
	"iter"
	"slices"
	"sync"
)

// Slice is a generic slice protected by an RWMutex.
type Slice[T any] struct {
	mu sync.RWMutex
	s  []T
}

// NewSlice returns an empty Slice.
func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{}
}

// NewSliceFrom wraps a copy of the given slice.
func NewSliceFrom[T any](s []T) *Slice[T] {
	return &Slice[T]{s: slices.Clone(s)}
}

// Append adds items to the end.
func (s *Slice[T]) Append(items ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s = append(s.s, items...)
}

// Prepend adds an item to the front.
func (s *Slice[T]) Prepend(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s = append([]T{item}, s.s...)
}

// Get returns the item at index, if in range.
func (s *Slice[T]) Get(index int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.s) {
		var zero T
		return zero, false
	}
	return s.s[index], true
}

// Set replaces the item at index, if in range.
func (s *Slice[T]) Set(index int, item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.s) {
		return false
	}
	s.s[index] = item
	return true
}

// Delete removes the item at index, if in range.
func (s *Slice[T]) Delete(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.s) {
		return false
	}
	s.s = slices.Delete(s.s, index, index+1)
	return true
}

// SetSlice replaces the contents with a copy of the given slice.
func (s *Slice[T]) SetSlice(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s = slices.Clone(items)
}

// Len returns the number of items.
func (s *Slice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.s)
}

// Seq iterates over a snapshot of the items.
func (s *Slice[T]) Seq() iter.Seq[T] {
	s.mu.RLock()
	snapshot := slices.Clone(s.s)
	s.mu.RUnlock()
	return func(yield func(T) bool) {
		for _, item := range snapshot {
			if !yield(item) {
				return
			}
		}
	}
}
