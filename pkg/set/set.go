// Package set provides an insertion-ordered set.
package set

import (
	"iter"
	"slices"
)

// Set keeps the order in which items were first added. The zero value is ready to use.
type Set[T comparable] struct {
	index map[T]struct{}
	items []T
}

func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	s.Add(items...)
	return s
}

// Add inserts items and returns how many of them were not already present.
func (s *Set[T]) Add(items ...T) int {
	if s.index == nil {
		s.index = make(map[T]struct{}, len(items))
	}
	added := 0
	for _, item := range items {
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = struct{}{}
		s.items = append(s.items, item)
		added++
	}
	return added
}

func (s *Set[T]) Contains(item T) bool {
	_, ok := s.index[item]
	return ok
}

func (s *Set[T]) Len() int {
	return len(s.items)
}

// Items yields the items in insertion order.
func (s *Set[T]) Items() iter.Seq[T] {
	return slices.Values(s.items)
}

// Slice returns a copy of the items in insertion order.
func (s *Set[T]) Slice() []T {
	return slices.Clone(s.items)
}
