package set

import (
	"cmp"
	"slices"
)

// Set is not safe for concurrent use.
type Set[T comparable] struct {
	values map[T]struct{}
}

func New[T comparable](values ...T) *Set[T] {
	result := &Set[T]{values: make(map[T]struct{}, len(values))}
	result.Add(values...)
	return result
}

func (s *Set[T]) Add(values ...T) {
	for _, value := range values {
		s.values[value] = struct{}{}
	}
}

// AddNew adds value and reports whether it was absent before.
func (s *Set[T]) AddNew(value T) bool {
	if s.Contains(value) {
		return false
	}
	s.values[value] = struct{}{}
	return true
}

func (s *Set[T]) Len() int {
	return len(s.values)
}

func (s *Set[T]) Contains(value T) bool {
	_, ok := s.values[value]
	return ok
}

func (s *Set[T]) Slice() []T {
	result := make([]T, 0, s.Len())
	for value := range s.values {
		result = append(result, value)
	}
	return result
}

func Sorted[T cmp.Ordered](s *Set[T]) []T {
	result := s.Slice()
	slices.Sort(result)
	return result
}
