package util

// Set is a generic set of comparable values
type Set[T comparable] map[T]struct{}

// SetOf returns a new Set containing the provided values
func SetOf[T comparable](values ...T) Set[T] {
	res := make(Set[T], len(values))
	for _, v := range values {
		res[v] = struct{}{}
	}
	return res
}

// Add inserts a value into the Set
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

// AddAll inserts every value of another Set into this one
func (s Set[T]) AddAll(other Set[T]) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Remove deletes a value from the Set
func (s Set[T]) Remove(v T) {
	delete(s, v)
}

// Contains reports whether the value is in the Set
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Intersects reports whether the two Sets share at least one value
func (s Set[T]) Intersects(other Set[T]) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for v := range small {
		if large.Contains(v) {
			return true
		}
	}
	return false
}

// Len returns the number of values in the Set
func (s Set[T]) Len() int {
	return len(s)
}

// IsEmpty reports whether the Set has no values
func (s Set[T]) IsEmpty() bool {
	return len(s) == 0
}
