// Package sets provides utility functions for common operations on sets and
// ordered element slices. Sets are represented as map[E]struct{} for efficient
// lookups; ordered slices keep the discovery order of elements.
package sets

import (
	"fmt"
	"strings"
)

// Set represents a collection of unique values.
type Set[E comparable] map[E]struct{}

// Of builds a Set from the given values.
func Of[E comparable](values ...E) Set[E] {
	set := make(Set[E], len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Has reports whether v is in the set.
func (s Set[E]) Has(v E) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v into the set.
func (s Set[E]) Add(v E) {
	s[v] = struct{}{}
}

// AddAll inserts every value of vs into the set.
func (s Set[E]) AddAll(vs []E) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

// Remove deletes v from the set.
func (s Set[E]) Remove(v E) {
	delete(s, v)
}

// ListFormatter provides a lazy, fmt.Stringer-compliant way to format an
// element slice for logging. Only the first few elements are printed.
type ListFormatter[E any] struct {
	list []E
}

// ShortList returns a ListFormatter that can be used in logging statements.
func ShortList[E any](list []E) ListFormatter[E] {
	return ListFormatter[E]{list: list}
}

const shortListLimit = 3

// String implements the fmt.Stringer interface.
func (lf ListFormatter[E]) String() string {
	if len(lf.list) == 0 {
		return "(no elements)"
	}
	var sb strings.Builder
	sb.WriteString("(")
	for i, e := range lf.list {
		if i == shortListLimit {
			sb.WriteString(", ...")
			break
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, e)
	}
	sb.WriteString(")")
	return sb.String()
}
