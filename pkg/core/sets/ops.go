package sets

import (
	"cmp"
	"slices"
)

// GetSplitIndex calculates the index at which to split a slice of a given length
// into two halves. The first half will be larger if the length is odd.
func GetSplitIndex(length int) int {
	return (length + 1) / 2
}

// Split divides a slice into two approximately equal halves. Both halves are
// fresh copies, so later appends never alias the input.
func Split[E any](slice []E) ([]E, []E) {
	if len(slice) == 0 {
		return []E{}, []E{}
	}
	mid := GetSplitIndex(len(slice))
	return slices.Clone(slice[:mid]), slices.Clone(slice[mid:])
}

// Union returns a new set containing all elements present in either set a or set b.
func Union[E comparable](a, b Set[E]) Set[E] {
	result := make(Set[E], len(a)+len(b))
	for k := range a {
		result[k] = struct{}{}
	}
	for k := range b {
		result[k] = struct{}{}
	}
	return result
}

// Intersection returns a new set containing only the elements present in both set a and set b.
func Intersection[E comparable](a, b Set[E]) Set[E] {
	if len(a) > len(b) {
		a, b = b, a
	}

	result := make(Set[E])
	for k := range a {
		if _, found := b[k]; found {
			result[k] = struct{}{}
		}
	}
	return result
}

// Subtract returns a new set containing elements from set a that are not present in set b.
func Subtract[E comparable](a, b Set[E]) Set[E] {
	result := make(Set[E])
	for k := range a {
		if _, found := b[k]; !found {
			result[k] = struct{}{}
		}
	}
	return result
}

// Equal checks if two sets contain the exact same elements.
func Equal[E comparable](a, b Set[E]) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, found := b[k]; !found {
			return false
		}
	}
	return true
}

// MakeSet converts a slice into a Set for efficient lookups.
// Duplicates in the slice are removed.
func MakeSet[E comparable](slice []E) Set[E] {
	return Of(slice...)
}

// MakeSlice converts a Set into a new, sorted slice.
func MakeSlice[E cmp.Ordered](set Set[E]) []E {
	slice := make([]E, 0, len(set))
	for k := range set {
		slice = append(slice, k)
	}
	slices.Sort(slice)
	return slice
}

// SubtractSlices returns a new slice containing elements from the 'a' slice
// that are not present in the 'b' slice. The order of elements in 'a' is preserved.
func SubtractSlices[E comparable](a []E, b []E) []E {
	return Without(a, MakeSet(b))
}

// Without returns the elements of list that are not in drop, in list order.
func Without[E comparable](list []E, drop Set[E]) []E {
	result := make([]E, 0, len(list))
	for _, item := range list {
		if _, found := drop[item]; !found {
			result = append(result, item)
		}
	}
	return result
}

// Keep returns the elements of list that are in keep, in list order.
func Keep[E comparable](list []E, keep Set[E]) []E {
	result := make([]E, 0, len(list))
	for _, item := range list {
		if _, found := keep[item]; found {
			result = append(result, item)
		}
	}
	return result
}

// Concat flattens groups into one new slice.
func Concat[E any](groups ...[]E) []E {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	result := make([]E, 0, n)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}

// Copy returns a new set containing all elements from the original set.
func Copy[E comparable](original Set[E]) Set[E] {
	newSet := make(Set[E], len(original))
	for k := range original {
		newSet[k] = struct{}{}
	}
	return newSet
}
