package sets_test

import (
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/sets"
	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	testCases := []struct {
		name          string
		input         []int
		first, second []int
	}{
		{name: "empty", input: nil, first: []int{}, second: []int{}},
		{name: "single", input: []int{1}, first: []int{1}, second: []int{}},
		{name: "even", input: []int{1, 2, 3, 4}, first: []int{1, 2}, second: []int{3, 4}},
		{name: "odd keeps larger half first", input: []int{1, 2, 3, 4, 5}, first: []int{1, 2, 3}, second: []int{4, 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			first, second := sets.Split(tc.input)
			assert.Equal(t, tc.first, first)
			assert.Equal(t, tc.second, second)
		})
	}
}

func TestSplitDoesNotAlias(t *testing.T) {
	input := []int{1, 2, 3, 4}
	first, _ := sets.Split(input)
	first = append(first, 99)
	assert.Equal(t, []int{1, 2, 3, 4}, input)
	assert.Equal(t, []int{1, 2, 99}, first)
}

func TestSetOperations(t *testing.T) {
	a := sets.Of("a", "b", "c")
	b := sets.Of("b", "c", "d")

	assert.Equal(t, []string{"a", "b", "c", "d"}, sets.MakeSlice(sets.Union(a, b)))
	assert.Equal(t, []string{"b", "c"}, sets.MakeSlice(sets.Intersection(a, b)))
	assert.Equal(t, []string{"a"}, sets.MakeSlice(sets.Subtract(a, b)))
	assert.True(t, sets.Equal(a, sets.Copy(a)))
	assert.False(t, sets.Equal(a, b))
}

func TestOrderedHelpers(t *testing.T) {
	list := []int{5, 3, 1, 4}
	assert.Equal(t, []int{5, 1}, sets.Without(list, sets.Of(3, 4)))
	assert.Equal(t, []int{3, 4}, sets.Keep(list, sets.Of(4, 3, 9)))
	assert.Equal(t, []int{5, 1, 4}, sets.SubtractSlices(list, []int{3}))
	assert.Equal(t, []int{1, 2, 3}, sets.Concat([]int{1}, nil, []int{2, 3}))
}

func TestShortList(t *testing.T) {
	assert.Equal(t, "(no elements)", sets.ShortList([]int{}).String())
	assert.Equal(t, "(1, 2)", sets.ShortList([]int{1, 2}).String())
	assert.Equal(t, "(1, 2, 3, ...)", sets.ShortList([]int{1, 2, 3, 4}).String())
}
