package dd_test

import (
	"testing"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarMinimize(t *testing.T) {
	p := numbered(8)
	s := dd.NewStar(newManipulator(""), dd.Minimize)

	drive(t, s, p, failWhenAny("1", "6"), nil)

	assert.Equal(t, [][]string{{"6"}}, s.CauseSets())
	assert.Equal(t, []string{"6"}, p.Present())
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "7"}, sorted(s.RemovedElements()))
	assert.Len(t, s.Stats(), 2)
}

// Maximizing keeps removing independent causes until the rest passes.
func TestStarMaximize(t *testing.T) {
	p := numbered(8)
	s := dd.NewStar(newManipulator(""), dd.Maximize)

	drive(t, s, p, failWhenAny("1", "6"), nil)

	assert.Equal(t, [][]string{{"6"}, {"1"}}, s.CauseSets())
	assert.Equal(t, []string{"0", "2", "3", "4", "5", "7"}, p.Present())
	assert.Equal(t, []string{"0", "2", "3", "4", "5", "7"}, sorted(s.SafeElements()))
	assert.Equal(t, []string{"1", "6"}, sorted(s.RemovedElements()))
	assert.Len(t, s.Stats(), 3)
}

func TestStarRejectsIsolate(t *testing.T) {
	assert.Panics(t, func() { dd.NewStar(newManipulator(""), dd.Isolate) })
}

func TestStarResultsRequireFinish(t *testing.T) {
	p := numbered(3)
	s := dd.NewStar(newManipulator(""), dd.Minimize)

	ok, err := s.CanMutate(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Panics(t, func() { s.CauseSets() })
}
