package dd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Stats accumulates the numbers of one pass, i.e. one engine lifetime over
// one working set.
type Stats struct {
	Pass  int
	Title string

	TotalRounds      int
	FailRounds       int
	PassRounds       int
	UnresolvedRounds int
	CacheHits        int

	LongestRollbackRow int
	currentRollbackRow int

	Premath   time.Duration
	Mutation  time.Duration
	Aftermath time.Duration

	Found      int
	Cause      int
	Safe       int
	Removed    int
	Unresolved int
}

// Name identifies the pass, e.g. "Lines 2".
func (s *Stats) Name() string {
	return fmt.Sprintf("%s %d", s.Title, s.Pass)
}

// Total is the time spent inside the engine.
func (s *Stats) Total() time.Duration {
	return s.Premath + s.Mutation + s.Aftermath
}

// CurrentRollbackRow is the number of rollbacks since the last kept mutation.
func (s *Stats) CurrentRollbackRow() int {
	return s.currentRollbackRow
}

func (s *Stats) recordRound(outcome Outcome, rollback Rollback, cached bool) {
	if cached {
		s.CacheHits++
	} else {
		s.TotalRounds++
		switch outcome {
		case OutcomeFail:
			s.FailRounds++
		case OutcomePass:
			s.PassRounds++
		default:
			s.UnresolvedRounds++
		}
	}

	if rollback == NoRollback {
		s.currentRollbackRow = 0
		return
	}
	s.currentRollbackRow++
	if s.currentRollbackRow > s.LongestRollbackRow {
		s.LongestRollbackRow = s.currentRollbackRow
	}
}

// WriteReport prints the pass in a human readable table.
func (s *Stats) WriteReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", s.Name())
	fmt.Fprintf(tw, "  Rounds:\t%d (fail %d, pass %d, unresolved %d)\n", s.TotalRounds, s.FailRounds, s.PassRounds, s.UnresolvedRounds)
	fmt.Fprintf(tw, "  Cache hits:\t%d\n", s.CacheHits)
	fmt.Fprintf(tw, "  Longest row of rollbacks:\t%d\n", s.LongestRollbackRow)
	fmt.Fprintf(tw, "  Elements found:\t%d\n", s.Found)
	fmt.Fprintf(tw, "  Resolved to cause:\t%d\n", s.Cause)
	fmt.Fprintf(tw, "  Resolved to safe:\t%d\n", s.Safe)
	fmt.Fprintf(tw, "  Removed:\t%d\n", s.Removed)
	fmt.Fprintf(tw, "  Unresolved:\t%d\n", s.Unresolved)
	fmt.Fprintf(tw, "  Time:\t%s (premath %s, mutation %s, aftermath %s)\n",
		s.Total().Round(time.Millisecond), s.Premath.Round(time.Millisecond),
		s.Mutation.Round(time.Millisecond), s.Aftermath.Round(time.Millisecond))
	return tw.Flush()
}
