package app

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/ui"
	"github.com/fatih/color"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	titleStyle   = color.New(color.Underline)
	causeStyle   = color.New(color.FgRed, color.Bold)
	safeStyle    = color.New(color.FgGreen)
	removedStyle = color.New(color.FgHiBlack)
	warnStyle    = color.New(color.FgYellow, color.Bold)
)

// Summary is what a finished or stopped run produced.
type Summary struct {
	RunID    string
	Target   string
	Approach string
	Strategy string
	Original dd.Outcome
	Rounds   int
	Complete bool
	Results  []ui.PassResult
	Stats    []*dd.Stats
	Output   string
	Graphs   []string
	Metrics  string
	Elapsed  time.Duration
}

// WriteReport prints the summary for a terminal. Colors follow color.NoColor.
func WriteReport(w io.Writer, s *Summary) error {
	var b strings.Builder
	b.WriteString(headerStyle.Sprintf("===== Reduction Report =====\n\n"))
	fmt.Fprintf(&b, "Run:      %s\n", s.RunID)
	fmt.Fprintf(&b, "Target:   %s\n", s.Target)
	fmt.Fprintf(&b, "Approach: %s (%s)\n", s.Approach, s.Strategy)
	fmt.Fprintf(&b, "Original: %s\n", s.Original)
	fmt.Fprintf(&b, "Rounds:   %d in %s\n", s.Rounds, s.Elapsed.Round(time.Millisecond))
	if !s.Complete {
		b.WriteString(warnStyle.Sprint("The reduction was stopped before it finished; the result is not minimal.\n"))
	}

	for _, r := range s.Results {
		b.WriteString("\n" + titleStyle.Sprint(r.Title) + "\n")
		writeCauses(&b, r.Causes)
		fmt.Fprintf(&b, "  %s, %s\n",
			safeStyle.Sprintf("%d safe", len(r.Safe)),
			removedStyle.Sprintf("%d removed", len(r.Removed)))
	}

	if len(s.Stats) > 0 {
		b.WriteString("\n" + headerStyle.Sprint("Statistics") + "\n")
		var stats bytes.Buffer
		for _, st := range s.Stats {
			if err := st.WriteReport(&stats); err != nil {
				return err
			}
			stats.WriteByte('\n')
		}
		b.Write(stats.Bytes())
	}

	if s.Output != "" {
		fmt.Fprintf(&b, "\nReduced input: %s\n", s.Output)
	}
	for _, g := range s.Graphs {
		fmt.Fprintf(&b, "Graph:         %s\n", g)
	}
	if s.Metrics != "" {
		fmt.Fprintf(&b, "Metrics:       %s\n", s.Metrics)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCauses(b *strings.Builder, causes [][]string) {
	if len(causes) == 0 {
		b.WriteString("  No cause found.\n")
		return
	}
	for i, cause := range causes {
		if len(causes) > 1 {
			fmt.Fprintf(b, "  Cause #%d\n", i+1)
		}
		for _, e := range cause {
			b.WriteString("  - " + causeStyle.Sprint(e) + "\n")
		}
	}
}
