package dd

import (
	"fmt"
	"strings"
)

// Direction decides which outcome counts as progress. It is a plain value
// handed to an engine; the state machine never changes with it, only the
// interpretation of outcomes does.
type Direction struct {
	name string
	// keepsOnFail keeps a removal when the minimization property still holds.
	keepsOnFail bool
	// learnsOnPass marks the unmutated rest as safe when the removal passes.
	learnsOnPass bool
	// checksWhole tests the untouched working set before searching.
	checksWhole bool
	// removesCauseAtEnd deletes the cause once the search is over.
	removesCauseAtEnd bool
}

var (
	// Minimize shrinks a failing configuration.
	Minimize = Direction{name: "minimize", keepsOnFail: true}
	// Maximize grows a passing configuration and reports what had to go.
	Maximize = Direction{name: "maximize", learnsOnPass: true, checksWhole: true, removesCauseAtEnd: true}
	// Isolate narrows the difference between a failing and a passing configuration.
	Isolate = Direction{name: "isolate", keepsOnFail: true, learnsOnPass: true}
)

func (d Direction) String() string {
	return d.name
}

// ParseDirection accepts "minimize", "maximize" or "isolate" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimize", "min", "minimization":
		return Minimize, nil
	case "maximize", "max", "maximization":
		return Maximize, nil
	case "isolate", "isolation":
		return Isolate, nil
	}
	return Direction{}, fmt.Errorf("unknown direction %q", s)
}

// Mode restricts which parts an engine may try to remove.
type Mode int

const (
	DeltasAndComplements Mode = iota
	OnlyDeltas
	OnlyComplements
)

func (m Mode) allowsDeltas() bool {
	return m != OnlyComplements
}

func (m Mode) allowsComplements() bool {
	return m != OnlyDeltas
}

func (m Mode) String() string {
	switch m {
	case OnlyDeltas:
		return "only-deltas"
	case OnlyComplements:
		return "only-complements"
	default:
		return "deltas-and-complements"
	}
}

// ParseMode accepts the String form of a Mode. Empty selects the default.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deltas-and-complements", "both":
		return DeltasAndComplements, nil
	case "only-deltas", "deltas":
		return OnlyDeltas, nil
	case "only-complements", "complements":
		return OnlyComplements, nil
	}
	return DeltasAndComplements, fmt.Errorf("unknown mode %q", s)
}
