package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
)

var (
	ErrNoProperty          = errors.New("neither a minimization nor a maximization property is configured")
	ErrOverlappingProperty = errors.New("minimization and maximization properties overlap")
	ErrNoOriginal          = errors.New("the original run has not been recorded")
)

// Classifier maps analysis outcomes onto delta debugging outcomes: an outcome
// in the minimization property is a FAIL, one in the maximization property a
// PASS, anything else is unresolved.
type Classifier struct {
	minProperty map[AnalysisOutcome]bool
	maxProperty map[AnalysisOutcome]bool
	minNames    []AnalysisOutcome
	maxNames    []AnalysisOutcome

	original    Result
	hasOriginal bool
}

// NewClassifier builds a classifier. A property naming a failure or a false
// verdict also covers the same failure or the same false verdict.
func NewClassifier(minProperty, maxProperty []AnalysisOutcome) (*Classifier, error) {
	if len(minProperty) == 0 && len(maxProperty) == 0 {
		return nil, ErrNoProperty
	}
	c := &Classifier{
		minProperty: normalizeProperty(minProperty),
		maxProperty: normalizeProperty(maxProperty),
		minNames:    minProperty,
		maxNames:    maxProperty,
	}
	for o := range c.minProperty {
		if c.maxProperty[o] {
			return nil, fmt.Errorf("%w: %s", ErrOverlappingProperty, o.Human())
		}
	}
	return c, nil
}

func normalizeProperty(outcomes []AnalysisOutcome) map[AnalysisOutcome]bool {
	set := make(map[AnalysisOutcome]bool, len(outcomes)+2)
	for _, o := range outcomes {
		set[o] = true
	}
	if set[FailureBecauseOfException] {
		set[FailureBecauseOfSameException] = true
	}
	if set[VerdictFalse] {
		set[SameVerdictFalse] = true
	}
	return set
}

// SetOriginal records the run on the unmodified input. Later runs that fail
// with the same message or report the same false verdict are normalized
// against it.
func (c *Classifier) SetOriginal(r Result) {
	c.original = r
	c.hasOriginal = true
}

// Original returns the recorded original run.
func (c *Classifier) Original() (Result, error) {
	if !c.hasOriginal {
		return Result{}, ErrNoOriginal
	}
	return c.original, nil
}

// Normalize returns the outcome of r relative to the original run.
func (c *Classifier) Normalize(r Result) AnalysisOutcome {
	return c.normalizeAgainst(r).Outcome
}

func (c *Classifier) normalizeAgainst(r Result) Result {
	if !c.hasOriginal {
		return r
	}
	switch r.Outcome {
	case FailureBecauseOfException:
		if r.Detail == c.original.Detail {
			r.Outcome = FailureBecauseOfSameException
		}
	case VerdictFalse:
		if r.Detail == c.original.Detail {
			r.Outcome = SameVerdictFalse
		}
	}
	return r
}

// Classify maps a run to a delta debugging outcome.
func (c *Classifier) Classify(r Result) dd.Outcome {
	o := c.Normalize(r)
	switch {
	case c.minProperty[o]:
		return dd.OutcomeFail
	case c.maxProperty[o]:
		return dd.OutcomePass
	default:
		return dd.OutcomeUnresolved
	}
}

// SuggestedDirection picks the direction the configured properties allow.
func (c *Classifier) SuggestedDirection() dd.Direction {
	switch {
	case len(c.minNames) > 0 && len(c.maxNames) > 0:
		return dd.Isolate
	case len(c.maxNames) > 0:
		return dd.Maximize
	default:
		return dd.Minimize
	}
}

// ApproachName describes what a reduction in direction d looks for.
func (c *Classifier) ApproachName(d dd.Direction) string {
	switch d {
	case dd.Isolate:
		return fmt.Sprintf("isolate what causes a change from %s to %s", propertyString(c.maxNames), propertyString(c.minNames))
	case dd.Maximize:
		return "maximize for " + propertyString(c.maxNames)
	default:
		return "minimize for " + propertyString(c.minNames)
	}
}

func propertyString(outcomes []AnalysisOutcome) string {
	parts := make([]string, len(outcomes))
	for i, o := range outcomes {
		parts[i] = o.Human()
	}
	return strings.Join(parts, " or ")
}
