// Package runner executes the analysis under test and classifies its runs.
package runner

import (
	"fmt"
	"strings"
)

// AnalysisOutcome is the raw result of one run of the analysis.
type AnalysisOutcome string

const (
	VerdictTrue                    AnalysisOutcome = "VERDICT_TRUE"
	SameVerdictFalse               AnalysisOutcome = "SAME_VERDICT_FALSE"
	VerdictFalse                   AnalysisOutcome = "VERDICT_FALSE"
	VerdictUnknownBecauseOfTimeout AnalysisOutcome = "VERDICT_UNKNOWN_BECAUSE_OF_TIMEOUT"
	FailureBecauseOfSameException  AnalysisOutcome = "FAILURE_BECAUSE_OF_SAME_EXCEPTION"
	FailureBecauseOfException      AnalysisOutcome = "FAILURE_BECAUSE_OF_EXCEPTION"
	AnotherVerdictUnknown          AnalysisOutcome = "ANOTHER_VERDICT_UNKNOWN"
)

// AllOutcomes lists every outcome in declaration order.
var AllOutcomes = []AnalysisOutcome{
	VerdictTrue,
	SameVerdictFalse,
	VerdictFalse,
	VerdictUnknownBecauseOfTimeout,
	FailureBecauseOfSameException,
	FailureBecauseOfException,
	AnotherVerdictUnknown,
}

// Human returns the outcome in lower case words, e.g. "verdict false".
func (o AnalysisOutcome) Human() string {
	return strings.ReplaceAll(strings.ToLower(string(o)), "_", " ")
}

// ParseAnalysisOutcome accepts the constant name in any case, with
// underscores, dashes or spaces between words.
func ParseAnalysisOutcome(s string) (AnalysisOutcome, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, o := range AllOutcomes {
		if string(o) == norm {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown analysis outcome %q", s)
}

// ParseAnalysisOutcomes parses a list of outcomes.
func ParseAnalysisOutcomes(list []string) ([]AnalysisOutcome, error) {
	result := make([]AnalysisOutcome, 0, len(list))
	for _, s := range list {
		o, err := ParseAnalysisOutcome(s)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}
