package runner

import (
	"fmt"
	"time"
)

// Limits bound the wall time of a run relative to the original run.
type Limits struct {
	Factor  float64
	Bias    time.Duration
	HardCap time.Duration
}

func DefaultLimits() Limits {
	return Limits{Factor: 2.0, Bias: 5 * time.Second, HardCap: 200 * time.Second}
}

func (l Limits) Validate() error {
	if l.Factor < 1 {
		return fmt.Errorf("time factor must be at least 1, got %v", l.Factor)
	}
	if l.Bias < 0 {
		return fmt.Errorf("time bias must not be negative, got %s", l.Bias)
	}
	if l.HardCap <= 0 {
		return fmt.Errorf("hard time cap must be positive, got %s", l.HardCap)
	}
	return nil
}

// Timeout returns original*Factor + Bias, but no more than HardCap. Without
// an original run time only the hard cap applies.
func (l Limits) Timeout(original time.Duration) time.Duration {
	if original <= 0 {
		return l.HardCap
	}
	soft := time.Duration(float64(original)*l.Factor) + l.Bias
	return min(soft, l.HardCap)
}
