package dd

// Composite runs strategies one after another over the same representation.
type Composite[R any] struct {
	strategies []Strategy[R]
	current    int
}

// NewComposite chains the given strategies in order.
func NewComposite[R any](strategies ...Strategy[R]) *Composite[R] {
	return &Composite[R]{strategies: strategies}
}

func (c *Composite[R]) CanMutate(repr R) (bool, error) {
	for c.current < len(c.strategies) {
		ok, err := c.strategies[c.current].CanMutate(repr)
		if err != nil || ok {
			return ok, err
		}
		c.current++
	}
	return false, nil
}

func (c *Composite[R]) Mutate(repr R) error {
	if c.current >= len(c.strategies) {
		panic(precondition("Mutate", "all strategies are exhausted"))
	}
	return c.strategies[c.current].Mutate(repr)
}

func (c *Composite[R]) SetResult(repr R, outcome Outcome) (Rollback, error) {
	if c.current >= len(c.strategies) {
		panic(precondition("SetResult", "all strategies are exhausted"))
	}
	return c.strategies[c.current].SetResult(repr, outcome)
}

// Current returns the index of the active strategy.
func (c *Composite[R]) Current() int {
	return c.current
}

// Stats returns the statistics of every strategy that keeps them, in order.
func (c *Composite[R]) Stats() []*Stats {
	var result []*Stats
	for _, s := range c.strategies {
		if r, ok := s.(StatsReporter); ok {
			result = append(result, r.Stats()...)
		}
	}
	return result
}

// ExecutionLog returns the log of the first strategy that records rounds.
// Chained strategies are expected to share one log through WithExecutionLog.
func (c *Composite[R]) ExecutionLog() *ExecutionLog {
	for _, s := range c.strategies {
		if l, ok := s.(ExecutionLogger); ok && l.ExecutionLog() != nil {
			return l.ExecutionLog()
		}
	}
	return nil
}
