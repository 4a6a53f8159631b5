package dd

// Outcome classifies one run of the analysis under test.
type Outcome string

const (
	// OutcomeFail means the minimization property holds: the cause is present.
	OutcomeFail Outcome = "FAIL"
	// OutcomePass means the maximization property holds: the configuration is good.
	OutcomePass Outcome = "PASS"
	// OutcomeUnresolved means neither property could be concluded.
	OutcomeUnresolved Outcome = "UNRESOLVED"
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeFail, OutcomePass, OutcomeUnresolved:
		return true
	}
	return false
}

// Rollback tells the driver whether the last mutation was kept.
type Rollback int

const (
	NoRollback Rollback = iota
	RolledBack
)

func (r Rollback) String() string {
	if r == NoRollback {
		return "kept"
	}
	return "rolled back"
}
