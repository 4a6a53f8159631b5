package manip

import "errors"

var (
	ErrNotSetUp          = errors.New("dependency graph is not set up")
	ErrElementMissing    = errors.New("element is not present")
	ErrElementPresent    = errors.New("element is already present")
	ErrElementUnknown    = errors.New("element was never discovered")
	ErrNothingToRollback = errors.New("no mutation to roll back")
)
