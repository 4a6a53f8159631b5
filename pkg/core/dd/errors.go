package dd

import "fmt"

// PreconditionError reports misuse of an engine, such as calling Mutate
// without a preceding successful CanMutate. It is raised with panic: the
// driver is broken and the representation cannot be trusted anymore.
type PreconditionError struct {
	Op  string
	Msg string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("dd: %s: %s", e.Op, e.Msg)
}

func precondition(op, format string, args ...any) *PreconditionError {
	return &PreconditionError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
