package machine

import "fmt"

// AssertionError is the panic value raised when a kernel invariant or a
// caller precondition does not hold.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Msg
}

// Assert panics with an *AssertionError if cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(&AssertionError{Msg: fmt.Sprintf(format, args...)})
	}
}
