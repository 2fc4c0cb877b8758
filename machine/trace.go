package machine

import (
	"fmt"
	"io"
	"strings"
)

// Trace flags.
const (
	TraceInterrupt = 'i'
	TraceThread    = 't'
	TraceAlarm     = 'a'
	TraceCondition = 'c'
	TraceAll       = '+'
)

// Tracer prints debug lines for the subsystems selected by its flags.
// A nil *Tracer traces nothing.
type Tracer struct {
	flags string
	w     io.Writer
}

// NewTracer returns a tracer writing to w for the subsystems in flags.
func NewTracer(flags string, w io.Writer) *Tracer {
	return &Tracer{flags: flags, w: w}
}

// Enabled reports whether flag is being traced.
func (t *Tracer) Enabled(flag byte) bool {
	if t == nil || t.flags == "" {
		return false
	}
	return strings.IndexByte(t.flags, TraceAll) >= 0 || strings.IndexByte(t.flags, flag) >= 0
}

// Printf writes one line if flag is being traced.
func (t *Tracer) Printf(flag byte, format string, args ...any) {
	if !t.Enabled(flag) {
		return
	}
	fmt.Fprintf(t.w, format, args...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(t.w)
	}
}
