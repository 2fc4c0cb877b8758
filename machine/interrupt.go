package machine

import (
	"container/heap"
	"errors"
	"fmt"
)

var (
	// ErrTickLimit is raised once the clock passes Config.MaxTicks.
	ErrTickLimit = errors.New("machine: tick limit exceeded")
	// ErrNoPendingInterrupts is raised when the processor idles with
	// nothing scheduled that could ever wake it up.
	ErrNoPendingInterrupts = errors.New("machine: idle with no pending interrupts")
)

type pendingInterrupt struct {
	time    int64
	seq     uint64
	kind    string
	handler func()
}

// interruptQueue is a min-heap of pending interrupts ordered by due time,
// then by the order they were scheduled.
type interruptQueue []*pendingInterrupt

func (q interruptQueue) Len() int { return len(q) }

func (q interruptQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q interruptQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *interruptQueue) Push(x any) { *q = append(*q, x.(*pendingInterrupt)) }

func (q *interruptQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return p
}

// Interrupt simulates the processor's interrupt controller.
//
// Simulated time only moves when interrupts go from disabled to enabled
// (one tick), or when the processor idles. Due interrupts are serviced
// at exactly those points, with interrupts disabled, so a span of code that
// runs with interrupts disabled can never be interleaved with a handler.
type Interrupt struct {
	enabled bool
	pending interruptQueue
	seq     uint64

	stats      *Stats
	kernelTick int64
	maxTicks   int64
	trace      *Tracer
}

// NewInterrupt returns a controller with interrupts disabled.
func NewInterrupt(stats *Stats, cfg Config, trace *Tracer) *Interrupt {
	cfg = cfg.withDefaults()
	return &Interrupt{
		stats:      stats,
		kernelTick: cfg.KernelTick,
		maxTicks:   cfg.MaxTicks,
		trace:      trace,
	}
}

// Enable turns interrupts on.
func (i *Interrupt) Enable() {
	i.SetStatus(true)
}

// Disable turns interrupts off and returns the previous status.
func (i *Interrupt) Disable() bool {
	return i.SetStatus(false)
}

// Restore puts back a status previously returned by Disable.
func (i *Interrupt) Restore(status bool) {
	i.SetStatus(status)
}

// SetStatus sets the interrupt status and returns the old one. Enabling
// interrupts that were disabled advances the clock by one tick.
func (i *Interrupt) SetStatus(status bool) bool {
	old := i.enabled
	i.enabled = status
	if !old && status {
		i.tick()
	}
	return old
}

func (i *Interrupt) Enabled() bool  { return i.enabled }
func (i *Interrupt) Disabled() bool { return !i.enabled }

// Schedule arranges for handler to run delay ticks from now.
func (i *Interrupt) Schedule(delay int64, kind string, handler func()) {
	Assert(delay > 0, "interrupt %q scheduled %d ticks from now", kind, delay)
	i.seq++
	heap.Push(&i.pending, &pendingInterrupt{
		time:    i.stats.TotalTicks + delay,
		seq:     i.seq,
		kind:    kind,
		handler: handler,
	})
	i.trace.Printf(TraceInterrupt, "Scheduling %s interrupt for tick %d", kind, i.stats.TotalTicks+delay)
}

// Pending returns the number of interrupts waiting to fire.
func (i *Interrupt) Pending() int {
	return len(i.pending)
}

// Idle is called when no thread is ready to run. It jumps the clock to the
// next pending interrupt and services it.
func (i *Interrupt) Idle() {
	status := i.Disable()
	if len(i.pending) == 0 {
		panic(fmt.Errorf("at tick %d: %w", i.stats.TotalTicks, ErrNoPendingInterrupts))
	}
	if next := i.pending[0].time; next > i.stats.TotalTicks {
		i.trace.Printf(TraceInterrupt, "Machine idling; advancing from tick %d to %d", i.stats.TotalTicks, next)
		i.stats.IdleTicks += next - i.stats.TotalTicks
		i.stats.TotalTicks = next
		i.checkLimit()
	}
	i.checkIfDue()
	i.Restore(status)
}

func (i *Interrupt) tick() {
	i.stats.TotalTicks += i.kernelTick
	i.stats.KernelTicks += i.kernelTick
	i.trace.Printf(TraceInterrupt, "== Tick %d ==", i.stats.TotalTicks)
	i.checkLimit()

	i.enabled = false
	i.checkIfDue()
	i.enabled = true
}

func (i *Interrupt) checkLimit() {
	if i.maxTicks > 0 && i.stats.TotalTicks > i.maxTicks {
		panic(fmt.Errorf("at tick %d (limit %d): %w", i.stats.TotalTicks, i.maxTicks, ErrTickLimit))
	}
}

// checkIfDue services every interrupt due at the current time. Each entry
// leaves the queue before its handler runs: a handler may switch to another
// thread, which can re-enter checkIfDue before this call resumes.
func (i *Interrupt) checkIfDue() {
	Assert(i.Disabled(), "servicing interrupts with interrupts enabled")
	now := i.stats.TotalTicks
	for len(i.pending) > 0 && i.pending[0].time <= now {
		next := heap.Pop(&i.pending).(*pendingInterrupt)
		i.trace.Printf(TraceInterrupt, "Invoking %s interrupt handler at tick %d", next.kind, now)
		next.handler()
	}
}
