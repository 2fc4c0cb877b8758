package machine

import "fmt"

// Stats collects the machine's counters. Every field is only touched by the
// running kernel thread, so no locking is needed.
type Stats struct {
	// Simulated time since boot.
	TotalTicks int64

	// Ticks charged by interrupt enables.
	KernelTicks int64

	// Ticks skipped while the processor idled waiting for an interrupt.
	IdleTicks int64

	TimerInterrupts int64
	ContextSwitches int64
}

func (s *Stats) String() string {
	return fmt.Sprintf("Ticks: total %d, kernel %d, idle %d\nTimer interrupts: %d, context switches: %d",
		s.TotalTicks, s.KernelTicks, s.IdleTicks, s.TimerInterrupts, s.ContextSwitches)
}
