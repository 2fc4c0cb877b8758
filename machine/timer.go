package machine

import "math/rand"

// Timer is the hardware timer. It raises an interrupt roughly every
// Config.TimerTicks ticks and reports the current time.
type Timer struct {
	interrupt *Interrupt
	stats     *Stats

	period int64
	jitter *rand.Rand

	handler       func()
	lastInterrupt int64
}

// NewTimer starts a timer whose interrupts are delivered through interrupt.
func NewTimer(interrupt *Interrupt, stats *Stats, cfg Config) *Timer {
	cfg = cfg.withDefaults()
	t := &Timer{
		interrupt: interrupt,
		stats:     stats,
		period:    cfg.TimerTicks,
	}
	if cfg.Jitter && cfg.TimerTicks >= 20 {
		t.jitter = rand.New(rand.NewSource(cfg.Seed))
	}
	t.scheduleInterrupt()
	return t
}

// SetInterruptHandler installs the function called on every timer
// interrupt. It runs with interrupts disabled. There is a single slot, so
// installing a handler replaces the previous one.
func (t *Timer) SetInterruptHandler(handler func()) {
	t.handler = handler
}

// GetTime returns the number of ticks since the machine booted.
func (t *Timer) GetTime() int64 {
	return t.stats.TotalTicks
}

// LastInterrupt returns the tick at which the most recent timer interrupt
// was delivered.
func (t *Timer) LastInterrupt() int64 {
	return t.lastInterrupt
}

func (t *Timer) timerInterrupt() {
	// Reschedule first; the handler may not return for a long time.
	t.scheduleInterrupt()
	t.stats.TimerInterrupts++
	t.lastInterrupt = t.GetTime()
	if t.handler != nil {
		t.handler()
	}
}

func (t *Timer) scheduleInterrupt() {
	delay := t.period
	if t.jitter != nil {
		delay += t.jitter.Int63n(delay/10) - delay/20
	}
	t.interrupt.Schedule(delay, "timer", t.timerInterrupt)
}
