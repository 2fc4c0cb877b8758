// Package machine simulates the single processor the kernel runs on: a
// tick counter, an interrupt controller that is the only source of
// asynchrony, and a periodic hardware timer.
package machine

// Machine bundles the simulated hardware built from one Config.
type Machine struct {
	stats     Stats
	config    Config
	trace     *Tracer
	interrupt *Interrupt
	timer     *Timer
}

// New builds a machine. Interrupts start out disabled; the kernel enables
// them once its first thread is running.
func New(cfg Config) *Machine {
	cfg = cfg.withDefaults()
	m := &Machine{config: cfg}
	m.trace = NewTracer(cfg.Debug, cfg.Trace)
	m.interrupt = NewInterrupt(&m.stats, cfg, m.trace)
	m.timer = NewTimer(m.interrupt, &m.stats, cfg)
	return m
}

func (m *Machine) Interrupt() *Interrupt { return m.interrupt }
func (m *Machine) Timer() *Timer         { return m.timer }
func (m *Machine) Stats() *Stats         { return &m.stats }
func (m *Machine) Tracer() *Tracer       { return m.trace }
func (m *Machine) Config() Config        { return m.config }
