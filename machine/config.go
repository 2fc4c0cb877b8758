package machine

import (
	"flag"
	"io"
	"os"
)

// Config holds the tunables of the simulated machine.
type Config struct {
	// Ticks charged every time interrupts are re-enabled.
	KernelTick int64

	// Nominal number of ticks between two timer interrupts.
	TimerTicks int64

	// If set, each timer period is randomized by up to 5% either way,
	// so programs cannot depend on interrupts landing on exact ticks.
	Jitter bool

	// Seed for the jitter source.
	Seed int64

	// The machine aborts once the clock passes MaxTicks. Zero means no limit.
	MaxTicks int64

	// Trace flags, one character per subsystem. "+" enables all of them.
	Debug string

	// Where trace output goes. Nil means os.Stdout.
	Trace io.Writer
}

// DefaultConfig returns the configuration the kernel boots with when
// nothing is overridden.
func DefaultConfig() Config {
	return Config{
		KernelTick: 10,
		TimerTicks: 500,
		Jitter:     true,
		Trace:      os.Stdout,
	}
}

// RegisterFlags binds the config fields to command line flags on fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Debug, "d", c.Debug, "enable trace flags (i=interrupts t=threads a=alarm c=condition +=all)")
	fs.Int64Var(&c.Seed, "s", c.Seed, "seed for timer jitter")
	fs.Int64Var(&c.MaxTicks, "x", c.MaxTicks, "abort after this many ticks (0 = never)")
	fs.Int64Var(&c.TimerTicks, "timer", c.TimerTicks, "nominal ticks between timer interrupts")
	fs.BoolVar(&c.Jitter, "jitter", c.Jitter, "randomize the timer period")
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.KernelTick <= 0 {
		c.KernelTick = def.KernelTick
	}
	if c.TimerTicks <= 0 {
		c.TimerTicks = def.TimerTicks
	}
	if c.Trace == nil {
		c.Trace = def.Trace
	}
	return c
}
