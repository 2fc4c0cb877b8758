package machine

import (
	"errors"
	"io"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Jitter = false
	cfg.Trace = io.Discard
	return cfg
}

func TestEnableTicks(t *testing.T) {
	var stats Stats
	intr := NewInterrupt(&stats, testConfig(), nil)

	if intr.Enabled() {
		t.Fatalf("interrupts start enabled")
	}
	intr.Enable()
	if stats.TotalTicks != 10 {
		t.Fatalf("enable: total ticks %d, want 10", stats.TotalTicks)
	}

	old := intr.Disable()
	if !old {
		t.Fatalf("Disable returned %v, want true", old)
	}
	// Disabled to disabled does not tick.
	intr.Restore(false)
	if stats.TotalTicks != 10 {
		t.Fatalf("restore(false): total ticks %d, want 10", stats.TotalTicks)
	}
	intr.Restore(old)
	if stats.TotalTicks != 20 || stats.KernelTicks != 20 {
		t.Fatalf("restore(true): ticks %d/%d, want 20/20", stats.TotalTicks, stats.KernelTicks)
	}
	// Enabled to enabled does not tick either.
	intr.Enable()
	if stats.TotalTicks != 20 {
		t.Fatalf("enable twice: total ticks %d, want 20", stats.TotalTicks)
	}
}

func TestPendingOrder(t *testing.T) {
	var stats Stats
	intr := NewInterrupt(&stats, testConfig(), nil)

	var fired []string
	at := func(name string) func() {
		return func() {
			if !intr.Disabled() {
				t.Errorf("%s: handler ran with interrupts enabled", name)
			}
			fired = append(fired, name)
		}
	}
	intr.Schedule(30, "c", at("c"))
	intr.Schedule(10, "a", at("a"))
	intr.Schedule(20, "b1", at("b1"))
	intr.Schedule(20, "b2", at("b2"))

	for intr.Pending() > 0 {
		intr.Idle()
	}
	want := []string{"a", "b1", "b2", "c"}
	if len(fired) != len(want) {
		t.Fatalf("fired %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired %v, want %v", fired, want)
		}
	}
	if stats.TotalTicks != 30 || stats.IdleTicks != 30 {
		t.Fatalf("ticks %d idle %d, want 30 30", stats.TotalTicks, stats.IdleTicks)
	}
}

func TestTickServicesDueInterrupts(t *testing.T) {
	var stats Stats
	intr := NewInterrupt(&stats, testConfig(), nil)
	n := 0
	intr.Schedule(25, "x", func() { n++ })

	for i := 0; i < 2; i++ {
		intr.Restore(true)
		intr.Disable()
	}
	if n != 0 {
		t.Fatalf("fired at tick %d, due at 25", stats.TotalTicks)
	}
	intr.Enable()
	if n != 1 {
		t.Fatalf("not fired at tick %d", stats.TotalTicks)
	}
}

func TestHandlerMaySchedule(t *testing.T) {
	var stats Stats
	intr := NewInterrupt(&stats, testConfig(), nil)
	var times []int64
	var handler func()
	handler = func() {
		times = append(times, stats.TotalTicks)
		if len(times) < 3 {
			intr.Schedule(100, "again", handler)
		}
	}
	intr.Schedule(100, "again", handler)
	for intr.Pending() > 0 {
		intr.Idle()
	}
	if len(times) != 3 || times[0] != 100 || times[1] != 200 || times[2] != 300 {
		t.Fatalf("fired at %v, want [100 200 300]", times)
	}
}

func TestIdleNothingPending(t *testing.T) {
	var stats Stats
	intr := NewInterrupt(&stats, testConfig(), nil)
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrNoPendingInterrupts) {
			t.Fatalf("recovered %v, want ErrNoPendingInterrupts", err)
		}
	}()
	intr.Idle()
	t.Fatalf("Idle returned")
}

func TestTickLimit(t *testing.T) {
	var stats Stats
	cfg := testConfig()
	cfg.MaxTicks = 25
	intr := NewInterrupt(&stats, cfg, nil)
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrTickLimit) {
			t.Fatalf("recovered %v, want ErrTickLimit", err)
		}
		if stats.TotalTicks != 30 {
			t.Fatalf("stopped at tick %d, want 30", stats.TotalTicks)
		}
	}()
	for i := 0; i < 10; i++ {
		intr.Restore(true)
		intr.Disable()
	}
	t.Fatalf("no tick limit at tick %d", stats.TotalTicks)
}

func TestScheduleNonPositive(t *testing.T) {
	var stats Stats
	intr := NewInterrupt(&stats, testConfig(), nil)
	defer func() {
		if _, ok := recover().(*AssertionError); !ok {
			t.Fatalf("no assertion for zero delay")
		}
	}()
	intr.Schedule(0, "now", func() {})
}
