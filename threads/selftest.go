package threads

import (
	"fmt"
	"io"

	"github.com/aclements/go-moremath/stats"
)

// The self tests run inside a booted kernel; call them from the function
// passed to Kernel.Run.

// AlarmWait records one call to WaitUntil.
type AlarmWait struct {
	Thread    string
	Requested int64
	Waited    int64
}

// AlarmReport collects the waits made by an alarm self test.
type AlarmReport struct {
	Waits []AlarmWait
}

func (r *AlarmReport) add(thread string, requested, waited int64) {
	r.Waits = append(r.Waits, AlarmWait{Thread: thread, Requested: requested, Waited: waited})
}

// Oversleep returns, for each wait, how many ticks past its request the
// thread actually resumed, as a sorted sample.
func (r *AlarmReport) Oversleep() *stats.Sample {
	xs := make([]float64, len(r.Waits))
	for i, w := range r.Waits {
		xs[i] = float64(w.Waited - w.Requested)
	}
	return (&stats.Sample{Xs: xs}).Sort()
}

func (r *AlarmReport) String() string {
	if len(r.Waits) == 0 {
		return "no waits"
	}
	s := r.Oversleep()
	lo, hi := s.Bounds()
	return fmt.Sprintf("%d waits, oversleep min %.0f mean %.1f median %.0f max %.0f ticks",
		len(r.Waits), lo, s.Mean(), s.Quantile(0.5), hi)
}

// AlarmSelfTest waits for each duration in turn on the current thread and
// reports how long each wait really took.
func AlarmSelfTest(k *Kernel, w io.Writer, durations ...int64) *AlarmReport {
	if len(durations) == 0 {
		durations = []int64{1000, 10 * 1000, 100 * 1000}
	}
	timer := k.Machine().Timer()
	report := &AlarmReport{}
	for _, d := range durations {
		t0 := timer.GetTime()
		k.Alarm().WaitUntil(d)
		t1 := timer.GetTime()
		fmt.Fprintf(w, "alarmTest1: waited for %d ticks\n", t1-t0)
		report.add(k.CurrentThread().Name(), d, t1-t0)
	}
	return report
}

// AlarmStaggeredSelfTest forks one thread per duration, each waiting that
// long, and returns once all of them have woken.
func AlarmStaggeredSelfTest(k *Kernel, w io.Writer, durations ...int64) *AlarmReport {
	if len(durations) == 0 {
		durations = []int64{1000, 2000, 3000}
	}
	timer := k.Machine().Timer()
	report := &AlarmReport{}
	forked := make([]*KThread, 0, len(durations))
	for id, d := range durations {
		id, d := id, d
		t := k.NewThread(func() {
			t0 := timer.GetTime()
			fmt.Fprintf(w, "Thread %d: calling WaitUntil at tick %d for %d ticks\n", id, t0, d)
			k.Alarm().WaitUntil(d)
			t1 := timer.GetTime()
			fmt.Fprintf(w, "Thread %d: woke at tick %d after %d ticks\n", id, t1, t1-t0)
			report.add(k.CurrentThread().Name(), d, t1-t0)
		}).SetName(fmt.Sprintf("AlarmTest2-Thread-%d", id))
		t.Fork()
		forked = append(forked, t)
	}
	for _, t := range forked {
		t.Join()
	}
	return report
}

// InterlockSelfTest runs two threads, ping and pong, that strictly
// alternate through a condition variable for the given number of rounds.
// It returns the names in the order the threads ran. When ping finishes,
// pong is left asleep on the condition.
func InterlockSelfTest(k *Kernel, w io.Writer, rounds int) []string {
	lock := NewLock(k)
	cv := NewCondition(lock)
	var order []string

	interlocker := func() {
		lock.Acquire()
		for i := 0; i < rounds; i++ {
			name := k.CurrentThread().Name()
			fmt.Fprintln(w, name)
			order = append(order, name)
			cv.Wake()
			cv.Sleep()
		}
		lock.Release()
	}

	ping := k.NewThread(interlocker).SetName("ping")
	pong := k.NewThread(interlocker).SetName("pong")
	ping.Fork()
	pong.Fork()
	ping.Join()
	return order
}

// SelfTest runs every self test, writing their output to w.
func SelfTest(k *Kernel, w io.Writer) {
	fmt.Fprintln(w, "--------------alarmTest1--------------")
	r1 := AlarmSelfTest(k, w)
	fmt.Fprintln(w, r1)
	fmt.Fprintln(w, "--------------alarmTest2--------------")
	r2 := AlarmStaggeredSelfTest(k, w)
	fmt.Fprintln(w, r2)
	fmt.Fprintln(w, "--------------interlockTest-----------")
	InterlockSelfTest(k, w, 10)
}
