package threads

import (
	"errors"
	"strings"
	"testing"

	"github.com/ldh0784/Nachos/machine"
)

// sleepers forks n threads that each take lock, record their id, and sleep
// on cv, then yields until all of them are asleep.
func sleepers(k *Kernel, lock *Lock, cv *Condition, n int, slept, resumed *[]int) []*KThread {
	var ts []*KThread
	for i := 1; i <= n; i++ {
		i := i
		th := k.NewThread(func() {
			lock.Acquire()
			*slept = append(*slept, i)
			cv.Sleep()
			if !lock.IsHeldByCurrentThread() {
				panic("Sleep returned without the lock")
			}
			*resumed = append(*resumed, i)
			lock.Release()
		})
		th.Fork()
		ts = append(ts, th)
	}
	for cv.waiting() < n {
		k.Yield()
	}
	return ts
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWakeEmptyQueue(t *testing.T) {
	runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		cv := NewCondition(lock)
		lock.Acquire()
		cv.Wake()
		cv.WakeAll()
		if cv.waiting() != 0 {
			t.Errorf("%d waiting after Wake on an empty queue", cv.waiting())
		}
		if !lock.IsHeldByCurrentThread() {
			t.Errorf("Wake released the lock")
		}
		lock.Release()
	})
}

func TestWakeFIFO(t *testing.T) {
	var slept, resumed []int
	runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		cv := NewCondition(lock)
		ts := sleepers(k, lock, cv, 3, &slept, &resumed)

		for i := 0; i < 3; i++ {
			lock.Acquire()
			cv.Wake()
			if want := 2 - i; cv.waiting() != want {
				t.Errorf("%d waiting after wake %d, want %d", cv.waiting(), i+1, want)
			}
			lock.Release()
			for len(resumed) < i+1 {
				k.Yield()
			}
		}
		for _, th := range ts {
			th.Join()
		}
	})
	if !equalInts(slept, []int{1, 2, 3}) {
		t.Fatalf("slept in order %v, want [1 2 3]", slept)
	}
	if !equalInts(resumed, slept) {
		t.Fatalf("resumed in order %v, slept in order %v", resumed, slept)
	}
}

func TestWakeAll(t *testing.T) {
	var slept, resumed []int
	runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		cv := NewCondition(lock)
		ts := sleepers(k, lock, cv, 4, &slept, &resumed)

		lock.Acquire()
		cv.WakeAll()
		if cv.waiting() != 0 {
			t.Errorf("%d waiting after WakeAll", cv.waiting())
		}
		cv.Wake()
		if cv.waiting() != 0 {
			t.Errorf("%d waiting after Wake on a drained queue", cv.waiting())
		}
		// Nobody can return from Sleep while we hold the lock.
		k.Yield()
		if len(resumed) != 0 {
			t.Errorf("%v resumed while the waker held the lock", resumed)
		}
		lock.Release()
		for _, th := range ts {
			th.Join()
		}
	})
	if len(resumed) != 4 {
		t.Fatalf("resumed %v, want all 4 sleepers", resumed)
	}
}

func TestInterlock(t *testing.T) {
	for _, rounds := range []int{1, 10, 200} {
		rounds := rounds
		k := NewKernel(testConfig())
		var order []string
		err := k.Run(func() {
			order = InterlockSelfTest(k, &strings.Builder{}, rounds)
		})
		if err != nil {
			t.Fatalf("%d rounds: kernel aborted: %v", rounds, err)
		}
		if len(order) != 2*rounds {
			t.Fatalf("%d rounds: %d steps, want %d", rounds, len(order), 2*rounds)
		}
		for i, name := range order {
			want := "ping"
			if i%2 == 1 {
				want = "pong"
			}
			if name != want {
				t.Fatalf("%d rounds: step %d ran %s, want %s", rounds, i, name, want)
			}
		}
		if rounds == 200 && k.Machine().Stats().TimerInterrupts == 0 {
			t.Errorf("long interlock never saw a timer interrupt")
		}
	}
}

func TestWokenThreadContendsForLock(t *testing.T) {
	var events []string
	runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		cv := NewCondition(lock)
		sleeper := k.NewThread(func() {
			lock.Acquire()
			cv.Sleep()
			events = append(events, "sleeper resumed")
			lock.Release()
		})
		sleeper.Fork()
		for cv.waiting() == 0 {
			k.Yield()
		}

		lock.Acquire()
		cv.Wake()
		// The sleeper is ready but blocks on the lock until we release it.
		for i := 0; i < 3; i++ {
			k.Yield()
		}
		events = append(events, "waker released")
		lock.Release()
		sleeper.Join()
	})
	if len(events) != 2 || events[0] != "waker released" {
		t.Fatalf("events %v", events)
	}
}

func TestConditionRequiresLock(t *testing.T) {
	ops := []struct {
		name string
		op   func(*Condition)
	}{
		{"Sleep", (*Condition).Sleep},
		{"Wake", (*Condition).Wake},
		{"WakeAll", (*Condition).WakeAll},
	}
	setups := []struct {
		name string
		// hold arranges the lock's state before the bad call.
		hold func(k *Kernel, lock *Lock)
	}{
		{"unlocked", func(k *Kernel, lock *Lock) {}},
		{"released", func(k *Kernel, lock *Lock) {
			lock.Acquire()
			lock.Release()
		}},
		{"held by another thread", func(k *Kernel, lock *Lock) {
			k.NewThread(func() {
				lock.Acquire()
				k.Alarm().WaitUntil(1_000_000)
			}).Fork()
			for lock.holder == nil {
				k.Yield()
			}
		}},
	}
	for _, op := range ops {
		op := op
		for _, setup := range setups {
			setup := setup
			t.Run(op.name+"/"+setup.name, func(t *testing.T) {
				k := NewKernel(testConfig())
				err := k.Run(func() {
					lock := NewLock(k)
					cv := NewCondition(lock)
					setup.hold(k, lock)
					op.op(cv)
					t.Errorf("%s returned without the lock", op.name)
				})
				var aerr *machine.AssertionError
				if !errors.As(err, &aerr) {
					t.Fatalf("Run returned %v, want an assertion error", err)
				}
				if !strings.Contains(aerr.Msg, "without holding its lock") {
					t.Fatalf("assertion %q", aerr.Msg)
				}
			})
		}
	}
}

func TestSleepWithoutWakeNeverReturns(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTicks = 50_000
	k := NewKernel(cfg)
	err := k.Run(func() {
		lock := NewLock(k)
		cv := NewCondition(lock)
		lock.Acquire()
		cv.Sleep()
		t.Errorf("Sleep returned with nobody to wake it")
	})
	if !errors.Is(err, machine.ErrTickLimit) {
		t.Fatalf("Run returned %v, want ErrTickLimit", err)
	}
}
