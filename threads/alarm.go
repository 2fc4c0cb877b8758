package threads

import (
	"container/heap"
	"math"

	"github.com/ldh0784/Nachos/machine"
)

// pendingWait is one thread's request to be woken at or after deadline.
// It lives in the alarm while, and only while, the thread is blocked on it.
type pendingWait struct {
	thread   *KThread
	deadline int64
	seq      uint64
}

// waitHeap orders pending waits by deadline, breaking ties by arrival.
type waitHeap []pendingWait

func (h waitHeap) Len() int { return len(h) }

func (h waitHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h waitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *waitHeap) Push(x any) { *h = append(*h, x.(pendingWait)) }

func (h *waitHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = pendingWait{}
	*h = old[:n-1]
	return w
}

// Alarm uses the hardware timer to provide preemption, and to let threads
// sleep until a given time.
//
// The kernel builds the only Alarm when it boots: the Alarm installs itself
// as the timer's interrupt handler, so a second one would silently steal
// the timer from the first.
type Alarm struct {
	k     *Kernel
	waits waitHeap
	seq   uint64
}

func newAlarm(k *Kernel) *Alarm {
	a := &Alarm{k: k}
	k.machine.Timer().SetInterruptHandler(a.timerInterrupt)
	return a
}

// WaitUntil puts the current thread to sleep for at least x ticks. The
// thread is made ready by the first timer interrupt at which
//
//	now >= (time WaitUntil was called) + x
//
// and runs whenever the scheduler next picks it. For x <= 0 it returns at
// once.
func (a *Alarm) WaitUntil(x int64) {
	if x <= 0 {
		return
	}
	timer := a.k.machine.Timer()
	intr := a.k.machine.Interrupt()

	// Saturate rather than wrap: a wrapped deadline is already past.
	now := timer.GetTime()
	deadline := int64(math.MaxInt64)
	if x <= math.MaxInt64-now {
		deadline = now + x
	}
	intStatus := intr.Disable()
	cur := a.k.CurrentThread()
	a.seq++
	heap.Push(&a.waits, pendingWait{thread: cur, deadline: deadline, seq: a.seq})
	a.k.trace.Printf(machine.TraceAlarm, "Alarm: %v waits until tick %d", cur, deadline)
	a.k.Sleep()
	intr.Restore(intStatus)
}

// timerInterrupt runs on every timer interrupt. It readies every thread
// whose deadline has passed, then yields the current thread whether or
// not anyone woke; this is what preempts threads that never block.
func (a *Alarm) timerInterrupt() {
	a.wakeDue(a.k.machine.Timer().GetTime())
	a.k.Yield()
}

// wakeDue readies every waiter with a deadline at or before now and
// returns how many it woke.
func (a *Alarm) wakeDue(now int64) int {
	intr := a.k.machine.Interrupt()
	intStatus := intr.Disable()
	defer intr.Restore(intStatus)

	n := 0
	for len(a.waits) > 0 && a.waits[0].deadline <= now {
		w := heap.Pop(&a.waits).(pendingWait)
		a.k.trace.Printf(machine.TraceAlarm, "Alarm: waking %v at tick %d (deadline %d)", w.thread, now, w.deadline)
		w.thread.Ready()
		n++
	}
	return n
}

// waiting returns the number of threads blocked in WaitUntil.
func (a *Alarm) waiting() int {
	return len(a.waits)
}
