package threads

import "github.com/ldh0784/Nachos/machine"

// Condition is a condition variable that uses interrupt disabling, not
// semaphores, for its own atomicity.
//
// Every operation requires the current thread to hold the associated lock.
// Waiters are woken in the order they went to sleep. There is no timed
// wait: a thread that sleeps and is never woken stays blocked.
type Condition struct {
	lock *Lock

	// Threads sleeping on this condition, oldest first.
	waitQueue []*KThread
}

// NewCondition returns a condition variable tied to lock. The lock is
// borrowed for the lifetime of the condition.
func NewCondition(lock *Lock) *Condition {
	return &Condition{lock: lock}
}

// Sleep atomically releases the lock and blocks the current thread until
// another thread wakes it. The lock is re-acquired before Sleep returns,
// which may block again if the lock is contended.
func (c *Condition) Sleep() {
	machine.Assert(c.lock.IsHeldByCurrentThread(), "condition Sleep without holding its lock")
	k := c.lock.k
	intr := k.machine.Interrupt()

	// Queueing, releasing and blocking happen with interrupts off, so no
	// Wake can run between the release and the block and miss us.
	intStatus := intr.Disable()
	cur := k.CurrentThread()
	c.waitQueue = append(c.waitQueue, cur)
	k.trace.Printf(machine.TraceCondition, "Condition: %v sleeps (%d waiting)", cur, len(c.waitQueue))
	c.lock.Release()
	k.Sleep()

	c.lock.Acquire()
	intr.Restore(intStatus)
}

// Wake readies the thread that has been sleeping longest, if any. The
// lock is left alone; the woken thread contends for it on its own.
func (c *Condition) Wake() {
	machine.Assert(c.lock.IsHeldByCurrentThread(), "condition Wake without holding its lock")
	intr := c.lock.k.machine.Interrupt()
	intStatus := intr.Disable()
	defer intr.Restore(intStatus)

	if t := c.pop(); t != nil {
		t.Ready()
	}
}

// WakeAll readies every thread sleeping on the condition.
func (c *Condition) WakeAll() {
	machine.Assert(c.lock.IsHeldByCurrentThread(), "condition WakeAll without holding its lock")
	intr := c.lock.k.machine.Interrupt()
	intStatus := intr.Disable()
	defer intr.Restore(intStatus)

	for t := c.pop(); t != nil; t = c.pop() {
		t.Ready()
	}
}

func (c *Condition) pop() *KThread {
	if len(c.waitQueue) == 0 {
		return nil
	}
	t := c.waitQueue[0]
	c.waitQueue[0] = nil
	c.waitQueue = c.waitQueue[1:]
	c.lock.k.trace.Printf(machine.TraceCondition, "Condition: waking %v (%d still waiting)", t, len(c.waitQueue))
	return t
}

// waiting returns the number of threads asleep on the condition.
func (c *Condition) waiting() int {
	return len(c.waitQueue)
}
