package threads

import "github.com/ldh0784/Nachos/machine"

// Lock is a mutual exclusion lock for kernel threads. A thread that finds
// it held blocks; Release hands the lock straight to the longest waiter.
type Lock struct {
	k         *Kernel
	holder    *KThread
	waitQueue []*KThread
}

// NewLock returns an unheld lock for threads of k.
func NewLock(k *Kernel) *Lock {
	return &Lock{k: k}
}

// Acquire takes the lock, blocking until it is available. The current
// thread must not already hold it.
func (l *Lock) Acquire() {
	machine.Assert(!l.IsHeldByCurrentThread(), "lock acquired twice by %v", l.k.CurrentThread())

	intr := l.k.machine.Interrupt()
	intStatus := intr.Disable()
	cur := l.k.CurrentThread()
	if l.holder != nil {
		l.waitQueue = append(l.waitQueue, cur)
		l.k.Sleep()
	} else {
		l.holder = cur
	}
	machine.Assert(l.holder == cur, "lock handed to %v, not %v", l.holder, cur)
	intr.Restore(intStatus)
}

// Release gives the lock up. The current thread must hold it.
func (l *Lock) Release() {
	machine.Assert(l.IsHeldByCurrentThread(), "lock released by %v, which does not hold it", l.k.CurrentThread())

	intr := l.k.machine.Interrupt()
	intStatus := intr.Disable()
	l.holder = nil
	if len(l.waitQueue) > 0 {
		l.holder = l.waitQueue[0]
		l.waitQueue[0] = nil
		l.waitQueue = l.waitQueue[1:]
		l.holder.Ready()
	}
	intr.Restore(intStatus)
}

// IsHeldByCurrentThread reports whether the running thread holds the lock.
func (l *Lock) IsHeldByCurrentThread() bool {
	return l.holder != nil && l.holder == l.k.CurrentThread()
}
