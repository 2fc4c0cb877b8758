package threads

import (
	"fmt"
	"runtime"

	"github.com/ldh0784/Nachos/machine"
)

// Status is a thread's scheduling state.
type Status int

const (
	StatusNew Status = iota
	StatusReady
	StatusRunning
	StatusBlocked
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	case StatusFinished:
		return "finished"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// KThread is a kernel thread. Each one is backed by a goroutine, but only
// the goroutine of the kernel's current thread is ever unparked; the rest
// wait on their resume channel until the scheduler switches to them.
type KThread struct {
	k *Kernel

	// Unique ID, assigned in creation order.
	id int

	name   string
	status Status
	target func()

	// Receives one value each time the scheduler switches to this thread.
	resume chan struct{}

	// Threads blocked in Join waiting for this one to finish.
	joiners []*KThread

	// Set on the kernel's first thread; its return halts the kernel.
	root bool
}

// NewThread creates a thread that will run target once forked.
func (k *Kernel) NewThread(target func()) *KThread {
	t := &KThread{
		k:      k,
		id:     k.sched.nextID,
		name:   "(unnamed thread)",
		status: StatusNew,
		target: target,
		resume: make(chan struct{}, 1),
	}
	k.sched.nextID++
	return t
}

// ID returns the thread's unique ID.
func (t *KThread) ID() int { return t.id }

// Name returns the thread's name.
func (t *KThread) Name() string { return t.name }

// Status returns the thread's scheduling state.
func (t *KThread) Status() Status { return t.status }

// SetName sets the thread's name and returns the thread, so creation and
// naming can be chained.
func (t *KThread) SetName(name string) *KThread {
	t.name = name
	return t
}

func (t *KThread) String() string {
	return fmt.Sprintf("%s (#%d)", t.name, t.id)
}

// Fork makes a new thread runnable. The caller keeps running; the new
// thread starts the next time the scheduler picks it.
func (t *KThread) Fork() {
	machine.Assert(t.status == StatusNew, "thread %v forked twice", t)
	intr := t.k.machine.Interrupt()
	intStatus := intr.Disable()
	t.k.trace.Printf(machine.TraceThread, "Forking thread: %v Runnable: %v", t, t.k.sched.current)
	go t.runThread()
	t.Ready()
	intr.Restore(intStatus)
}

// Ready moves the thread to the ready state and queues it for the
// processor. Interrupts must be disabled. It does not switch to the thread.
func (t *KThread) Ready() {
	machine.Assert(t.k.machine.Interrupt().Disabled(), "Ready with interrupts enabled")
	machine.Assert(t.status != StatusReady, "thread %v readied twice", t)
	machine.Assert(t.status != StatusFinished, "finished thread %v readied", t)
	t.k.trace.Printf(machine.TraceThread, "Ready thread: %v", t)
	t.status = StatusReady
	if t != t.k.sched.idle {
		t.k.sched.enqueue(t)
	}
}

// Join blocks the current thread until t has finished. It returns at once
// if t already has.
func (t *KThread) Join() {
	k := t.k
	cur := k.CurrentThread()
	machine.Assert(t != cur, "thread %v joined itself", t)
	intr := k.machine.Interrupt()
	intStatus := intr.Disable()
	if t.status != StatusFinished {
		k.trace.Printf(machine.TraceThread, "Joining thread: %v waits for %v", cur, t)
		t.joiners = append(t.joiners, cur)
		k.Sleep()
	}
	intr.Restore(intStatus)
}

// runThread is the body of the thread's goroutine.
func (t *KThread) runThread() {
	defer func() {
		r := recover()
		switch {
		case r != nil:
			t.k.terminate(fmt.Errorf("thread %v: %w", t, panicError(r)))
		case t.k.halted():
		case t.status != StatusFinished:
			// The goroutine exited under the kernel, e.g. via runtime.Goexit.
			t.k.terminate(fmt.Errorf("thread %v: %w", t, ErrThreadExited))
		}
	}()
	t.park()
	t.begin()
	t.target()
	t.k.Finish()
}

func (t *KThread) begin() {
	machine.Assert(t == t.k.sched.current, "thread %v began while not current", t)
	t.k.trace.Printf(machine.TraceThread, "Beginning thread: %v", t)
	t.k.machine.Interrupt().Enable()
}

// park blocks the goroutine until the scheduler switches back to t. If the
// kernel halts instead, the goroutine exits where it stands; nothing on a
// parked stack may restore kernel state through defer.
func (t *KThread) park() {
	select {
	case <-t.resume:
	case <-t.k.halt:
		runtime.Goexit()
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
