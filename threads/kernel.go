// Package threads implements kernel threads on a simulated single-processor
// machine, together with the synchronization primitives built on them: a
// lock, a condition variable and a timer-driven alarm.
//
// Scheduling is cooperative. Exactly one thread runs at a time, and it only
// stops running when it yields, blocks, finishes, or is preempted by the
// timer interrupt. Because interrupts are the only source of asynchrony,
// disabling them is enough to make a span of code atomic.
package threads

import (
	"errors"
	"runtime"
	"sync"

	"github.com/ldh0784/Nachos/machine"
)

var (
	// ErrKernelStarted is returned by Run on a kernel that has already run.
	ErrKernelStarted = errors.New("threads: kernel already started")
	// ErrThreadExited aborts the kernel when a thread's goroutine stops
	// without the thread finishing.
	ErrThreadExited = errors.New("threads: thread exited without finishing")
)

// Kernel is one booted instance of the threaded kernel. It owns the
// simulated machine, the scheduler and the kernel's only Alarm.
type Kernel struct {
	machine *machine.Machine
	trace   *machine.Tracer
	sched   *scheduler
	alarm   *Alarm

	started bool

	// Closed when the kernel stops; parked threads exit on it.
	halt chan struct{}
	// Receives the reason the kernel stopped, nil for a clean exit.
	done chan error
	once sync.Once
}

// NewKernel builds a kernel on a machine configured by cfg.
func NewKernel(cfg machine.Config) *Kernel {
	m := machine.New(cfg)
	k := &Kernel{
		machine: m,
		trace:   m.Tracer(),
		halt:    make(chan struct{}),
		done:    make(chan error, 1),
	}
	k.sched = newScheduler(k)
	k.alarm = newAlarm(k)
	return k
}

// Run boots the kernel with main as its first thread and blocks until main
// returns or the kernel aborts. An assertion failure or machine fault in any
// thread aborts the kernel and is returned. Threads still blocked when main
// returns are discarded.
//
// Run must be called once, from outside the kernel.
func (k *Kernel) Run(main func()) error {
	if k.started {
		return ErrKernelStarted
	}
	k.started = true

	idle := k.NewThread(k.idleLoop).SetName("idle")
	idle.status = StatusReady
	k.sched.idle = idle
	go idle.runThread()

	root := k.NewThread(main).SetName("main")
	root.root = true
	root.status = StatusRunning
	k.sched.current = root
	go root.runThread()
	root.resume <- struct{}{}

	return <-k.done
}

// Machine returns the simulated machine the kernel runs on.
func (k *Kernel) Machine() *machine.Machine { return k.machine }

// Alarm returns the kernel's alarm. There is exactly one per kernel, since
// it is the timer's only interrupt handler.
func (k *Kernel) Alarm() *Alarm { return k.alarm }

// CurrentThread returns the thread that is running.
func (k *Kernel) CurrentThread() *KThread {
	return k.sched.current
}

// Yield gives up the processor if another thread is ready, leaving the
// current thread runnable. It returns when the current thread is picked
// again.
func (k *Kernel) Yield() {
	cur := k.sched.current
	machine.Assert(cur.status == StatusRunning, "thread %v yielded while %v", cur, cur.status)
	intr := k.machine.Interrupt()
	intStatus := intr.Disable()
	k.trace.Printf(machine.TraceThread, "Yielding thread: %v", cur)
	cur.Ready()
	k.sched.runNextThread()
	intr.Restore(intStatus)
}

// Sleep blocks the current thread until something readies it. Interrupts
// must be disabled, and the caller must already have recorded the thread
// wherever its waker will look for it, or it sleeps forever.
func (k *Kernel) Sleep() {
	machine.Assert(k.machine.Interrupt().Disabled(), "Sleep with interrupts enabled")
	cur := k.sched.current
	k.trace.Printf(machine.TraceThread, "Sleeping thread: %v", cur)
	cur.status = StatusBlocked
	k.sched.runNextThread()
}

// Finish ends the current thread and never returns. Threads joined on it
// become ready. Finishing the kernel's first thread halts the kernel.
func (k *Kernel) Finish() {
	k.machine.Interrupt().Disable()
	cur := k.sched.current
	k.trace.Printf(machine.TraceThread, "Finishing thread: %v", cur)
	for _, j := range cur.joiners {
		j.Ready()
	}
	cur.joiners = nil
	cur.status = StatusFinished
	if cur.root {
		k.terminate(nil)
	} else {
		k.sched.runNextThread()
	}
	runtime.Goexit()
}

// idleLoop runs when no other thread is ready. It lets the machine jump to
// the next interrupt, whose handler may make threads ready.
func (k *Kernel) idleLoop() {
	for {
		if k.sched.empty() {
			k.machine.Interrupt().Idle()
		}
		k.Yield()
	}
}

func (k *Kernel) halted() bool {
	select {
	case <-k.halt:
		return true
	default:
		return false
	}
}

// terminate stops the kernel and reports err to Run. Only the first call
// has any effect.
func (k *Kernel) terminate(err error) {
	k.once.Do(func() {
		if err != nil {
			k.trace.Printf(machine.TraceThread, "Kernel aborting: %v", err)
		}
		k.done <- err
		close(k.halt)
	})
}
