package threads

import "github.com/ldh0784/Nachos/machine"

// scheduler owns the ready queue and performs context switches. Selection
// is plain FIFO; the idle thread runs whenever the queue is empty.
type scheduler struct {
	k *Kernel

	// Threads waiting for the processor, oldest first.
	readyQueue []*KThread

	// Thread holding the processor.
	current *KThread

	// Runs when nothing else can. Never sits in readyQueue.
	idle *KThread

	// Counter for thread IDs.
	nextID int
}

func newScheduler(k *Kernel) *scheduler {
	return &scheduler{
		k:          k,
		readyQueue: make([]*KThread, 0),
	}
}

// enqueue adds a thread to the tail of the ready queue.
func (s *scheduler) enqueue(t *KThread) {
	s.readyQueue = append(s.readyQueue, t)
}

// dequeue pops the head of the ready queue, or returns nil.
func (s *scheduler) dequeue() *KThread {
	if len(s.readyQueue) == 0 {
		return nil
	}
	t := s.readyQueue[0]
	s.readyQueue[0] = nil
	s.readyQueue = s.readyQueue[1:]
	return t
}

func (s *scheduler) empty() bool {
	return len(s.readyQueue) == 0
}

// runNextThread gives the processor to the next ready thread, or to the
// idle thread if there is none. The current thread must already have been
// moved out of the running state.
func (s *scheduler) runNextThread() {
	next := s.dequeue()
	if next == nil {
		next = s.idle
	}
	s.run(next)
}

// run switches the processor to next. When prev is switched back in, run
// returns on prev's goroutine. A finished prev never comes back.
func (s *scheduler) run(next *KThread) {
	machine.Assert(s.k.machine.Interrupt().Disabled(), "context switch with interrupts enabled")
	prev := s.current
	s.current = next
	next.status = StatusRunning
	if prev == next {
		return
	}

	s.k.machine.Stats().ContextSwitches++
	s.k.trace.Printf(machine.TraceThread, "Switching from: %v to: %v", prev, next)

	// Once next is unparked it owns the kernel, and may touch prev.
	finished := prev.status == StatusFinished
	next.resume <- struct{}{}
	if finished {
		return
	}
	prev.park()
}
