package engine

import (
	"container/heap"
)

// Timer is a pending callback on a Scheduler
type Timer struct {
	sched    *Scheduler
	deadline float64
	seq      uint64
	pass     uint64 // Update pass during which the timer was armed
	fn       func()
	index    int // heap position, -1 once out of the heap
	done     bool
}

// Cancel stops the timer from firing. Cancelling a fired or cancelled timer
// is a no-op.
func (t *Timer) Cancel() {
	if t == nil || t.done {
		return
	}
	t.done = true
	if t.index >= 0 {
		heap.Remove(&t.sched.timers, t.index)
	}
}

// Active reports whether the timer is still waiting to fire
func (t *Timer) Active() bool {
	return t != nil && !t.done
}

// Deadline returns the scheduler time at which the timer fires
func (t *Timer) Deadline() float64 {
	return t.deadline
}

// Scheduler runs deferred callbacks on the tick loop. Its clock only moves
// when Update is called; due timers fire in deadline order (ties in arming
// order). A timer armed by a callback never fires in the same Update, even
// with zero delay.
type Scheduler struct {
	now    float64
	seq    uint64
	pass   uint64
	timers timerHeap
}

// NewScheduler creates a scheduler at time zero
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler clock in seconds
func (s *Scheduler) Now() float64 {
	return s.now
}

// Pending returns the number of armed timers
func (s *Scheduler) Pending() int {
	return len(s.timers)
}

// After arms fn to run delay seconds from now. Negative delays count as zero.
func (s *Scheduler) After(delay float64, fn func()) *Timer {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &Timer{
		sched:    s,
		deadline: s.now + delay,
		seq:      s.seq,
		pass:     s.pass,
		fn:       fn,
	}
	heap.Push(&s.timers, t)
	return t
}

// Update advances the clock by dt and fires every due timer. It returns the
// number of callbacks run.
func (s *Scheduler) Update(dt float64) int {
	if dt > 0 {
		s.now += dt
	}
	s.pass++

	fired := 0
	var deferred []*Timer
	for len(s.timers) > 0 && s.timers[0].deadline <= s.now {
		t := heap.Pop(&s.timers).(*Timer)
		if t.pass == s.pass {
			deferred = append(deferred, t)
			continue
		}
		t.done = true
		t.fn()
		fired++
	}

	for _, t := range deferred {
		if !t.done {
			heap.Push(&s.timers, t)
		}
	}
	return fired
}

// Clear cancels every pending timer
func (s *Scheduler) Clear() {
	for _, t := range s.timers {
		t.done = true
		t.index = -1
	}
	s.timers = s.timers[:0]
}

// timerHeap orders timers by deadline, then arming sequence
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
