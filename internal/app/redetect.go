package app

import (
	"sync"
	"time"
)

// Redetector collapses bursts of detection requests into one run. A request
// waits out the debounce delay and is replaced by any newer request during
// that time. At most one request is queued behind the run in progress and
// runs never overlap.
type Redetector[T any] struct {
	delay   time.Duration
	run     func(T)
	dropped func(T)

	mu      sync.Mutex
	timer   *time.Timer
	waiting *T // debouncing
	queued  *T // fired, not started
	ready   chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// NewRedetector starts the worker goroutine. Stop must be called to release it.
func NewRedetector[T any](delay time.Duration, run func(T)) *Redetector[T] {
	r := &Redetector[T]{
		delay: delay,
		run:   run,
		ready: make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go r.loop()
	return r
}

// OnDrop registers fn to receive every request that is replaced or
// cancelled before it runs.
func (r *Redetector[T]) OnDrop(fn func(T)) {
	r.mu.Lock()
	r.dropped = fn
	r.mu.Unlock()
}

// Request schedules req after the debounce delay, superseding any request
// that has not started yet.
func (r *Redetector[T]) Request(req T) {
	r.mu.Lock()
	drop := r.clearLocked()
	r.waiting = &req
	r.timer = time.AfterFunc(r.delay, r.fire)
	fn := r.dropped
	r.mu.Unlock()
	notify(fn, drop)
}

// RunNow queues req for the worker without the debounce delay. It still
// waits for a run in progress and supersedes anything not yet started.
func (r *Redetector[T]) RunNow(req T) {
	r.mu.Lock()
	drop := r.clearLocked()
	r.queued = &req
	fn := r.dropped
	r.mu.Unlock()
	notify(fn, drop)

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// SetDelay changes the debounce delay for later requests.
func (r *Redetector[T]) SetDelay(d time.Duration) {
	r.mu.Lock()
	r.delay = d
	r.mu.Unlock()
}

// Cancel drops every request that has not started.
func (r *Redetector[T]) Cancel() {
	r.mu.Lock()
	drop := r.clearLocked()
	fn := r.dropped
	r.mu.Unlock()
	notify(fn, drop)
}

// clearLocked stops the timer and empties both slots, returning what was
// in them.
func (r *Redetector[T]) clearLocked() []T {
	if r.timer != nil {
		r.timer.Stop()
	}
	var drop []T
	for _, p := range []*T{r.waiting, r.queued} {
		if p != nil {
			drop = append(drop, *p)
		}
	}
	r.waiting, r.queued = nil, nil
	return drop
}

func notify[T any](fn func(T), reqs []T) {
	if fn == nil {
		return
	}
	for _, req := range reqs {
		fn(req)
	}
}

// Pending reports whether a request is waiting or queued.
func (r *Redetector[T]) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting != nil || r.queued != nil
}

// Stop cancels pending requests and waits for the worker to exit. A run in
// progress completes first.
func (r *Redetector[T]) Stop() {
	r.Cancel()
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	<-r.done
}

func (r *Redetector[T]) fire() {
	r.mu.Lock()
	if r.waiting == nil {
		r.mu.Unlock()
		return
	}
	r.queued, r.waiting = r.waiting, nil
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

func (r *Redetector[T]) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case <-r.ready:
		}

		r.mu.Lock()
		req := r.queued
		r.queued = nil
		r.mu.Unlock()

		if req != nil {
			r.run(*req)
		}
	}
}
