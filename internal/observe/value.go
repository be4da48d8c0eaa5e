// Package observe provides a small publish/subscribe primitive for state
// owned by a single writer and read by many observers. New subscribers
// immediately receive the last value, and every subscriber sees updates in
// the order they were set.
package observe

import (
	"context"
	"sync"
)

// Value holds a current value of type T and broadcasts every change to all
// active subscriptions. The zero Value is not usable; construct with New.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	subs   map[int]*subscription[T]
	nextID int
}

type subscription[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	done   chan struct{}
	out    chan T
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]*subscription[T]),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current value and queues it for delivery to every active
// subscriber. Delivery never blocks the setter: each subscription buffers
// pending values so a slow reader still observes every transition in order.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.cur = val
	for _, s := range v.subs {
		s.push(val)
	}
	v.mu.Unlock()
}

// Subscribe registers an observer. The returned channel first yields the
// value current at subscription time, then every subsequent Set, in order.
// The channel is closed when ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	s := &subscription[T]{
		done: make(chan struct{}),
		out:  make(chan T),
	}
	s.cond = sync.NewCond(&s.mu)

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = s
	s.queue = append(s.queue, v.cur)
	v.mu.Unlock()

	go s.pump()
	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
		s.close()
	}()

	return s.out
}

func (s *subscription[T]) push(val T) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, val)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscription[T]) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// pump drains the queue into the outbound channel, preserving order. It
// stops as soon as the subscription is closed, dropping anything still
// queued; the subscriber is gone by then.
func (s *subscription[T]) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		val := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- val:
		case <-s.done:
			close(s.out)
			return
		}
	}
}
