// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbus

import (
	"context"
	"sync"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/metrics"
)

// Subscription is a live, non-restartable feed of the items published on one
// channel. Items queue without bound until Next consumes them.
type Subscription[T any] struct {
	broker  *Broker[T]
	channel string
	id      uint64
	filter  Filter[T]

	mu        sync.Mutex
	queue     []T
	hooks     []func()
	closing   bool
	cancelled bool

	notify     chan struct{}
	done       chan struct{}
	cancelOnce sync.Once
}

// Channel returns the channel the subscription listens on.
func (s *Subscription[T]) Channel() string {
	return s.channel
}

// Done is closed once the subscription is cancelled.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) enqueue(item T) bool {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, item)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

func (s *Subscription[T]) dequeue() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.cancelled || len(s.queue) == 0 {
		return zero, false
	}
	item := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return item, true
}

// Next blocks until an item passes the filter, ctx is done, or the
// subscription is cancelled.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		select {
		case <-s.done:
			return zero, ErrSubscriptionClosed
		default:
		}

		if item, ok := s.dequeue(); ok {
			label := s.broker.label(item)
			if s.filter != nil && !s.filter(ctx, item) {
				metrics.EventsSuppressed.WithLabelValues(label).Inc()
				continue
			}
			metrics.EventsDelivered.WithLabelValues(label).Inc()
			return item, nil
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-s.done:
			return zero, ErrSubscriptionClosed
		case <-s.notify:
		}
	}
}

// OnCancel registers fn to run when the subscription is cancelled. Hooks run
// once, in registration order, before the feed is torn down. Registering on
// an already cancelled subscription runs fn immediately.
func (s *Subscription[T]) OnCancel(fn func()) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		fn()
		return
	}
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Cancel ends the subscription. Only the first call has an effect.
func (s *Subscription[T]) Cancel() {
	s.cancelOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		hooks := s.hooks
		s.hooks = nil
		s.mu.Unlock()

		for _, hook := range hooks {
			hook()
		}

		s.mu.Lock()
		s.cancelled = true
		s.queue = nil
		s.mu.Unlock()

		s.broker.remove(s)
		close(s.done)
	})
}
