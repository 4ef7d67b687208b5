// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package eventbus fans events out to in-process subscribers keyed by channel name.
package eventbus

import (
	"context"
	"errors"
	"sync"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/metrics"
)

// ErrSubscriptionClosed is returned by Next once the subscription is cancelled.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Filter decides, at consumption time, whether an item is handed to the subscriber.
type Filter[T any] func(ctx context.Context, item T) bool

// SubscribeOption configures a subscription.
type SubscribeOption[T any] func(*Subscription[T])

// WithFilter installs a filter evaluated lazily by Next, so it sees the state
// at the time the subscriber consumes the item rather than when it was published.
func WithFilter[T any](filter Filter[T]) SubscribeOption[T] {
	return func(s *Subscription[T]) {
		s.filter = filter
	}
}

// Broker delivers published items to the live subscriptions of a channel.
// The zero value is not usable; use NewBroker.
type Broker[T any] struct {
	kind  string
	label func(T) string

	mu       sync.RWMutex
	nextID   uint64
	channels map[string]map[uint64]*Subscription[T]
}

// NewBroker creates a broker. kind and label only feed the metrics.
func NewBroker[T any](kind string, label func(T) string) *Broker[T] {
	if label == nil {
		label = func(T) string { return kind }
	}
	return &Broker[T]{
		kind:     kind,
		label:    label,
		channels: make(map[string]map[uint64]*Subscription[T]),
	}
}

// Publish hands item to every live subscription of channel and returns how
// many received it. It never waits on a subscriber.
func (b *Broker[T]) Publish(channel string, item T) int {
	metrics.EventsPublished.WithLabelValues(b.label(item)).Inc()

	b.mu.RLock()
	subs := make([]*Subscription[T], 0, len(b.channels[channel]))
	for _, sub := range b.channels[channel] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.enqueue(item) {
			delivered++
		}
	}
	return delivered
}

// Subscribe opens a live feed on channel. Items published before the call are
// never replayed.
func (b *Broker[T]) Subscribe(channel string, opts ...SubscribeOption[T]) *Subscription[T] {
	sub := &Subscription[T]{
		broker:  b,
		channel: channel,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	if b.channels[channel] == nil {
		b.channels[channel] = make(map[uint64]*Subscription[T])
	}
	b.channels[channel][sub.id] = sub
	b.mu.Unlock()

	metrics.ActiveSubscriptions.WithLabelValues(b.kind).Inc()
	return sub
}

// SubscriberCount returns the number of live subscriptions on channel.
func (b *Broker[T]) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// Close cancels every subscription.
func (b *Broker[T]) Close() {
	b.mu.RLock()
	var subs []*Subscription[T]
	for _, channel := range b.channels {
		for _, sub := range channel {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func (b *Broker[T]) remove(sub *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	channel, ok := b.channels[sub.channel]
	if !ok {
		return
	}
	if _, ok := channel[sub.id]; !ok {
		return
	}
	delete(channel, sub.id)
	if len(channel) == 0 {
		delete(b.channels, sub.channel)
	}
	metrics.ActiveSubscriptions.WithLabelValues(b.kind).Dec()
}
