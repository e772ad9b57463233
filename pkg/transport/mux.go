// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Filter selects which frames a subscriber receives. A nil filter accepts all.
type Filter func(frame []byte) bool

// DeviceFilter accepts frames whose first byte is one of devices
func DeviceFilter(devices ...uint8) Filter {
	return func(frame []byte) bool {
		if len(frame) == 0 {
			return false
		}
		for _, d := range devices {
			if frame[0] == d {
				return true
			}
		}
		return false
	}
}

// Not inverts a filter
func Not(f Filter) Filter {
	return func(frame []byte) bool {
		return !f(frame)
	}
}

// Subscription is one consumer of the notification stream
type Subscription struct {
	name    string
	filter  Filter
	lossy   bool
	ch      chan []byte
	removed chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Name returns the subscriber name
func (s *Subscription) Name() string { return s.name }

// C returns the delivery channel. It is closed when the mux stops.
func (s *Subscription) C() <-chan []byte { return s.ch }

// Dropped returns how many frames a lossy subscriber missed
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscription) remove() {
	s.once.Do(func() { close(s.removed) })
}

// SubscribeOption configures a subscription
type SubscribeOption func(*Subscription)

// WithFilter restricts delivery to frames accepted by f
func WithFilter(f Filter) SubscribeOption {
	return func(s *Subscription) { s.filter = f }
}

// WithSubscriberBuffer sets the subscriber channel capacity
func WithSubscriberBuffer(n int) SubscribeOption {
	return func(s *Subscription) {
		if n > 0 {
			s.ch = make(chan []byte, n)
		}
	}
}

// Lossy makes delivery non-blocking: frames are dropped when the subscriber
// falls behind. Use it for observers such as the monitor view.
func Lossy() SubscribeOption {
	return func(s *Subscription) { s.lossy = true }
}

// Mux fans one transport's notifications out to independent subscribers.
// Lossless subscribers receive every frame in order; a slow lossless
// subscriber delays the others. Only Run closes subscriber channels.
type Mux struct {
	src    <-chan []byte
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
	all  []*Subscription
	done bool
}

// NewMux creates a mux reading from src
func NewMux(src <-chan []byte, logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mux{
		src:    src,
		logger: logger,
		subs:   make(map[string]*Subscription),
	}
}

// Subscribe registers a named consumer, replacing any existing one with the
// same name. Subscribing after the mux stopped yields a closed channel.
func (m *Mux) Subscribe(name string, opts ...SubscribeOption) *Subscription {
	sub := &Subscription{name: name, removed: make(chan struct{})}
	for _, opt := range opts {
		opt(sub)
	}
	if sub.ch == nil {
		sub.ch = make(chan []byte, 32)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		close(sub.ch)
		return sub
	}
	if old, ok := m.subs[name]; ok {
		old.remove()
	}
	m.subs[name] = sub
	m.all = append(m.all, sub)
	return sub
}

// Unsubscribe stops delivery to a consumer. Its channel is closed when the
// mux stops.
func (m *Mux) Unsubscribe(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[name]; ok {
		delete(m.subs, name)
		sub.remove()
	}
}

// Run delivers frames until the source closes or ctx ends, then closes every
// subscriber channel.
func (m *Mux) Run(ctx context.Context) error {
	defer m.closeAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-m.src:
			if !ok {
				m.logger.Debug("notification source closed")
				return nil
			}
			if err := m.dispatch(ctx, frame); err != nil {
				return err
			}
		}
	}
}

func (m *Mux) dispatch(ctx context.Context, frame []byte) error {
	m.mu.Lock()
	targets := make([]*Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		if sub.filter == nil || sub.filter(frame) {
			targets = append(targets, sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range targets {
		if sub.lossy {
			select {
			case sub.ch <- frame:
			case <-sub.removed:
			default:
				sub.dropped.Add(1)
			}
			continue
		}
		select {
		case sub.ch <- frame:
		case <-sub.removed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Mux) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = true
	for _, sub := range m.all {
		close(sub.ch)
	}
	m.all = nil
	m.subs = make(map[string]*Subscription)
}
