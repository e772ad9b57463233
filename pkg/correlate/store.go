// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package correlate matches asynchronous responses to the requests waiting on them.
//
// A Store keeps the most recent value per key. Put overwrites and wakes every
// waiter; Wait blocks until a value for its key is present, removes it and
// returns it. Waiters for other keys wake, re-check and go back to sleep.
package correlate

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTimeout is used when Wait is called with a non-positive timeout
const DefaultTimeout = 10 * time.Second

// ErrTimeout is returned when no value arrives before the deadline
var ErrTimeout = errors.New("correlate: timed out waiting for response")

// Store is a keyed rendezvous between a single producer and many waiters
type Store[K comparable, V any] struct {
	mu             sync.Mutex
	entries        map[K]V
	changed        chan struct{}
	defaultTimeout time.Duration
}

// Option configures a Store
type Option func(*options)

type options struct {
	defaultTimeout time.Duration
}

// WithDefaultTimeout sets the timeout used when Wait gets timeout <= 0
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

// New creates an empty store
func New[K comparable, V any](opts ...Option) *Store[K, V] {
	o := options{defaultTimeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, V]{
		entries:        make(map[K]V),
		changed:        make(chan struct{}),
		defaultTimeout: o.defaultTimeout,
	}
}

// Put stores v under k, replacing any unconsumed value, and wakes all waiters
func (s *Store[K, V]) Put(k K, v V) {
	s.mu.Lock()
	s.entries[k] = v
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Wait blocks until a value for k is present and removes it. It returns
// ErrTimeout when the timeout elapses first, or the context error when ctx ends.
func (s *Store[K, V]) Wait(ctx context.Context, k K, timeout time.Duration) (V, error) {
	var zero V
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if v, ok := s.entries[k]; ok {
			delete(s.entries, k)
			s.mu.Unlock()
			return v, nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-timer.C:
			return zero, ErrTimeout
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Discard drops any unconsumed value for k
func (s *Store[K, V]) Discard(k K) {
	s.mu.Lock()
	delete(s.entries, k)
	s.mu.Unlock()
}

// Len returns the number of unconsumed values
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
