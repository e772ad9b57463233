// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"sync"
)

// Written is one frame captured by Mock
type Written struct {
	Frame []byte
	Mode  WriteMode
}

// Responder produces the notifications a mock robot sends back for a written frame
type Responder func(frame []byte, mode WriteMode) [][]byte

// Mock implements Transport for testing. Notifications are buffered; frames
// injected while the buffer is full are dropped.
type Mock struct {
	mu            sync.Mutex
	written       []Written
	notifications chan []byte
	connected     bool
	closed        bool
	responder     Responder
	WriteError    error
}

// NewMock creates a connected mock transport
func NewMock() *Mock {
	return &Mock{
		notifications: make(chan []byte, 256),
		connected:     true,
	}
}

// SetResponder installs a function that answers written frames
func (m *Mock) SetResponder(r Responder) {
	m.mu.Lock()
	m.responder = r
	m.mu.Unlock()
}

// SetConnected toggles the connected state without closing the channel
func (m *Mock) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
}

// Inject delivers a notification as if the robot had sent it
func (m *Mock) Inject(frame []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inject(frame)
}

func (m *Mock) inject(frame []byte) {
	if m.closed {
		return
	}
	select {
	case m.notifications <- append([]byte(nil), frame...):
	default:
	}
}

// Write records the frame and injects any responder output
func (m *Mock) Write(ctx context.Context, frame []byte, mode WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected || m.closed {
		return ErrUnavailable
	}
	if m.WriteError != nil {
		return m.WriteError
	}

	m.written = append(m.written, Written{Frame: append([]byte(nil), frame...), Mode: mode})
	if m.responder != nil {
		for _, resp := range m.responder(frame, mode) {
			m.inject(resp)
		}
	}
	return nil
}

// Writes returns a copy of every frame written so far
func (m *Mock) Writes() []Written {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Written(nil), m.written...)
}

// Notifications returns the injected frame channel
func (m *Mock) Notifications() <-chan []byte {
	return m.notifications
}

// Connected reports the simulated link state
func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected && !m.closed
}

// Close ends the link and closes the notification channel
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		m.connected = false
		close(m.notifications)
	}
	return nil
}
