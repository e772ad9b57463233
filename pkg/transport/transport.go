// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport is the boundary between the protocol engine and whatever
// carries 20-byte frames to the robot: a BLE-UART serial bridge, a websocket
// BLE gateway, or a test mock.
package transport

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the link is not connected or has been closed
var ErrUnavailable = errors.New("transport unavailable")

// WriteMode selects acknowledged or unacknowledged delivery on the RX characteristic
type WriteMode int

const (
	// WithResponse asks the link layer to acknowledge the write
	WithResponse WriteMode = iota
	// WithoutResponse is fire and forget
	WithoutResponse
)

// String returns the mode name used in logs
func (m WriteMode) String() string {
	if m == WithoutResponse {
		return "without-response"
	}
	return "with-response"
}

// Transport moves frames to and from the robot
type Transport interface {
	// Write sends one complete frame
	Write(ctx context.Context, frame []byte, mode WriteMode) error
	// Notifications delivers received frames in arrival order. The channel is
	// closed when the link ends.
	Notifications() <-chan []byte
	// Connected reports whether the link is up
	Connected() bool
	// Close tears down the link
	Close() error
}
