// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package root

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/rootline/pkg/correlate"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var (
	// ErrTimeout matches every response timeout
	ErrTimeout = correlate.ErrTimeout
	// ErrCliffDetected matches the error Run returns after a cliff event
	ErrCliffDetected = errors.New("cliff detected")
)

// TimeoutError reports a command whose response did not arrive in time. The
// robot may have ignored the command, or the response may have been lost to a
// key collision; the two cannot be told apart.
type TimeoutError struct {
	Key   rootproto.Key
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response for %s after %s", e.Key, e.After)
}

// Timeout marks the error as a timeout for net.Error style checks
func (e *TimeoutError) Timeout() bool { return true }

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// HazardError is returned by Run when the cliff sensor fires
type HazardError struct {
	Event rootproto.CliffEvent
	// StopErr is set when the stop-and-reset command could not be sent
	StopErr error
}

func (e *HazardError) Error() string {
	msg := fmt.Sprintf("%v: cliff flag 0x%02X at %d ms", ErrCliffDetected, e.Event.Cliff, e.Event.Timestamp)
	if e.StopErr != nil {
		msg += fmt.Sprintf(" (stop failed: %v)", e.StopErr)
	}
	return msg
}

func (e *HazardError) Is(target error) bool { return target == ErrCliffDetected }

func (e *HazardError) Unwrap() error { return e.StopErr }
