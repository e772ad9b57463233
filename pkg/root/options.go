// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package root

import (
	"context"
	"log/slog"
	"time"

	"github.com/Thermoquad/rootline/internal/capture"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

// Recorder receives every frame sent and received
type Recorder interface {
	Record(dir capture.Direction, frame []byte) error
}

// HazardHandler is called after a cliff event stopped the robot
type HazardHandler func(ctx context.Context, evt rootproto.CliffEvent)

// Option configures a Robot
type Option func(*Robot)

// WithTimeout sets how long a command waits for its response
func WithTimeout(d time.Duration) Option {
	return func(r *Robot) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Robot) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStatistics shares a statistics tracker with the caller
func WithStatistics(s *rootproto.Statistics) Option {
	return func(r *Robot) {
		if s != nil {
			r.stats = s
		}
	}
}

// WithUniqueRequestIDs draws request ids from a per-robot counter instead of
// the fixed per-capability ids, so overlapping calls of the same capability
// get distinct correlation keys.
func WithUniqueRequestIDs(enabled bool) Option {
	return func(r *Robot) { r.uniqueIDs = enabled }
}

// WithVerifyCRC drops responses with a bad checksum. Enabled by default.
// Cliff events are acted on regardless.
func WithVerifyCRC(enabled bool) Option {
	return func(r *Robot) { r.verifyCRC = enabled }
}

// WithRecorder captures all traffic
func WithRecorder(rec Recorder) Option {
	return func(r *Robot) { r.recorder = rec }
}

// WithHazardHandler registers a callback for cliff events
func WithHazardHandler(h HazardHandler) Option {
	return func(r *Robot) { r.onHazard = h }
}
