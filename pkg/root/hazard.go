// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package root

import (
	"context"

	"github.com/Thermoquad/rootline/pkg/rootproto"
)

// watchHazards stops the robot on the first triggered cliff event
func (r *Robot) watchHazards(ctx context.Context, frames <-chan []byte) error {
	for frame := range frames {
		n := r.receive(frame)

		evt, err := rootproto.DecodeCliffEvent(n)
		if err != nil {
			r.logger.Warn("undecodable cliff event", "error", err)
			continue
		}
		if !evt.Triggered() {
			r.logger.Debug("cliff sensor clear", "sensor", evt.Sensor)
			continue
		}

		r.logger.Error("cliff detected, stopping robot", "flag", evt.Cliff, "sensor", evt.Sensor)

		// The stop must go out even when the session is already ending
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		stopErr := r.StopAndReset(stopCtx)
		cancel()
		if stopErr != nil {
			r.logger.Error("stop after cliff failed", "error", stopErr)
		}

		if r.onHazard != nil {
			r.onHazard(ctx, evt)
		}
		return &HazardError{Event: evt, StopErr: stopErr}
	}
	return nil
}
