// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package root

import (
	"context"

	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

// GetVersions queries board and firmware versions
func (r *Robot) GetVersions(ctx context.Context) (rootproto.Versions, error) {
	n, err := r.request(ctx, rootproto.NewGetVersions(r.nextRequestID(rootproto.IDGetVersions)), transport.WithResponse)
	if err != nil {
		return rootproto.Versions{}, err
	}
	return rootproto.DecodeVersions(n)
}

// StopAndReset cancels all pending actions. The robot does not answer.
func (r *Robot) StopAndReset(ctx context.Context) error {
	return r.send(ctx, rootproto.NewStopAndReset(), transport.WithoutResponse)
}

// DriveDistance drives straight for mm millimeters, backwards when negative
func (r *Robot) DriveDistance(ctx context.Context, mm int32) (rootproto.MotionFinished, error) {
	return r.motion(ctx, rootproto.NewDriveDistance(r.nextRequestID(rootproto.IDDriveDistance), mm))
}

// RotateAngle turns in place by decidegrees tenths of a degree, clockwise when positive
func (r *Robot) RotateAngle(ctx context.Context, decidegrees int32) (rootproto.MotionFinished, error) {
	return r.motion(ctx, rootproto.NewRotateAngle(r.nextRequestID(rootproto.IDRotateAngle), decidegrees))
}

// ResetPosition zeroes the robot's odometry. The robot does not answer.
func (r *Robot) ResetPosition(ctx context.Context) error {
	return r.send(ctx, rootproto.NewResetPosition(), transport.WithoutResponse)
}

// DriveArc drives along an arc of decidegrees tenths of a degree and radius millimeters
func (r *Robot) DriveArc(ctx context.Context, decidegrees, radiusMM int32) (rootproto.MotionFinished, error) {
	return r.motion(ctx, rootproto.NewDriveArc(r.nextRequestID(rootproto.IDDriveArc), decidegrees, radiusMM))
}

func (r *Robot) motion(ctx context.Context, p *rootproto.Packet) (rootproto.MotionFinished, error) {
	n, err := r.request(ctx, p, transport.WithResponse)
	if err != nil {
		return rootproto.MotionFinished{}, err
	}
	m, err := rootproto.DecodeMotionFinished(n)
	if err != nil {
		r.stats.RecordError(err)
	}
	return m, err
}

// SetMarker moves the marker/eraser actuator
func (r *Robot) SetMarker(ctx context.Context, pos rootproto.MarkerPosition) (rootproto.MarkerFinished, error) {
	n, err := r.request(ctx, rootproto.NewSetMarker(r.nextRequestID(rootproto.IDSetMarker), pos), transport.WithResponse)
	if err != nil {
		return rootproto.MarkerFinished{}, err
	}
	m, err := rootproto.DecodeMarkerFinished(n)
	if err != nil {
		r.stats.RecordError(err)
	}
	return m, err
}

// SetLights sets the LED animation and color. The write is unacknowledged.
func (r *Robot) SetLights(ctx context.Context, state rootproto.LightsState, red, green, blue uint8) error {
	return r.send(ctx, rootproto.NewSetLights(r.nextRequestID(rootproto.IDSetLights), state, red, green, blue), transport.WithoutResponse)
}

// SayPhrase speaks up to 15 bytes of text and waits until the robot is done.
// The finished response carries nothing of interest.
func (r *Robot) SayPhrase(ctx context.Context, phrase string) error {
	p, err := rootproto.NewSayPhrase(r.nextRequestID(rootproto.IDSayPhrase), phrase)
	if err != nil {
		return err
	}
	_, err = r.request(ctx, p, transport.WithoutResponse)
	return err
}

// Disconnect closes the transport
func (r *Robot) Disconnect() error {
	return r.t.Close()
}
