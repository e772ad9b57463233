// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package orchestrator turns a path of strokes into drive, rotate and arc
// commands while tracking the robot's pose.
//
// The pose is a local estimate: it starts at the origin facing north and is
// updated from the commanded geometry after each primitive succeeds. Headings
// are snapped to their exact target so truncation in the protocol's integer
// units does not accumulate.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Thermoquad/rootline/pkg/geometry"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

// DefaultTolerance is the distance under which a move counts as already done
const DefaultTolerance = 1e-6

// Driver is the subset of robot capabilities the orchestrator needs
type Driver interface {
	RotateAngle(ctx context.Context, decidegrees int32) (rootproto.MotionFinished, error)
	DriveDistance(ctx context.Context, mm int32) (rootproto.MotionFinished, error)
	DriveArc(ctx context.Context, decidegrees, radiusMM int32) (rootproto.MotionFinished, error)
	SetMarker(ctx context.Context, pos rootproto.MarkerPosition) (rootproto.MarkerFinished, error)
}

// Pose is the tracked position in millimeters and heading in degrees
type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

// Position returns the pose location
func (p Pose) Position() geometry.Point {
	return geometry.Pt(p.X, p.Y)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.1f, %.1f) %.1f°", p.X, p.Y, p.Heading)
}

// Orchestrator executes paths on a Driver
type Orchestrator struct {
	d         Driver
	tolerance float64
	logger    *slog.Logger
	observer  func(Pose)

	mu   sync.Mutex
	pose Pose
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTolerance sets the already-at-destination distance in millimeters
func WithTolerance(mm float64) Option {
	return func(o *Orchestrator) {
		if mm >= 0 && !math.IsNaN(mm) {
			o.tolerance = mm
		}
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver is called with the new pose after every update
func WithObserver(fn func(Pose)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New creates an orchestrator at the origin facing north
func New(d Driver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		d:         d,
		tolerance: DefaultTolerance,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Pose returns the current pose estimate
func (o *Orchestrator) Pose() Pose {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pose
}

// Reset puts the pose back at the origin facing north, matching the robot
// after a reset position command
func (o *Orchestrator) Reset() {
	o.setPose(Pose{})
}

func (o *Orchestrator) setPose(p Pose) {
	o.mu.Lock()
	o.pose = p
	o.mu.Unlock()
	if o.observer != nil {
		o.observer(p)
	}
}

// Execute draws every stroke in order. The first failing command aborts the
// rest of the path and leaves the pose at its last confirmed value.
func (o *Orchestrator) Execute(ctx context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	for i, stroke := range path {
		if err := o.stroke(ctx, stroke); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return nil
}

func (o *Orchestrator) stroke(ctx context.Context, s Stroke) error {
	switch len(s) {
	case 0:
		return nil
	case 1:
		return o.moveStraight(ctx, s[0], true)
	case 2:
		if err := o.moveStraight(ctx, s[0], false); err != nil {
			return err
		}
		return o.moveStraight(ctx, s[1], true)
	}

	if err := o.moveStraight(ctx, s[0], false); err != nil {
		return err
	}
	for i := 0; i+3 <= len(s); i++ {
		final := i+3 == len(s)
		if err := o.drawArc(ctx, s[i], s[i+1], s[i+2], final); err != nil {
			return err
		}
	}
	return nil
}

// rotateTo turns the shorter way to target and snaps the heading to it
func (o *Orchestrator) rotateTo(ctx context.Context, target float64) error {
	pose := o.Pose()
	if target == pose.Heading {
		return nil
	}

	turn := geometry.NormalizeTurn(target - pose.Heading)
	if _, err := o.d.RotateAngle(ctx, int32(turn*10)); err != nil {
		return fmt.Errorf("rotate %.1f°: %w", turn, err)
	}

	pose.Heading = target
	o.setPose(pose)
	return nil
}

func (o *Orchestrator) moveStraight(ctx context.Context, dest geometry.Point, markerDown bool) error {
	from := o.Pose().Position()
	if geometry.Distance(from, dest) <= o.tolerance {
		return nil
	}

	distance := geometry.Distance(from, dest)
	if !fitsInt32(distance) {
		return fmt.Errorf("%w: drive of %.3g mm", ErrInvalidPath, distance)
	}

	if err := o.rotateTo(ctx, geometry.Bearing(from, dest)); err != nil {
		return err
	}

	o.logger.Debug("drive", "from", from.String(), "to", dest.String(), "mm", distance, "marker", markerDown)

	if markerDown {
		if err := o.marker(ctx, rootproto.MarkerDown); err != nil {
			return err
		}
	}
	if _, err := o.d.DriveDistance(ctx, int32(distance)); err != nil {
		return fmt.Errorf("drive %.1f mm: %w", distance, err)
	}
	if markerDown {
		if err := o.marker(ctx, rootproto.MarkerUp); err != nil {
			return err
		}
	}

	pose := o.Pose()
	pose.X, pose.Y = dest.X, dest.Y
	o.setPose(pose)
	return nil
}

// drawArc drives the arc through p1, p2 and p3, stopping at p2 unless final
func (o *Orchestrator) drawArc(ctx context.Context, p1, p2, p3 geometry.Point, final bool) error {
	center, radius, err := geometry.CircleFromThreePoints(p1, p2, p3)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	sweep := geometry.SweepAngle(p1, p2, p3, center, final)
	if !fitsInt32(radius) || !fitsInt32(sweep*10) {
		return fmt.Errorf("%w: arc %.3g° r=%.3g mm", ErrInvalidPath, sweep, radius)
	}

	// Face along the tangent; the sign of the arc picks the direction
	if err := o.rotateTo(ctx, geometry.Bearing(p1, center)-90); err != nil {
		return err
	}

	dest := p2
	if final {
		dest = p3
	}
	o.logger.Debug("arc", "center", center.String(), "radius", radius, "sweep", sweep, "to", dest.String())

	if err := o.marker(ctx, rootproto.MarkerDown); err != nil {
		return err
	}
	if _, err := o.d.DriveArc(ctx, int32(math.Round(sweep*10)), int32(math.Round(radius))); err != nil {
		return fmt.Errorf("arc %.1f° r=%.1f: %w", sweep, radius, err)
	}
	if err := o.marker(ctx, rootproto.MarkerUp); err != nil {
		return err
	}

	o.setPose(Pose{X: dest.X, Y: dest.Y, Heading: geometry.Bearing(dest, center) - 90})
	return nil
}

func (o *Orchestrator) marker(ctx context.Context, pos rootproto.MarkerPosition) error {
	if _, err := o.d.SetMarker(ctx, pos); err != nil {
		return fmt.Errorf("marker %s: %w", pos, err)
	}
	return nil
}
