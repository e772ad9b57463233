// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package orchestrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/Thermoquad/rootline/pkg/geometry"
)

// ErrInvalidPath is returned for paths the robot cannot execute
var ErrInvalidPath = errors.New("invalid path")

// Stroke is an ordered list of points. One point is a marked move to it, two
// points a line, three or more a chain of arcs.
type Stroke []geometry.Point

// Path is an ordered list of strokes
type Path []Stroke

// Validate rejects non-finite coordinates, colinear arc windows and moves
// whose parameters do not fit the protocol's int32 fields, before any command
// is sent.
func (p Path) Validate() error {
	var prev *geometry.Point
	for si, stroke := range p {
		for pi, pt := range stroke {
			if !pt.Finite() {
				return fmt.Errorf("%w: stroke %d point %d is not finite", ErrInvalidPath, si, pi)
			}
			if prev != nil && !fitsInt32(geometry.Distance(*prev, pt)) {
				return fmt.Errorf("%w: stroke %d point %d is out of driving range", ErrInvalidPath, si, pi)
			}
			prev = &stroke[pi]
		}
		for i := 0; i+3 <= len(stroke); i++ {
			if err := checkArc(stroke[i], stroke[i+1], stroke[i+2]); err != nil {
				return fmt.Errorf("%w: stroke %d points %d-%d %v", ErrInvalidPath, si, i, i+2, err)
			}
		}
	}
	return nil
}

// checkArc reports why an arc window cannot be sent as an arc command
func checkArc(p1, p2, p3 geometry.Point) error {
	if geometry.Colinear(p1, p2, p3) {
		return errors.New("are colinear")
	}
	_, radius, err := geometry.CircleFromThreePoints(p1, p2, p3)
	if err != nil {
		return err
	}
	if !fitsInt32(radius) {
		return fmt.Errorf("need radius %.3g mm", radius)
	}
	return nil
}

// fitsInt32 reports whether v rounds to a value an int32 field can carry
func fitsInt32(v float64) bool {
	r := math.Round(v)
	return r >= math.MinInt32 && r <= math.MaxInt32
}

// Points returns the total number of points in the path
func (p Path) Points() int {
	n := 0
	for _, s := range p {
		n += len(s)
	}
	return n
}
