// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package geometry holds the plane geometry used to turn paths into motion.
//
// Angles are in degrees using the robot heading convention: 0 points along
// +y ("north") and positive angles turn toward +x (clockwise seen from above).
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrColinear is returned when three points do not define a circle
var ErrColinear = errors.New("points are colinear")

// colinearTolerance bounds the cross product below which three points are
// treated as lying on one line
const colinearTolerance = 1e-9

const rad2deg = 180 / math.Pi

// Point is a position in millimeters
type Point struct {
	X float64 `toml:"x" cbor:"x"`
	Y float64 `toml:"y" cbor:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Finite reports whether both coordinates are finite numbers
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Distance returns the Euclidean distance between a and b
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b.vec(), a.vec()))
}

// Bearing returns the heading that faces from -> to. Axis-aligned moves are
// resolved exactly; a zero-length move has bearing 0.
func Bearing(from, to Point) float64 {
	switch {
	case from.X == to.X && from.Y == to.Y:
		return 0
	case from.X == to.X:
		if from.Y < to.Y {
			return 0
		}
		return 180
	case from.Y == to.Y:
		if from.X < to.X {
			return 90
		}
		return -90
	}
	return math.Atan2(to.X-from.X, to.Y-from.Y) * rad2deg
}

// PointBearing returns where point lies on a circle around center, in
// degrees from north, within [-180, 180].
func PointBearing(point, center Point) float64 {
	// atan2 measures from +x counter-clockwise; remap by quadrant
	res := math.Atan2(point.Y-center.Y, point.X-center.X) * rad2deg
	switch {
	case res < -90:
		return -(270 + res)
	case res <= 90:
		return 90 - res
	default:
		return -(res - 90)
	}
}

// Colinear reports whether p1, p2 and p3 lie on one line
func Colinear(p1, p2, p3 Point) bool {
	cross := r2.Cross(r2.Sub(p2.vec(), p1.vec()), r2.Sub(p3.vec(), p1.vec()))
	return scalar.EqualWithinAbs(cross, 0, colinearTolerance)
}

// CircleFromThreePoints returns the center and radius of the circle through
// p1, p2 and p3.
func CircleFromThreePoints(p1, p2, p3 Point) (Point, float64, error) {
	if Colinear(p1, p2, p3) {
		return Point{}, 0, fmt.Errorf("circle through %s %s %s: %w", p1, p2, p3, ErrColinear)
	}

	x12 := p1.X - p2.X
	x13 := p1.X - p3.X
	y12 := p1.Y - p2.Y
	y13 := p1.Y - p3.Y
	y31 := p3.Y - p1.Y
	y21 := p2.Y - p1.Y
	x31 := p3.X - p1.X
	x21 := p2.X - p1.X

	sx13 := p1.X*p1.X - p3.X*p3.X
	sy13 := p1.Y*p1.Y - p3.Y*p3.Y
	sx21 := p2.X*p2.X - p1.X*p1.X
	sy21 := p2.Y*p2.Y - p1.Y*p1.Y

	// Circle x² + y² + 2gx + 2fy + c = 0 with center (-g, -f)
	f := (sx13*x12 + sy13*x12 + sx21*x13 + sy21*x13) / (2 * (y31*x12 - y21*x13))
	g := (sx13*y12 + sy13*y12 + sx21*y13 + sy21*y13) / (2 * (x31*y12 - x21*y13))
	c := -p1.X*p1.X - p1.Y*p1.Y - 2*g*p1.X - 2*f*p1.Y

	center := Point{X: -g, Y: -f}
	radius := math.Sqrt(g*g + f*f - c)
	return center, radius, nil
}

// SweepAngle returns the signed arc, in degrees, travelled around center from
// p1 through p2. With final set it continues on to p3. Positive is clockwise.
// The winding is taken from the order of all three points, which decides
// between the short and the long way round.
func SweepAngle(p1, p2, p3, center Point, final bool) float64 {
	start := PointBearing(p1, center)
	d12 := PointBearing(p2, center) - start
	d13 := PointBearing(p3, center) - start

	clockwise := false
	switch {
	case d12 > 0:
		clockwise = d13 > d12 || d13 < 0
	case d12 < 0:
		clockwise = d13 > d12
	}

	sweep := d12
	if final {
		sweep = d13
	}

	switch {
	case clockwise && sweep < 0:
		return sweep + 360
	case !clockwise && sweep > 0:
		return sweep - 360
	}
	return sweep
}

// NormalizeTurn maps a heading change into (-180, 180] by one wrap, so the
// robot takes the shorter turn. A half turn is always made clockwise.
func NormalizeTurn(deg float64) float64 {
	switch {
	case deg > 180:
		return deg - 360
	case deg <= -180:
		return deg + 360
	}
	return deg
}
