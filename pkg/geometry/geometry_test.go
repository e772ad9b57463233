// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-4

func TestDistance(t *testing.T) {
	assert.Equal(t, 0.0, Distance(Pt(100, 200), Pt(100, 200)))
	assert.Equal(t, 100.0, Distance(Pt(100, 200), Pt(200, 200)))
	assert.InDelta(t, 141.42136, Distance(Pt(100, 100), Pt(200, 200)), delta)
	assert.Equal(t, Distance(Pt(100, 100), Pt(200, 200)), Distance(Pt(200, 200), Pt(100, 100)))
}

func TestBearing(t *testing.T) {
	tests := []struct {
		to   Point
		want float64
	}{
		{Pt(0, 0), 0},
		{Pt(0, 10), 0},
		{Pt(10, 10), 45},
		{Pt(10, 0), 90},
		{Pt(0, -10), 180},
		{Pt(-10, 0), -90},
		{Pt(-10, -10), -135},
		{Pt(10, -10), 135},
	}
	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, Bearing(Pt(0, 0), tt.to), delta)
		})
	}
}

func TestPointBearing(t *testing.T) {
	tests := []struct {
		point Point
		want  float64
	}{
		{Pt(10, 10), 45},
		{Pt(10, -10), 135},
		{Pt(-10, -10), -135},
		{Pt(-10, 10), -45},
		{Pt(10, 0), 90},
		{Pt(0, 10), 0},
		{Pt(-10, 0), -90},
		{Pt(0, -10), 180},
	}
	for _, tt := range tests {
		t.Run(tt.point.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, PointBearing(tt.point, Pt(0, 0)), delta)
		})
	}

	// Offset center
	assert.InDelta(t, 0, PointBearing(Pt(5, 15), Pt(5, 5)), delta)
}

func TestSweepAngle(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 Point
		center     Point
		final      bool
		want       float64
	}{
		{"quarter clockwise", Pt(-10, 0), Pt(0, 10), Pt(10, 0), Pt(0, 0), false, 90},
		{"quarter counter-clockwise", Pt(10, 0), Pt(0, 10), Pt(-10, 0), Pt(0, 0), false, -90},
		{"half clockwise final", Pt(-10, 0), Pt(0, 10), Pt(10, 0), Pt(0, 0), true, 180},
		{"three quarters final", Pt(0, -10), Pt(0, 10), Pt(10, 0), Pt(0, 0), true, 270},
		{"offset center", Pt(-1, -1), Pt(0, 2), Pt(9, -1), Pt(4, -1), false, 36.869904},
		{"offset center below", Pt(-1, -1), Pt(8, -4), Pt(9, -1), Pt(4, -1), false, -143.1301},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SweepAngle(tt.p1, tt.p2, tt.p3, tt.center, tt.final), delta)
		})
	}
}

func TestCircleFromThreePoints(t *testing.T) {
	center, radius, err := CircleFromThreePoints(Pt(-10, 0), Pt(0, 10), Pt(10, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0, center.X, delta)
	assert.InDelta(t, 0, center.Y, delta)
	assert.InDelta(t, 10, radius, delta)

	center, radius, err = CircleFromThreePoints(Pt(-1, -1), Pt(0, 2), Pt(9, -1))
	require.NoError(t, err)
	assert.InDelta(t, 4, center.X, delta)
	assert.InDelta(t, -1, center.Y, delta)
	assert.InDelta(t, 5, radius, delta)

	// Every input point lies on the returned circle
	pts := []Point{Pt(-40, 30), Pt(-20, 50), Pt(0, 30)}
	center, radius, err = CircleFromThreePoints(pts[0], pts[1], pts[2])
	require.NoError(t, err)
	for _, p := range pts {
		assert.InDelta(t, radius, Distance(center, p), delta)
	}
}

func TestCircleFromThreePoints_Colinear(t *testing.T) {
	_, _, err := CircleFromThreePoints(Pt(0, 0), Pt(5, 5), Pt(10, 10))
	assert.ErrorIs(t, err, ErrColinear)

	_, _, err = CircleFromThreePoints(Pt(1, 1), Pt(1, 1), Pt(3, 4))
	assert.ErrorIs(t, err, ErrColinear)

	assert.False(t, Colinear(Pt(0, 0), Pt(0, 10), Pt(10, 0)))
}

func TestNormalizeTurn(t *testing.T) {
	assert.Equal(t, -90.0, NormalizeTurn(270))
	assert.Equal(t, 90.0, NormalizeTurn(-270))
	assert.Equal(t, 180.0, NormalizeTurn(180))
	assert.Equal(t, 180.0, NormalizeTurn(-180))
	assert.Equal(t, -45.0, NormalizeTurn(-45))
}

func TestPointFinite(t *testing.T) {
	assert.True(t, Pt(1, 2).Finite())
	assert.False(t, Pt(math.NaN(), 0).Finite())
	assert.False(t, Pt(0, math.Inf(-1)).Finite())
}
