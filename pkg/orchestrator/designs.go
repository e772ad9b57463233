// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package orchestrator

import (
	"sort"

	"github.com/Thermoquad/rootline/pkg/geometry"
)

func strokeOf(xy ...float64) Stroke {
	s := make(Stroke, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		s = append(s, geometry.Pt(xy[i], xy[i+1]))
	}
	return s
}

// designs are the built-in drawings, in millimeters
var designs = map[string]Path{
	"heart": {
		strokeOf(0, -30, -40, 30),
		strokeOf(-40, 30, -20, 50, 0, 30),
		strokeOf(0, 30, 20, 50, 40, 30),
		strokeOf(40, 30, 0, -30),
	},
	"H": {
		strokeOf(10, 0, 70, 0),
		strokeOf(40, 0, 40, 30),
		strokeOf(10, 30, 70, 30),
	},
	"y": {
		strokeOf(10, 10, 110, 110),
		strokeOf(60, 60, 10, 110),
	},
	"Q": {
		strokeOf(10, 10, 10, 50, 50, 50, 50, 10, 10, 10),
		strokeOf(40, 20, 60, 0),
	},
	// Letter B from marked point moves
	"B": {
		strokeOf(10, 10, 10, 50),
		strokeOf(25, 50),
		strokeOf(35, 40),
		strokeOf(25, 30),
		strokeOf(10, 30),
		strokeOf(25, 30),
		strokeOf(35, 20),
		strokeOf(25, 10),
		strokeOf(10, 10),
	},
	// Letter B with arcs for the bowls
	"B-arcs": {
		strokeOf(10, 10, 10, 50),
		strokeOf(10, 50, 20, 40, 10, 30),
		strokeOf(10, 30, 20, 20, 10, 10),
	},
}

// Design returns a copy of a built-in drawing
func Design(name string) (Path, bool) {
	d, ok := designs[name]
	if !ok {
		return nil, false
	}
	out := make(Path, len(d))
	for i, s := range d {
		out[i] = append(Stroke(nil), s...)
	}
	return out, true
}

// DesignNames lists the built-in drawings in sorted order
func DesignNames() []string {
	names := make([]string, 0, len(designs))
	for name := range designs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
