// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/Thermoquad/rootline/pkg/geometry"
)

// Path files hold strokes as lists of [x, y] pairs.
//
// TOML:
//
//	[[strokes]]
//	points = [[0.0, -30.0], [-40.0, 30.0]]
//
// CBOR: an array of strokes, each an array of [x, y] arrays.

type tomlPathFile struct {
	Strokes []tomlStroke `toml:"strokes"`
}

type tomlStroke struct {
	Points [][2]float64 `toml:"points"`
}

// ParseTOML decodes a TOML path document
func ParseTOML(data []byte) (Path, error) {
	var f tomlPathFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse toml path: %w", err)
	}
	path := make(Path, 0, len(f.Strokes))
	for _, s := range f.Strokes {
		path = append(path, fromPairs(s.Points))
	}
	return path, nil
}

// MarshalTOML encodes a path as a TOML document
func MarshalTOML(p Path) ([]byte, error) {
	f := tomlPathFile{Strokes: make([]tomlStroke, 0, len(p))}
	for _, s := range p {
		f.Strokes = append(f.Strokes, tomlStroke{Points: toPairs(s)})
	}
	return toml.Marshal(f)
}

// ParseCBOR decodes a CBOR path document
func ParseCBOR(data []byte) (Path, error) {
	var raw [][][2]float64
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cbor path: %w", err)
	}
	path := make(Path, 0, len(raw))
	for _, s := range raw {
		path = append(path, fromPairs(s))
	}
	return path, nil
}

// MarshalCBOR encodes a path as CBOR
func MarshalCBOR(p Path) ([]byte, error) {
	raw := make([][][2]float64, 0, len(p))
	for _, s := range p {
		raw = append(raw, toPairs(s))
	}
	return cbor.Marshal(raw)
}

// ReadPathFile loads a .toml or .cbor path file and validates it
func ReadPathFile(name string) (Path, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	var path Path
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		path, err = ParseTOML(data)
	case ".cbor":
		path, err = ParseCBOR(data)
	default:
		return nil, fmt.Errorf("%s: unsupported path file type (want .toml or .cbor)", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return path, nil
}

// WritePathFile saves a path in the format chosen by the file extension
func WritePathFile(name string, p Path) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		data, err = MarshalTOML(p)
	case ".cbor":
		data, err = MarshalCBOR(p)
	default:
		return fmt.Errorf("%s: unsupported path file type (want .toml or .cbor)", name)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

func fromPairs(pairs [][2]float64) Stroke {
	s := make(Stroke, 0, len(pairs))
	for _, xy := range pairs {
		s = append(s, geometry.Pt(xy[0], xy[1]))
	}
	return s
}

func toPairs(s Stroke) [][2]float64 {
	pairs := make([][2]float64, 0, len(s))
	for _, p := range s {
		pairs = append(pairs, [2]float64{p.X, p.Y})
	}
	return pairs
}
