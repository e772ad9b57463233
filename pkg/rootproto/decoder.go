// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Response records are fixed-offset views over one notification. Multi-byte
// fields are big-endian, matching the byte order of outgoing parameters.

// ErrMalformedResponse is returned when a notification is too short for its record
var ErrMalformedResponse = errors.New("malformed response")

// DecodeError describes a record that could not be decoded
type DecodeError struct {
	Record string
	Key    Key
	Length int
	Need   int
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: %v: got %d bytes, need %d", e.Record, e.Key, ErrMalformedResponse, e.Length, e.Need)
}

// Unwrap lets errors.Is match ErrMalformedResponse
func (e *DecodeError) Unwrap() error {
	return ErrMalformedResponse
}

// Versions is the GET_VERSIONS response
type Versions struct {
	BoardID         uint8
	FirmwareMajor   uint8
	FirmwareMinor   uint8
	HardwareMajor   uint8
	HardwareMinor   uint8
	BootloaderMajor uint8
	BootloaderMinor uint8
	ProtocolMajor   uint8
	ProtocolMinor   uint8
	Patch           uint8
}

// MotionFinished is the response to DRIVE_DISTANCE, ROTATE_ANGLE and DRIVE_ARC.
// Position is the robot's own odometry in millimeters, heading in decidegrees.
type MotionFinished struct {
	Timestamp uint32
	X         int32
	Y         int32
	Heading   int16
}

// MarkerFinished is the response to SET_MARKER_POSITION
type MarkerFinished struct {
	Position MarkerPosition
}

// CliffEvent is an unsolicited cliff sensor notification
type CliffEvent struct {
	Timestamp uint32
	Cliff     uint8
	Sensor    uint16
	Threshold uint16
}

// Triggered reports whether any cliff sensor fired
func (c CliffEvent) Triggered() bool {
	return c.Cliff != 0
}

// Record sizes (header included)
const (
	versionsRecordSize       = 13
	motionFinishedRecordSize = 17
	markerFinishedRecordSize = 4
	cliffEventRecordSize     = 12
	cliffFlagOffset          = 7
)

func checkLength(n *Notification, record string, need int) error {
	if n == nil {
		return &DecodeError{Record: record, Need: need}
	}
	if len(n.data) < need {
		key, _ := n.Key()
		return &DecodeError{Record: record, Key: key, Length: len(n.data), Need: need}
	}
	return nil
}

// DecodeVersions decodes a GET_VERSIONS response
func DecodeVersions(n *Notification) (Versions, error) {
	if err := checkLength(n, "versions", versionsRecordSize); err != nil {
		return Versions{}, err
	}
	d := n.data
	return Versions{
		BoardID:         d[3],
		FirmwareMajor:   d[4],
		FirmwareMinor:   d[5],
		HardwareMajor:   d[6],
		HardwareMinor:   d[7],
		BootloaderMajor: d[8],
		BootloaderMinor: d[9],
		ProtocolMajor:   d[10],
		ProtocolMinor:   d[11],
		Patch:           d[12],
	}, nil
}

// DecodeMotionFinished decodes a drive/rotate/arc finished response
func DecodeMotionFinished(n *Notification) (MotionFinished, error) {
	if err := checkLength(n, "motion finished", motionFinishedRecordSize); err != nil {
		return MotionFinished{}, err
	}
	d := n.data
	return MotionFinished{
		Timestamp: binary.BigEndian.Uint32(d[3:7]),
		X:         int32(binary.BigEndian.Uint32(d[7:11])),
		Y:         int32(binary.BigEndian.Uint32(d[11:15])),
		Heading:   int16(binary.BigEndian.Uint16(d[15:17])),
	}, nil
}

// DecodeMarkerFinished decodes a marker position finished response
func DecodeMarkerFinished(n *Notification) (MarkerFinished, error) {
	if err := checkLength(n, "marker finished", markerFinishedRecordSize); err != nil {
		return MarkerFinished{}, err
	}
	return MarkerFinished{Position: MarkerPosition(n.data[3])}, nil
}

// DecodeCliffEvent decodes a cliff sensor event. Only the flag byte is
// required; sensor and threshold are zero when the frame is truncated.
func DecodeCliffEvent(n *Notification) (CliffEvent, error) {
	if err := checkLength(n, "cliff event", cliffFlagOffset+1); err != nil {
		return CliffEvent{}, err
	}
	d := n.data
	evt := CliffEvent{
		Timestamp: binary.BigEndian.Uint32(d[3:7]),
		Cliff:     d[cliffFlagOffset],
	}
	if len(d) >= cliffEventRecordSize {
		evt.Sensor = binary.BigEndian.Uint16(d[8:10])
		evt.Threshold = binary.BigEndian.Uint16(d[10:12])
	}
	return evt, nil
}
