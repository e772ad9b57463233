// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Command builder functions create Packet structs ready for encoding.
// Multi-byte parameters are serialized big-endian.

// ErrPhraseTooLong is returned when a phrase does not fit in one packet
var ErrPhraseTooLong = errors.New("phrase too long")

// NewGetVersions creates a GET_VERSIONS packet (0/0).
// The robot answers with a versions record carrying the same id.
func NewGetVersions(id uint8) *Packet {
	return NewPacket(DeviceGeneral, CmdGetVersions, id, []byte{0xA5})
}

// NewStopAndReset creates a STOP_AND_RESET packet (0/3).
// Cancels any pending actions; no response.
func NewStopAndReset() *Packet {
	return NewPacket(DeviceGeneral, CmdStopAndReset, IDStopAndReset, nil)
}

// NewDriveDistance creates a DRIVE_DISTANCE packet (1/8).
// Distance is in millimeters, negative drives backwards.
func NewDriveDistance(id uint8, distanceMM int32) *Packet {
	return NewPacket(DeviceMotors, CmdDriveDistance, id, int32Bytes(distanceMM))
}

// NewRotateAngle creates a ROTATE_ANGLE packet (1/12).
// Angle is in tenths of a degree, positive turns clockwise.
func NewRotateAngle(id uint8, decidegrees int32) *Packet {
	return NewPacket(DeviceMotors, CmdRotateAngle, id, int32Bytes(decidegrees))
}

// NewResetPosition creates a RESET_POSITION packet (1/15).
// The robot resets its odometry to (0, 0) facing +y; no response.
func NewResetPosition() *Packet {
	return NewPacket(DeviceMotors, CmdResetPosition, IDResetPosition, nil)
}

// NewDriveArc creates a DRIVE_ARC packet (1/27).
// Angle is in tenths of a degree and radius in millimeters, both signed.
func NewDriveArc(id uint8, decidegrees, radiusMM int32) *Packet {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint32(payload[0:4], uint32(decidegrees))
	binary.BigEndian.PutUint32(payload[4:8], uint32(radiusMM))
	return NewPacket(DeviceMotors, CmdDriveArc, id, payload)
}

// NewSetMarker creates a SET_MARKER_POSITION packet (2/0).
func NewSetMarker(id uint8, position MarkerPosition) *Packet {
	return NewPacket(DeviceMarker, CmdSetMarkerPosition, id, []byte{uint8(position)})
}

// NewSetLights creates a SET_LED_ANIMATION packet (3/2).
func NewSetLights(id uint8, state LightsState, r, g, b uint8) *Packet {
	return NewPacket(DeviceLEDLights, CmdSetLEDAnimation, id, []byte{uint8(state), r, g, b})
}

// NewSayPhrase creates a SAY_PHRASE packet (5/4).
// The phrase is sent as raw bytes and must be at most 15 bytes long.
func NewSayPhrase(id uint8, phrase string) (*Packet, error) {
	if len(phrase) > MaxPhraseLength {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPhraseTooLong, len(phrase), MaxPhraseLength)
	}
	return NewPacket(DeviceSound, CmdSayPhrase, id, []byte(phrase)), nil
}

func int32Bytes(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}
