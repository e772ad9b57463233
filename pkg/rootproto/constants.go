// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rootproto provides a Go implementation of the Root robot BLE protocol.
//
// Every packet on the wire is exactly 20 bytes: a three byte header
// (device, command, request id), up to 16 payload bytes, zero padding, and a
// CRC-8 checksum in the last byte. This package builds outgoing command
// packets, validates incoming notifications, and decodes the fixed-layout
// response records the robot sends back.
package rootproto

// BLE identifiers advertised by the robot
const (
	ServiceUUID          = "48c5d828-ac2a-442d-97a3-0c9822b04979"
	RXCharacteristicUUID = "6e400002-b5a3-f393-e0a9-e50e24dcca9e" // Write
	TXCharacteristicUUID = "6e400003-b5a3-f393-e0a9-e50e24dcca9e" // Notify/Indicate
)

// Packet size limits
const (
	PacketSize      = 20
	HeaderSize      = 3
	MaxPayloadSize  = 16
	ChecksumOffset  = PacketSize - 1
	MaxPhraseLength = 15
)

// CRC-8 configuration (no reflection, no final XOR)
const (
	crcPolynomial = 0x07
	crcInitial    = 0x00
)

// Device identifiers
const (
	DeviceGeneral     = 0x00
	DeviceMotors      = 0x01
	DeviceMarker      = 0x02
	DeviceLEDLights   = 0x03
	DeviceSound       = 0x05
	DeviceCliffSensor = 0x14
)

// Sensor devices that only send unsolicited events
const (
	DeviceColorSensor   = 0x04
	DeviceIRProximity   = 0x0B
	DeviceBumpers       = 0x0C
	DeviceLightSensors  = 0x0D
	DeviceBattery       = 0x0E
	DeviceAccelerometer = 0x10
	DeviceTouchSensors  = 0x11
)

// Commands - General (device 0)
const (
	CmdGetVersions  = 0x00
	CmdStopAndReset = 0x03
)

// Commands - Motors (device 1)
const (
	CmdDriveDistance = 0x08
	CmdRotateAngle   = 0x0C
	CmdResetPosition = 0x0F
	CmdDriveArc      = 0x1B
)

// Commands - Marker (device 2)
const (
	CmdSetMarkerPosition = 0x00
)

// Commands - LED lights (device 3)
const (
	CmdSetLEDAnimation = 0x02
)

// Commands - Sound (device 5)
const (
	CmdSayPhrase = 0x04
)

// Events - Cliff sensor (device 20)
const (
	EvtCliff = 0x00
)

// Default request ids per capability
const (
	IDGetVersions   = 0x10
	IDStopAndReset  = 0x00
	IDDriveDistance = 0x11
	IDRotateAngle   = 0x12
	IDResetPosition = 0x00
	IDDriveArc      = 0x1B
	IDSetMarker     = 0x13
	IDSetLights     = 0x01
	IDSayPhrase     = 0x00
)

// MarkerPosition is the marker/eraser actuator position
type MarkerPosition uint8

// Marker positions
const (
	MarkerUp   MarkerPosition = 0x00
	MarkerDown MarkerPosition = 0x01
	EraserDown MarkerPosition = 0x02
)

// String returns a human readable marker position
func (m MarkerPosition) String() string {
	switch m {
	case MarkerUp:
		return "up"
	case MarkerDown:
		return "down"
	case EraserDown:
		return "eraser"
	default:
		return "unknown"
	}
}

// ParseMarkerPosition converts a position name to a MarkerPosition
func ParseMarkerPosition(s string) (MarkerPosition, bool) {
	switch s {
	case "up":
		return MarkerUp, true
	case "down":
		return MarkerDown, true
	case "eraser":
		return EraserDown, true
	}
	return 0, false
}

// LightsState is the LED cross animation mode
type LightsState uint8

// LED animation modes
const (
	LightsOff   LightsState = 0x00
	LightsOn    LightsState = 0x01
	LightsBlink LightsState = 0x02
	LightsSpin  LightsState = 0x03
)

// String returns a human readable animation name
func (l LightsState) String() string {
	switch l {
	case LightsOff:
		return "off"
	case LightsOn:
		return "on"
	case LightsBlink:
		return "blink"
	case LightsSpin:
		return "spin"
	default:
		return "unknown"
	}
}

// ParseLightsState converts an animation name to a LightsState
func ParseLightsState(s string) (LightsState, bool) {
	switch s {
	case "off":
		return LightsOff, true
	case "on":
		return LightsOn, true
	case "blink":
		return LightsBlink, true
	case "spin":
		return LightsSpin, true
	}
	return 0, false
}
