// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"fmt"
	"strings"
)

// FormatNotification formats a received notification into a human-readable string
func FormatNotification(n *Notification) string {
	timestamp := n.timestamp.Format("15:04:05.000")

	key, ok := n.Key()
	if !ok {
		return fmt.Sprintf("[%s] RUNT len=%d\n%s", timestamp, n.Len(), formatHexDump(n.data))
	}

	crcStr := "CRC OK"
	if !VerifyChecksum(n.data) {
		crcStr = "CRC BAD"
	}

	result := fmt.Sprintf("[%s] %s/%s (%s) %s\n", timestamp,
		DeviceName(key.Device), CommandName(key.Device, key.Command), key, crcStr)

	return result + formatResponse(key, n)
}

// FormatPacket formats an outgoing packet into a human-readable string
func FormatPacket(p *Packet) string {
	result := fmt.Sprintf("-> %s/%s (%s)\n", DeviceName(p.Device), CommandName(p.Device, p.Command), p.Key())
	if len(p.Payload) > 0 {
		result += formatHexDump(p.Payload)
	}
	return result
}

// DeviceName returns the human-readable name for a device id
func DeviceName(device uint8) string {
	switch device {
	case DeviceGeneral:
		return "GENERAL"
	case DeviceMotors:
		return "MOTORS"
	case DeviceMarker:
		return "MARKER"
	case DeviceLEDLights:
		return "LED_LIGHTS"
	case DeviceColorSensor:
		return "COLOR_SENSOR"
	case DeviceSound:
		return "SOUND"
	case DeviceIRProximity:
		return "IR_PROXIMITY"
	case DeviceBumpers:
		return "BUMPERS"
	case DeviceLightSensors:
		return "LIGHT_SENSORS"
	case DeviceBattery:
		return "BATTERY"
	case DeviceAccelerometer:
		return "ACCELEROMETER"
	case DeviceTouchSensors:
		return "TOUCH_SENSORS"
	case DeviceCliffSensor:
		return "CLIFF_SENSOR"
	default:
		return "UNKNOWN"
	}
}

// CommandName returns the human-readable name for a device/command pair
func CommandName(device, command uint8) string {
	switch device {
	case DeviceGeneral:
		switch command {
		case CmdGetVersions:
			return "GET_VERSIONS"
		case CmdStopAndReset:
			return "STOP_AND_RESET"
		}
	case DeviceMotors:
		switch command {
		case CmdDriveDistance:
			return "DRIVE_DISTANCE"
		case CmdRotateAngle:
			return "ROTATE_ANGLE"
		case CmdResetPosition:
			return "RESET_POSITION"
		case CmdDriveArc:
			return "DRIVE_ARC"
		}
	case DeviceMarker:
		if command == CmdSetMarkerPosition {
			return "SET_MARKER_POSITION"
		}
	case DeviceLEDLights:
		if command == CmdSetLEDAnimation {
			return "SET_LED_ANIMATION"
		}
	case DeviceSound:
		if command == CmdSayPhrase {
			return "SAY_PHRASE"
		}
	case DeviceCliffSensor:
		if command == EvtCliff {
			return "CLIFF_EVENT"
		}
	}
	return fmt.Sprintf("CMD_%02X", command)
}

// formatResponse formats the record fields for known responses
func formatResponse(key Key, n *Notification) string {
	switch {
	case key.Device == DeviceGeneral && key.Command == CmdGetVersions:
		v, err := DecodeVersions(n)
		if err != nil {
			return "  " + err.Error() + "\n"
		}
		return FormatVersions(v)

	case key.Device == DeviceMotors &&
		(key.Command == CmdDriveDistance || key.Command == CmdRotateAngle || key.Command == CmdDriveArc):
		m, err := DecodeMotionFinished(n)
		if err != nil {
			return "  " + err.Error() + "\n"
		}
		return fmt.Sprintf("  Time: %d ms, Position: (%d, %d) mm, Heading: %.1f°\n",
			m.Timestamp, m.X, m.Y, float64(m.Heading)/10.0)

	case key.Device == DeviceMarker && key.Command == CmdSetMarkerPosition:
		m, err := DecodeMarkerFinished(n)
		if err != nil {
			return "  " + err.Error() + "\n"
		}
		return fmt.Sprintf("  Marker: %s (%d)\n", m.Position, m.Position)

	case key.Device == DeviceCliffSensor:
		c, err := DecodeCliffEvent(n)
		if err != nil {
			return "  " + err.Error() + "\n"
		}
		state := "clear"
		if c.Triggered() {
			state = "TRIGGERED"
		}
		return fmt.Sprintf("  Cliff: %s (0x%02X), Sensor: %d, Threshold: %d, Time: %d ms\n",
			state, c.Cliff, c.Sensor, c.Threshold, c.Timestamp)
	}

	// Default: hex dump of the payload region
	if n.Len() > HeaderSize {
		end := n.Len()
		if end == PacketSize {
			end = ChecksumOffset
		}
		return formatHexDump(n.data[HeaderSize:end])
	}
	return ""
}

// FormatVersions formats a versions record, one component per line
func FormatVersions(v Versions) string {
	var s strings.Builder
	fmt.Fprintf(&s, "  Board: 0x%02X\n", v.BoardID)
	fmt.Fprintf(&s, "  Firmware version: %d.%d\n", v.FirmwareMajor, v.FirmwareMinor)
	fmt.Fprintf(&s, "  Hardware version: %d.%d\n", v.HardwareMajor, v.HardwareMinor)
	fmt.Fprintf(&s, "  Bootloader version: %d.%d\n", v.BootloaderMajor, v.BootloaderMinor)
	fmt.Fprintf(&s, "  Protocol version: %d.%d\n", v.ProtocolMajor, v.ProtocolMinor)
	fmt.Fprintf(&s, "  Patch number: %d\n", v.Patch)
	return s.String()
}

func formatHexDump(data []byte) string {
	result := "  Payload: "
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}
