// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"strings"
	"testing"
)

func TestValidateNotification(t *testing.T) {
	good := MustBuildPacket([]byte{0x01, 0x08, 0x11})

	badCRC := append([]byte(nil), good...)
	badCRC[ChecksumOffset] ^= 0xFF

	tests := []struct {
		name  string
		data  []byte
		want  []AnomalyType
		empty bool
	}{
		{name: "valid", data: good, empty: true},
		{name: "short", data: good[:12], want: []AnomalyType{AnomalyLengthMismatch}},
		{name: "crc", data: badCRC, want: []AnomalyType{AnomalyCRCError}},
		{name: "unknown device", data: MustBuildPacket([]byte{0x42, 0x00, 0x00}), want: []AnomalyType{AnomalyUnknownDevice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateNotification(NewNotification(tt.data))
			if tt.empty {
				if len(errs) != 0 {
					t.Fatalf("ValidateNotification() = %v, want none", errs)
				}
				return
			}
			for _, want := range tt.want {
				if !HasAnomaly(errs, want) {
					t.Errorf("missing anomaly %d in %v", want, errs)
				}
			}
		})
	}
}

func TestFormatNotification(t *testing.T) {
	n := NewNotification(MustBuildPacket([]byte{0x01, 0x08, 0x11,
		0, 0, 0, 1, 0, 0, 0, 10, 0, 0, 0, 20, 0x03, 0x84}))

	out := FormatNotification(n)
	for _, want := range []string{"MOTORS/DRIVE_DISTANCE", "01/08/11", "CRC OK", "(10, 20) mm", "90.0°"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatNotification() missing %q in:\n%s", want, out)
		}
	}

	cliff := FormatNotification(NewNotification(MustBuildPacket([]byte{0x14, 0, 0, 0, 0, 0, 0, 1})))
	if !strings.Contains(cliff, "TRIGGERED") {
		t.Errorf("cliff formatting missing TRIGGERED:\n%s", cliff)
	}

	runt := FormatNotification(NewNotification([]byte{0x01}))
	if !strings.Contains(runt, "RUNT") {
		t.Errorf("runt formatting = %q", runt)
	}
}

func TestCommandName(t *testing.T) {
	if got := CommandName(DeviceMotors, CmdDriveArc); got != "DRIVE_ARC" {
		t.Errorf("CommandName(1, 0x1B) = %q", got)
	}
	if got := CommandName(DeviceMotors, 0x7F); got != "CMD_7F" {
		t.Errorf("CommandName(1, 0x7F) = %q", got)
	}
	if got := DeviceName(0x99); got != "UNKNOWN" {
		t.Errorf("DeviceName(0x99) = %q", got)
	}
}
