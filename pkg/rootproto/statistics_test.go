// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"fmt"
	"strings"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "timed out" }
func (timeoutErr) Timeout() bool { return true }

func TestStatistics(t *testing.T) {
	s := NewStatistics()

	good := NewNotification(MustBuildPacket([]byte{0x01, 0x08, 0x11}))
	s.Update(good, ValidateNotification(good))

	bad := MustBuildPacket([]byte{0x01, 0x08, 0x11})
	bad[ChecksumOffset] ^= 0x55
	badN := NewNotification(bad)
	s.Update(badN, ValidateNotification(badN))

	cliff := NewNotification(MustBuildPacket([]byte{0x14, 0, 0, 0, 0, 0, 0, 1}))
	s.Update(cliff, ValidateNotification(cliff))

	s.RecordSent()
	s.RecordError(fmt.Errorf("wrapped: %w", timeoutErr{}))
	s.RecordError(&DecodeError{Record: "versions"})
	s.RecordError(nil)

	snap := s.Snapshot()
	if snap.TotalNotifications != 3 {
		t.Errorf("TotalNotifications = %d, want 3", snap.TotalNotifications)
	}
	if snap.ValidNotifications != 2 {
		t.Errorf("ValidNotifications = %d, want 2", snap.ValidNotifications)
	}
	if snap.CRCErrors != 1 {
		t.Errorf("CRCErrors = %d, want 1", snap.CRCErrors)
	}
	if snap.Hazards != 1 {
		t.Errorf("Hazards = %d, want 1", snap.Hazards)
	}
	if snap.Timeouts != 1 || snap.MalformedRecords != 1 {
		t.Errorf("Timeouts = %d, MalformedRecords = %d, want 1 and 1", snap.Timeouts, snap.MalformedRecords)
	}
	if s.Errors() != 3 {
		t.Errorf("Errors() = %d, want 3", s.Errors())
	}

	out := s.String()
	if !strings.Contains(out, "CRC Errors:") || !strings.Contains(out, "Cliff Events:") {
		t.Errorf("String() missing sections:\n%s", out)
	}

	s.Reset()
	if snap := s.Snapshot(); snap.TotalNotifications != 0 || snap.CommandsSent != 0 {
		t.Errorf("Reset() left counters: notifications=%d sent=%d", snap.TotalNotifications, snap.CommandsSent)
	}
}
