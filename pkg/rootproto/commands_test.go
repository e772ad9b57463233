// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		name    string
		packet  *Packet
		wantKey Key
		wantRaw []byte
	}{
		{
			name:    "get versions",
			packet:  NewGetVersions(IDGetVersions),
			wantKey: Key{Device: 0, Command: 0, ID: 0x10},
			wantRaw: []byte{0x00, 0x00, 0x10, 0xA5},
		},
		{
			name:    "stop and reset",
			packet:  NewStopAndReset(),
			wantKey: Key{Device: 0, Command: 3, ID: 0},
			wantRaw: []byte{0x00, 0x03, 0x00},
		},
		{
			name:    "drive forward 100mm",
			packet:  NewDriveDistance(IDDriveDistance, 100),
			wantKey: Key{Device: 1, Command: 8, ID: 0x11},
			wantRaw: []byte{0x01, 0x08, 0x11, 0x00, 0x00, 0x00, 0x64},
		},
		{
			name:    "drive backwards 100mm",
			packet:  NewDriveDistance(IDDriveDistance, -100),
			wantKey: Key{Device: 1, Command: 8, ID: 0x11},
			wantRaw: []byte{0x01, 0x08, 0x11, 0xFF, 0xFF, 0xFF, 0x9C},
		},
		{
			name:    "rotate 90 degrees",
			packet:  NewRotateAngle(IDRotateAngle, 900),
			wantKey: Key{Device: 1, Command: 0x0C, ID: 0x12},
			wantRaw: []byte{0x01, 0x0C, 0x12, 0x00, 0x00, 0x03, 0x84},
		},
		{
			name:    "reset position",
			packet:  NewResetPosition(),
			wantKey: Key{Device: 1, Command: 0x0F, ID: 0},
			wantRaw: []byte{0x01, 0x0F, 0x00},
		},
		{
			name:    "arc",
			packet:  NewDriveArc(IDDriveArc, 100, -100),
			wantKey: Key{Device: 1, Command: 0x1B, ID: 0x1B},
			wantRaw: []byte{0x01, 0x1B, 0x1B, 0x00, 0x00, 0x00, 0x64, 0xFF, 0xFF, 0xFF, 0x9C},
		},
		{
			name:    "marker down",
			packet:  NewSetMarker(IDSetMarker, MarkerDown),
			wantKey: Key{Device: 2, Command: 0, ID: 0x13},
			wantRaw: []byte{0x02, 0x00, 0x13, 0x01},
		},
		{
			name:    "lights blink red",
			packet:  NewSetLights(IDSetLights, LightsBlink, 255, 0, 0),
			wantKey: Key{Device: 3, Command: 2, ID: 0x01},
			wantRaw: []byte{0x03, 0x02, 0x01, 0x02, 0xFF, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.packet.Key(); got != tt.wantKey {
				t.Errorf("Key() = %s, want %s", got, tt.wantKey)
			}
			if got := tt.packet.Raw(); !bytes.Equal(got, tt.wantRaw) {
				t.Errorf("Raw() = % X, want % X", got, tt.wantRaw)
			}

			frame, err := tt.packet.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !VerifyChecksum(frame) {
				t.Error("encoded frame fails checksum")
			}
		})
	}
}

func TestNewSayPhrase(t *testing.T) {
	p, err := NewSayPhrase(IDSayPhrase, "hello")
	if err != nil {
		t.Fatalf("NewSayPhrase() error = %v", err)
	}
	want := []byte{DeviceSound, CmdSayPhrase, IDSayPhrase, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(p.Raw(), want) {
		t.Errorf("Raw() = % X, want % X", p.Raw(), want)
	}

	if _, err := NewSayPhrase(IDSayPhrase, strings.Repeat("a", MaxPhraseLength)); err != nil {
		t.Errorf("15 byte phrase rejected: %v", err)
	}

	_, err = NewSayPhrase(IDSayPhrase, strings.Repeat("a", MaxPhraseLength+1))
	if !errors.Is(err, ErrPhraseTooLong) {
		t.Errorf("16 byte phrase error = %v, want ErrPhraseTooLong", err)
	}
}

func TestParseLightsState(t *testing.T) {
	for _, state := range []LightsState{LightsOff, LightsOn, LightsBlink, LightsSpin} {
		got, ok := ParseLightsState(state.String())
		if !ok || got != state {
			t.Errorf("ParseLightsState(%q) = %v, %v", state.String(), got, ok)
		}
	}
	if _, ok := ParseLightsState("strobe"); ok {
		t.Error("ParseLightsState(\"strobe\") ok = true")
	}
}

func TestParseMarkerPosition(t *testing.T) {
	for _, pos := range []MarkerPosition{MarkerUp, MarkerDown, EraserDown} {
		got, ok := ParseMarkerPosition(pos.String())
		if !ok || got != pos {
			t.Errorf("ParseMarkerPosition(%q) = %v, %v", pos.String(), got, ok)
		}
	}
	if _, ok := ParseMarkerPosition("sideways"); ok {
		t.Error("ParseMarkerPosition(\"sideways\") ok = true")
	}
}
