// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rootline/pkg/root"
	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

func TestExitCode(t *testing.T) {
	hazard := &root.HazardError{Event: rootproto.CliffEvent{Cliff: 1}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"timeout", &root.TimeoutError{After: time.Second}, ExitFailure},
		{"connection", &ConnectionError{Err: errors.New("no such port")}, ExitConnection},
		{"unavailable", fmt.Errorf("send: %w", transport.ErrUnavailable), ExitConnection},
		{"hazard", hazard, ExitHazard},
		{"wrapped hazard", fmt.Errorf("draw aborted: %w", hazard), ExitHazard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestParseDecidegrees(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"90", 900},
		{"-45.5", -455},
		{"0.04", 0},
		{"0.06", 1},
	}
	for _, tt := range tests {
		got, err := parseDecidegrees(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseDecidegrees("north")
	assert.Error(t, err)
	_, err = parseDecidegrees("1e12")
	assert.Error(t, err)
}

func TestParseInt32(t *testing.T) {
	got, err := parseInt32("distance", "-250")
	require.NoError(t, err)
	assert.Equal(t, int32(-250), got)

	_, err = parseInt32("distance", "3000000000")
	assert.Error(t, err)
	_, err = parseInt32("distance", "12.5")
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	rgb, err := parseColor(nil)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0xFF, 0xFF, 0xFF}, rgb)

	rgb, err = parseColor([]string{"255", "0x80", "0"})
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0xFF, 0x80, 0x00}, rgb)

	_, err = parseColor([]string{"1", "2"})
	assert.Error(t, err)
	_, err = parseColor([]string{"256", "0", "0"})
	assert.Error(t, err)
}

func TestParseControlCommand(t *testing.T) {
	tests := []struct {
		line   string
		desc   string
		motion bool
	}{
		{"stop", "stop", false},
		{"reset", "reset position", false},
		{"versions", "versions", false},
		{"drive 100", "drive 100 mm", true},
		{"  drive   -20 ", "drive -20 mm", true},
		{"rotate 90", "rotate 90.0°", true},
		{"arc -45 120", "arc -45.0° r=120 mm", true},
		{"marker down", "marker down", true},
		{"lights spin 255 0 0", "lights spin #FF0000", false},
		{"lights off", "lights off #FFFFFF", false},
		{"say hello root", `say "hello root"`, false},
		{"draw heart", "draw heart", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			a, err := parseControlCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.desc, a.desc)
			assert.Equal(t, tt.motion, a.motion)
			assert.NotNil(t, a.run)
		})
	}
}

func TestParseControlCommandErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"fly 10",
		"stop now",
		"drive",
		"drive far",
		"rotate",
		"arc 90",
		"marker sideways",
		"lights",
		"lights disco",
		"lights on 1 2",
		"say",
		"say this phrase is too long",
		"draw nothing",
	} {
		_, err := parseControlCommand(line)
		assert.Error(t, err, "%q", line)
	}

	_, err := parseControlCommand("say this phrase is too long")
	assert.ErrorIs(t, err, rootproto.ErrPhraseTooLong)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{0, "0 seconds"},
		{999, "0 seconds"},
		{1000, "1 second"},
		{61000, "1 minute and 1 second"},
		{3600000, "1 hour"},
		{90061000, "1 day, 1 hour, 1 minute, and 1 second"},
		{2 * 86400000, "2 days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.ms), "%d ms", tt.ms)
	}
}

func TestPingStats(t *testing.T) {
	var p pingStats
	assert.Equal(t, 0.0, p.loss())

	p.sent = 4
	p.add(10 * time.Millisecond)
	p.add(30 * time.Millisecond)
	p.add(20 * time.Millisecond)

	assert.Equal(t, 3, p.received)
	assert.Equal(t, 10*time.Millisecond, p.min)
	assert.Equal(t, 30*time.Millisecond, p.max)
	assert.InDelta(t, 25.0, p.loss(), 1e-9)
	assert.Contains(t, p.String(), "rtt min/avg/max = 10ms/20ms/30ms")
}

func TestEventLog(t *testing.T) {
	l := newEventLog(3)
	for i := 0; i < 5; i++ {
		l.add(fmt.Sprintf("event %d", i), i%2 == 1)
	}

	require.Len(t, l.entries, 3)
	assert.Equal(t, "event 2", l.entries[0].message)
	assert.True(t, l.entries[1].isError)

	tail := l.tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "event 4", tail[1].message)
	assert.Len(t, l.tail(10), 3)
}

func TestDescribeEvent(t *testing.T) {
	cliff := rootproto.NewNotification(rootproto.MustBuildPacket([]byte{
		0x14, 0x00, 0x00, 0, 0, 0x10, 0x00, 0x01, 0x00, 0x02, 0x00, 0x64,
	}))
	desc, isErr := describeEvent(cliff)
	assert.True(t, isErr)
	assert.Contains(t, desc, "CLIFF")

	runt := rootproto.NewNotification([]byte{0x01})
	desc, isErr = describeEvent(runt)
	assert.True(t, isErr)
	assert.Contains(t, desc, "runt")

	motion := rootproto.NewNotification(rootproto.MustBuildPacket([]byte{0x01, 0x08, 0x11}))
	desc, _ = describeUnsolicited(motion)
	assert.Empty(t, desc, "command responses are reported by their action")
}

func TestLoadPath(t *testing.T) {
	defer func() { drawDesign = "" }()

	drawDesign = "heart"
	p, source, err := loadPath(nil)
	require.NoError(t, err)
	assert.Equal(t, "design heart", source)
	assert.NotEmpty(t, p)

	drawDesign = "nope"
	_, _, err = loadPath(nil)
	assert.Error(t, err)

	drawDesign = "heart"
	_, _, err = loadPath([]string{"path.toml"})
	assert.Error(t, err, "file and design together")

	drawDesign = ""
	_, _, err = loadPath(nil)
	assert.Error(t, err)
}

func TestGatewayCredentials(t *testing.T) {
	saved := cfg.Connection
	defer func() { cfg.Connection = saved }()
	cfg.Connection.Username = ""
	cfg.Connection.Password = "from-config"

	u, err := url.Parse("ws://robot:secret@gateway.local/root")
	require.NoError(t, err)
	user, pw, err := gatewayCredentials(u)
	require.NoError(t, err)
	assert.Equal(t, "robot", user)
	assert.Equal(t, "secret", pw)

	u, err = url.Parse("ws://gateway.local/root")
	require.NoError(t, err)
	user, pw, err = gatewayCredentials(u)
	require.NoError(t, err)
	assert.Empty(t, user)
	assert.Empty(t, pw)

	cfg.Connection.Username = "admin"
	user, pw, err = gatewayCredentials(u)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "from-config", pw)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "ws://robot:xxxxx@gateway.local/root", redactURL("ws://robot:secret@gateway.local/root"))
	assert.Equal(t, "ws://gateway.local/root", redactURL("ws://gateway.local/root"))
}
