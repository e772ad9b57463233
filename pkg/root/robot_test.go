// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package root

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rootline/internal/capture"
	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

// simulatedRobot answers commands the way the firmware does
func simulatedRobot(frame []byte, _ transport.WriteMode) [][]byte {
	dev, cmd, id := frame[0], frame[1], frame[2]
	switch {
	case dev == rootproto.DeviceGeneral && cmd == rootproto.CmdGetVersions:
		return [][]byte{rootproto.MustBuildPacket([]byte{dev, cmd, id, 0xA5, 1, 4, 2, 0, 3, 1, 1, 6, 9})}
	case dev == rootproto.DeviceMotors && (cmd == rootproto.CmdDriveDistance || cmd == rootproto.CmdRotateAngle || cmd == rootproto.CmdDriveArc):
		raw := make([]byte, 17)
		raw[0], raw[1], raw[2] = dev, cmd, id
		binary.BigEndian.PutUint32(raw[3:7], 1234)
		copy(raw[7:11], frame[3:7]) // echo the first parameter as x
		y, heading := int32(-5), int16(-900)
		binary.BigEndian.PutUint32(raw[11:15], uint32(y))
		binary.BigEndian.PutUint16(raw[15:17], uint16(heading))
		return [][]byte{rootproto.MustBuildPacket(raw)}
	case dev == rootproto.DeviceMarker:
		return [][]byte{rootproto.MustBuildPacket([]byte{dev, cmd, id, frame[3]})}
	case dev == rootproto.DeviceSound:
		return [][]byte{rootproto.MustBuildPacket([]byte{dev, cmd, id})}
	}
	return nil
}

type runResult struct {
	err error
}

func startRobot(t *testing.T, m *transport.Mock, opts ...Option) (*Robot, <-chan runResult) {
	t.Helper()
	r := New(m, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan runResult, 1)
	go func() { done <- runResult{err: r.Run(ctx)} }()
	t.Cleanup(cancel)
	return r, done
}

func waitRun(t *testing.T, done <-chan runResult) error {
	t.Helper()
	select {
	case res := <-done:
		return res.err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestRobot_GetVersions(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(simulatedRobot)
	r, _ := startRobot(t, m, WithTimeout(time.Second))

	v, err := r.GetVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(0xA5), v.BoardID)
	assert.Equal(t, uint8(1), v.FirmwareMajor)
	assert.Equal(t, uint8(9), v.Patch)

	writes := m.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, transport.WithResponse, writes[0].Mode)
	assert.Equal(t, []byte{0x00, 0x00, 0x10, 0xA5}, writes[0].Frame[:4])
	assert.True(t, rootproto.VerifyChecksum(writes[0].Frame))
}

func TestRobot_Motion(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(simulatedRobot)
	r, _ := startRobot(t, m, WithTimeout(time.Second))
	ctx := context.Background()

	got, err := r.DriveDistance(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, rootproto.MotionFinished{Timestamp: 1234, X: 100, Y: -5, Heading: -900}, got)

	_, err = r.RotateAngle(ctx, -900)
	require.NoError(t, err)

	got, err = r.DriveArc(ctx, 900, 50)
	require.NoError(t, err)
	assert.Equal(t, int32(900), got.X)

	writes := m.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, []byte{0x01, 0x08, 0x11, 0x00, 0x00, 0x00, 0x64}, writes[0].Frame[:7])
	assert.Equal(t, []byte{0x01, 0x0C, 0x12, 0xFF, 0xFF, 0xFC, 0x7C}, writes[1].Frame[:7])
	assert.Equal(t, []byte{0x01, 0x1B, 0x1B, 0, 0, 0x03, 0x84, 0, 0, 0, 0x32}, writes[2].Frame[:11])
}

func TestRobot_MarkerLightsSay(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(simulatedRobot)
	r, _ := startRobot(t, m, WithTimeout(time.Second))
	ctx := context.Background()

	marker, err := r.SetMarker(ctx, rootproto.MarkerDown)
	require.NoError(t, err)
	assert.Equal(t, rootproto.MarkerDown, marker.Position)

	require.NoError(t, r.SetLights(ctx, rootproto.LightsSpin, 0, 255, 0))
	require.NoError(t, r.SayPhrase(ctx, "hi"))

	err = r.SayPhrase(ctx, "this phrase is too long")
	assert.ErrorIs(t, err, rootproto.ErrPhraseTooLong)

	writes := m.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, transport.WithoutResponse, writes[1].Mode)
	assert.Equal(t, []byte{0x03, 0x02, 0x01, 0x03, 0x00, 0xFF, 0x00}, writes[1].Frame[:7])
	assert.Equal(t, transport.WithoutResponse, writes[2].Mode)
}

func TestRobot_Timeout(t *testing.T) {
	m := transport.NewMock()
	stats := rootproto.NewStatistics()
	r, _ := startRobot(t, m, WithTimeout(30*time.Millisecond), WithStatistics(stats))

	_, err := r.DriveDistance(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, rootproto.Key{Device: 1, Command: 8, ID: 0x11}, te.Key)
	assert.Equal(t, uint64(1), stats.Snapshot().Timeouts)
}

func TestRobot_MalformedResponse(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(func(frame []byte, _ transport.WriteMode) [][]byte {
		return [][]byte{{frame[0], frame[1], frame[2], 0x00}}
	})
	r, _ := startRobot(t, m, WithTimeout(time.Second), WithVerifyCRC(false))

	_, err := r.DriveDistance(context.Background(), 10)
	assert.ErrorIs(t, err, rootproto.ErrMalformedResponse)
	assert.Equal(t, uint64(1), r.Statistics().Snapshot().MalformedRecords)
}

func TestRobot_ShortResponseWithChecksumVerification(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(func(frame []byte, _ transport.WriteMode) [][]byte {
		return [][]byte{{frame[0], frame[1], frame[2], 0x00}}
	})
	r, _ := startRobot(t, m, WithTimeout(time.Second))

	start := time.Now()
	_, err := r.DriveDistance(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, rootproto.ErrMalformedResponse)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRobot_BadChecksumDropped(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(func(frame []byte, mode transport.WriteMode) [][]byte {
		resp := simulatedRobot(frame, mode)
		for _, f := range resp {
			f[rootproto.ChecksumOffset] ^= 0xFF
		}
		return resp
	})
	r, _ := startRobot(t, m, WithTimeout(50*time.Millisecond))

	_, err := r.GetVersions(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, uint64(1), r.Statistics().Snapshot().CRCErrors)
}

func TestRobot_Unavailable(t *testing.T) {
	m := transport.NewMock()
	m.SetConnected(false)
	r := New(m)
	ctx := context.Background()

	_, err := r.GetVersions(ctx)
	assert.ErrorIs(t, err, transport.ErrUnavailable)
	assert.ErrorIs(t, r.StopAndReset(ctx), transport.ErrUnavailable)
	assert.ErrorIs(t, r.SetLights(ctx, rootproto.LightsOn, 1, 2, 3), transport.ErrUnavailable)
	assert.Empty(t, m.Writes())
}

func TestRobot_UniqueRequestIDs(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(simulatedRobot)
	r, _ := startRobot(t, m, WithTimeout(time.Second), WithUniqueRequestIDs(true))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(mm int32) {
			defer wg.Done()
			got, err := r.DriveDistance(ctx, mm)
			if assert.NoError(t, err) {
				assert.Equal(t, mm, got.X, "response must belong to its own request")
			}
		}(int32(10 * (i + 1)))
	}
	wg.Wait()

	seen := map[uint8]bool{}
	for _, w := range m.Writes() {
		assert.False(t, seen[w.Frame[2]], "request id 0x%02X reused", w.Frame[2])
		seen[w.Frame[2]] = true
	}
}

func TestRobot_CliffStopsRobot(t *testing.T) {
	m := transport.NewMock()
	handled := make(chan rootproto.CliffEvent, 1)
	_, done := startRobot(t, m, WithHazardHandler(func(_ context.Context, evt rootproto.CliffEvent) {
		handled <- evt
	}))

	// Clear events are ignored
	m.Inject(rootproto.MustBuildPacket([]byte{0x14, 0x00, 0x00, 0, 0, 0, 1, 0x00}))
	m.Inject(rootproto.MustBuildPacket([]byte{0x14, 0x00, 0x00, 0, 0, 0, 2, 0x01}))

	err := waitRun(t, done)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCliffDetected)

	var he *HazardError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, uint32(2), he.Event.Timestamp)
	assert.NoError(t, he.StopErr)

	writes := m.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, []byte{0x00, 0x03, 0x00}, writes[0].Frame[:3])
	assert.Equal(t, transport.WithoutResponse, writes[0].Mode)

	select {
	case evt := <-handled:
		assert.True(t, evt.Triggered())
	default:
		t.Error("hazard handler not called")
	}
}

func TestRobot_CliffWhileWaiting(t *testing.T) {
	m := transport.NewMock()
	r, done := startRobot(t, m, WithTimeout(5*time.Second))

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	go func() {
		res := <-done
		cancel(res.err)
	}()

	time.AfterFunc(20*time.Millisecond, func() {
		m.Inject(rootproto.MustBuildPacket([]byte{0x14, 0, 0, 0, 0, 0, 0, 0x01}))
	})

	_, err := r.DriveDistance(ctx, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(context.Cause(ctx), ErrCliffDetected))
}

func TestRobot_RunStopsWhenLinkCloses(t *testing.T) {
	m := transport.NewMock()
	_, done := startRobot(t, m)

	require.NoError(t, m.Close())
	assert.NoError(t, waitRun(t, done))
}

type memRecorder struct {
	mu   sync.Mutex
	dirs []capture.Direction
}

func (m *memRecorder) Record(dir capture.Direction, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = append(m.dirs, dir)
	return nil
}

func TestRobot_Recorder(t *testing.T) {
	m := transport.NewMock()
	m.SetResponder(simulatedRobot)
	rec := &memRecorder{}
	r, _ := startRobot(t, m, WithTimeout(time.Second), WithRecorder(rec))

	_, err := r.GetVersions(context.Background())
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []capture.Direction{capture.TX, capture.RX}, rec.dirs)
}
