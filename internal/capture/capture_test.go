package capture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderReader(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)

	base := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	rec.now = func() time.Time { return base }

	require.NoError(t, rec.Record(TX, []byte{0x01, 0x08, 0x11}))
	require.NoError(t, rec.Record(RX, []byte{0x14, 0x00, 0x00}))
	require.NoError(t, rec.Close())

	r := NewReader(&buf)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, rec.Session(), first.Session)
	assert.Equal(t, TX, first.Direction)
	assert.Equal(t, []byte{0x01, 0x08, 0x11}, first.Frame)
	assert.True(t, base.Equal(first.Time), "time %s", first.Time)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, RX, second.Direction)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCreate_AppendsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")

	a, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, a.Record(TX, []byte{1}))
	require.NoError(t, a.Close())

	b, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, b.Record(RX, []byte{2}))
	require.NoError(t, b.Close())
	assert.NotEqual(t, a.Session(), b.Session())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := NewReader(f)
	var sessions []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		sessions = append(sessions, rec.Session.String())
	}
	assert.Equal(t, []string{a.Session().String(), b.Session().String()}, sessions)
}

func TestReader_Corrupt(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0xFF, 0x00})).Next()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "tx", TX.String())
	assert.Equal(t, "rx", RX.String())
}
