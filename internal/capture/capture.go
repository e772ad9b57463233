// Package capture records the frames exchanged with a robot as a CBOR
// sequence so a session can be replayed and inspected offline.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Direction tells whether a frame was sent or received
type Direction uint8

const (
	TX Direction = 1
	RX Direction = 2
)

// String returns "tx" or "rx"
func (d Direction) String() string {
	switch d {
	case TX:
		return "tx"
	case RX:
		return "rx"
	default:
		return "??"
	}
}

// Record is one captured frame
type Record struct {
	Session   uuid.UUID `cbor:"1,keyasint"`
	Time      time.Time `cbor:"2,keyasint"`
	Direction Direction `cbor:"3,keyasint"`
	Frame     []byte    `cbor:"4,keyasint"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Recorder appends records to a writer. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	w       io.Writer
	enc     *cbor.Encoder
	closer  io.Closer
	session uuid.UUID
	now     func() time.Time
}

// NewRecorder starts a new session on w
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{
		w:       w,
		enc:     encMode.NewEncoder(w),
		session: uuid.New(),
		now:     time.Now,
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Create opens path for appending and starts a new session
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return NewRecorder(f), nil
}

// Session returns the id stamped on every record of this recorder
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// Record writes one frame
func (r *Recorder) Record(dir Direction, frame []byte) error {
	rec := Record{
		Session:   r.session,
		Time:      r.now(),
		Direction: dir,
		Frame:     append([]byte(nil), frame...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("write capture record: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Reader iterates over a capture file
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads records from r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the capture
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read capture record: %w", err)
	}
	return rec, nil
}
