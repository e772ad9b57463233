// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// FrameReader is implemented by links that carry message boundaries, such as
// a websocket gateway sending one notification per message.
type FrameReader interface {
	ReadFrame() ([]byte, error)
}

// Stream adapts a byte stream bridge into a Transport. Without message
// boundaries it reads fixed-size frames, sliding past bytes that fail the
// frame check when one is set.
type Stream struct {
	rw            io.ReadWriteCloser
	frameSize     int
	frameCheck    func([]byte) bool
	notifications chan []byte
	errorHandler  func(error)
	logger        *slog.Logger

	writeMu   sync.Mutex
	connected atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Stream
type Option func(*Stream)

// WithFrameSize sets the fixed frame length for byte streams
func WithFrameSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.frameSize = n
		}
	}
}

// WithFrameCheck sets the validity test used to regain frame alignment on
// byte streams. It is not applied to links that implement FrameReader.
func WithFrameCheck(fn func([]byte) bool) Option {
	return func(s *Stream) { s.frameCheck = fn }
}

// WithBuffer sets the notification channel capacity
func WithBuffer(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.notifications = make(chan []byte, n)
		}
	}
}

// WithErrorHandler is called with the error that ended the read loop
func WithErrorHandler(fn func(error)) Option {
	return func(s *Stream) {
		if fn != nil {
			s.errorHandler = fn
		}
	}
}

// WithLogger sets the logger used for link diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStream starts reading frames from rw
func NewStream(rw io.ReadWriteCloser, opts ...Option) *Stream {
	s := &Stream{
		rw:            rw,
		frameSize:     20,
		notifications: make(chan []byte, 64),
		logger:        slog.Default(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.connected.Store(true)
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	defer close(s.notifications)
	defer s.connected.Store(false)

	fr, framed := s.rw.(FrameReader)
	for {
		var (
			frame []byte
			err   error
		)
		if framed {
			frame, err = fr.ReadFrame()
		} else {
			frame, err = s.readAligned()
		}
		if err != nil {
			select {
			case <-s.done:
			default:
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("link read failed", "error", err)
				}
				if s.errorHandler != nil {
					s.errorHandler(err)
				}
			}
			return
		}
		if len(frame) == 0 {
			continue
		}

		select {
		case s.notifications <- frame:
		case <-s.done:
			return
		}
	}
}

// readAligned reads one fixed-size frame. While the frame check fails the
// window slides by one byte, so a dropped or stray byte costs one frame
// instead of every frame after it.
func (s *Stream) readAligned() ([]byte, error) {
	frame := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.rw, frame); err != nil {
		return nil, err
	}
	if s.frameCheck == nil {
		return frame, nil
	}

	skipped := 0
	for !s.frameCheck(frame) {
		copy(frame, frame[1:])
		if _, err := io.ReadFull(s.rw, frame[len(frame)-1:]); err != nil {
			return nil, err
		}
		skipped++
	}
	if skipped > 0 {
		s.logger.Warn("frame alignment recovered", "skipped", skipped)
	}
	return frame, nil
}

// Write sends one frame. Both write modes are plain writes on a stream bridge;
// the bridge firmware owns link-layer acknowledgement.
func (s *Stream) Write(ctx context.Context, frame []byte, mode WriteMode) error {
	if !s.connected.Load() {
		return ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.rw.Write(frame); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, mode, err)
	}
	s.logger.Debug("frame written", "mode", mode.String(), "len", len(frame))
	return nil
}

// Notifications returns the received frame channel
func (s *Stream) Notifications() <-chan []byte {
	return s.notifications
}

// Connected reports whether the read loop is still running
func (s *Stream) Connected() bool {
	return s.connected.Load()
}

// Close closes the underlying bridge
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		close(s.done)
		err = s.rw.Close()
	})
	return err
}
