// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Thermoquad/rootline/internal/capture"
	"github.com/Thermoquad/rootline/internal/log"
	"github.com/Thermoquad/rootline/pkg/root"
	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

// Exit codes
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitConnection = 2
	ExitHazard     = 3
)

// ConnectionError marks a failure to reach the bridge
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	var connErr *ConnectionError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, root.ErrCliffDetected):
		return ExitHazard
	case errors.As(err, &connErr), errors.Is(err, transport.ErrUnavailable):
		return ExitConnection
	default:
		return ExitFailure
	}
}

// Session is one connected robot with its receive loop running
type Session struct {
	Robot *root.Robot
	Info  string

	link     *transport.Stream
	recorder *capture.Recorder
	cancel   context.CancelCauseFunc
	done     chan error
}

// sessionOptions builds robot options from cfg
func sessionOptions(rec *capture.Recorder) ([]root.Option, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	opts := []root.Option{
		root.WithTimeout(timeout),
		root.WithLogger(log.With("component", "robot")),
		root.WithUniqueRequestIDs(cfg.Protocol.UniqueRequestIDs),
		root.WithVerifyCRC(cfg.Protocol.VerifyCRC),
		root.WithHazardHandler(func(ctx context.Context, evt rootproto.CliffEvent) {
			fmt.Fprintf(os.Stderr, "\nCLIFF DETECTED (sensor=0x%04X threshold=%d), robot stopped\n",
				evt.Sensor, evt.Threshold)
		}),
	}
	if rec != nil {
		opts = append(opts, root.WithRecorder(rec))
	}
	return opts, nil
}

// OpenSession connects to the robot and starts its receive loop. The
// returned context ends when the parent does, the link drops, or a cliff
// event stops the robot; context.Cause reports which.
func OpenSession(parent context.Context) (context.Context, *Session, error) {
	link, info, err := OpenTransport(parent)
	if err != nil {
		return nil, nil, err
	}

	var rec *capture.Recorder
	if cfg.Capture.Path != "" {
		rec, err = capture.Create(cfg.Capture.Path)
		if err != nil {
			link.Close()
			return nil, nil, err
		}
		log.Info("recording session", "path", cfg.Capture.Path, "session", rec.Session().String())
	}

	opts, err := sessionOptions(rec)
	if err != nil {
		link.Close()
		if rec != nil {
			rec.Close()
		}
		return nil, nil, err
	}

	ctx, cancel := context.WithCancelCause(parent)
	s := &Session{
		Robot:    root.New(link, opts...),
		Info:     info,
		link:     link,
		recorder: rec,
		cancel:   cancel,
		done:     make(chan error, 1),
	}

	go func() {
		err := s.Robot.Run(ctx)
		if err == nil {
			err = &ConnectionError{Err: transport.ErrUnavailable}
		}
		cancel(err)
		s.done <- err
	}()

	return ctx, s, nil
}

// Close stops the receive loop, disconnects and flushes the capture
func (s *Session) Close() error {
	s.cancel(context.Canceled)
	err := s.Robot.Disconnect()
	<-s.done
	if s.recorder != nil {
		if cerr := s.recorder.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Err returns the hazard or link failure that ended the session early, if any
func Err(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}

// withSession runs fn against a connected robot. A cliff event or a lost
// link takes precedence over fn's own error.
func withSession(parent context.Context, fn func(ctx context.Context, s *Session) error) error {
	ctx, s, err := OpenSession(parent)
	if err != nil {
		return err
	}

	runErr := fn(ctx, s)
	sessionErr := Err(ctx)
	closeErr := s.Close()

	switch {
	case sessionErr != nil:
		return sessionErr
	case runErr != nil:
		return runErr
	case closeErr != nil && !errors.Is(closeErr, transport.ErrUnavailable):
		log.Debug("close failed", "error", closeErr)
	}
	return nil
}
