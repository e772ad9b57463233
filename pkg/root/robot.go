// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package root drives an iRobot Root over a transport.
//
// A Robot exposes one blocking method per capability. Responses are matched
// to their commands by a correlation store fed from the transport's
// notification stream. Cliff events are watched on a separate subscription:
// when one fires the robot is stopped and Run returns a *HazardError.
package root

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Thermoquad/rootline/internal/capture"
	"github.com/Thermoquad/rootline/pkg/correlate"
	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

// DefaultTimeout is the response timeout when none is configured
const DefaultTimeout = correlate.DefaultTimeout

// stopTimeout bounds the stop command sent on a cliff event
const stopTimeout = 2 * time.Second

// Robot is a connected Root robot
type Robot struct {
	t     transport.Transport
	mux   *transport.Mux
	store *correlate.Store[rootproto.Key, *rootproto.Notification]

	timeout   time.Duration
	logger    *slog.Logger
	stats     *rootproto.Statistics
	uniqueIDs bool
	verifyCRC bool
	recorder  Recorder
	onHazard  HazardHandler

	nextID  atomic.Uint32
	running atomic.Bool
}

// New wraps a transport. Call Run to start receiving.
func New(t transport.Transport, opts ...Option) *Robot {
	r := &Robot{
		t:         t,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
		stats:     rootproto.NewStatistics(),
		verifyCRC: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store = correlate.New[rootproto.Key, *rootproto.Notification](correlate.WithDefaultTimeout(r.timeout))
	r.mux = transport.NewMux(t.Notifications(), r.logger)
	return r
}

// Statistics returns the link statistics tracker
func (r *Robot) Statistics() *rootproto.Statistics {
	return r.stats
}

// Subscribe adds an extra consumer of raw notifications, e.g. a monitor view.
// Subscriptions must be made before Run or while it is running.
func (r *Robot) Subscribe(name string, opts ...transport.SubscribeOption) *transport.Subscription {
	return r.mux.Subscribe(name, opts...)
}

// Unsubscribe stops delivery to a subscription made with Subscribe
func (r *Robot) Unsubscribe(name string) {
	r.mux.Unsubscribe(name)
}

// Run receives notifications until ctx ends or the link closes. It returns
// nil on a clean shutdown and a *HazardError when a cliff event stopped the
// robot.
func (r *Robot) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("root: Run called twice")
	}

	hazards := r.mux.Subscribe("hazard",
		transport.WithFilter(transport.DeviceFilter(rootproto.DeviceCliffSensor)))
	responses := r.mux.Subscribe("responses",
		transport.WithFilter(transport.Not(transport.DeviceFilter(rootproto.DeviceCliffSensor))),
		transport.WithSubscriberBuffer(64))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.mux.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return r.correlate(responses.C()) })
	g.Go(func() error { return r.watchHazards(gctx, hazards.C()) })

	return g.Wait()
}

// correlate stores every response under its key for the waiting caller
func (r *Robot) correlate(frames <-chan []byte) error {
	for frame := range frames {
		n := r.receive(frame)

		key, ok := n.Key()
		if !ok {
			r.logger.Warn("dropping runt notification", "len", n.Len())
			continue
		}
		// short frames go through so the caller sees a decode error
		if r.verifyCRC && n.Len() == rootproto.PacketSize && !rootproto.VerifyChecksum(n.Data()) {
			r.logger.Warn("dropping notification with bad checksum", "key", key.String())
			continue
		}
		r.logger.Debug("response", "key", key.String())
		r.store.Put(key, n)
	}
	return nil
}

func (r *Robot) receive(frame []byte) *rootproto.Notification {
	n := rootproto.NewNotification(frame)
	r.stats.Update(n, rootproto.ValidateNotification(n))
	if r.recorder != nil {
		if err := r.recorder.Record(capture.RX, frame); err != nil {
			r.logger.Warn("capture failed", "error", err)
		}
	}
	return n
}

// nextRequestID returns def, or the next counter value with unique ids enabled
func (r *Robot) nextRequestID(def uint8) uint8 {
	if !r.uniqueIDs {
		return def
	}
	return uint8(r.nextID.Add(1))
}

// send writes a packet without waiting for a response
func (r *Robot) send(ctx context.Context, p *rootproto.Packet, mode transport.WriteMode) error {
	if !r.t.Connected() {
		return fmt.Errorf("send %s: %w", p.Key(), transport.ErrUnavailable)
	}
	frame, err := p.Encode()
	if err != nil {
		return err
	}
	// Recorded before the write so the capture keeps tx ahead of its response
	if r.recorder != nil {
		if err := r.recorder.Record(capture.TX, frame); err != nil {
			r.logger.Warn("capture failed", "error", err)
		}
	}
	if err := r.t.Write(ctx, frame, mode); err != nil {
		return fmt.Errorf("send %s: %w", p.Key(), err)
	}
	r.stats.RecordSent()
	r.logger.Debug("sent", "key", p.Key().String(), "mode", mode.String())
	return nil
}

// request sends a packet and waits for the notification carrying its key
func (r *Robot) request(ctx context.Context, p *rootproto.Packet, mode transport.WriteMode) (*rootproto.Notification, error) {
	key := p.Key()
	r.store.Discard(key)

	if err := r.send(ctx, p, mode); err != nil {
		return nil, err
	}

	n, err := r.store.Wait(ctx, key, r.timeout)
	if err != nil {
		if errors.Is(err, correlate.ErrTimeout) {
			err = &TimeoutError{Key: key, After: r.timeout}
			r.stats.RecordError(err)
		}
		return nil, err
	}
	return n, nil
}
