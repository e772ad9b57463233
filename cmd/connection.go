// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/rootline/internal/log"
	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

// Connection is a BLE bridge link: a serial UART dongle relaying the robot's
// RX/TX characteristics, or a websocket gateway doing the same over the network.
type Connection interface {
	io.ReadWriteCloser
}

const (
	gatewayHandshakeTimeout = 10 * time.Second
	gatewayDialTimeout      = 15 * time.Second
)

// ErrGatewayClosed is returned by reads after the gateway connection ended
var ErrGatewayClosed = errors.New("gateway connection closed")

// openSerialBridge opens a UART bridge at 8N1. Bytes left in the driver from
// an earlier session are discarded so the first frame starts aligned.
func openSerialBridge(portName string, baud int) (Connection, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial bridge %s: %w", portName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		log.Debug("serial input flush failed", "port", portName, "error", err)
	}
	return port, nil
}

// gatewayConn is a websocket gateway link. The gateway forwards each TX
// notification as one binary message, so it implements transport.FrameReader
// and the stream never has to find frame boundaries itself.
type gatewayConn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

func (g *gatewayConn) ReadFrame() ([]byte, error) {
	if g.closed {
		return nil, ErrGatewayClosed
	}
	for {
		kind, data, err := g.ws.ReadMessage()
		if err != nil {
			g.closed = true
			return nil, err
		}
		// Text messages are gateway status lines
		if kind == websocket.TextMessage {
			log.Debug("gateway status", "message", string(data))
			continue
		}
		if kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (g *gatewayConn) Read(p []byte) (int, error) {
	frame, err := g.ReadFrame()
	if err != nil {
		return 0, err
	}
	return copy(p, frame), nil
}

// Write sends one command frame as one binary message
func (g *gatewayConn) Write(frame []byte) (int, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if err := g.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return 0, err
	}
	return len(frame), nil
}

func (g *gatewayConn) Close() error {
	g.writeMu.Lock()
	_ = g.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "rootline done"),
		time.Now().Add(time.Second))
	g.writeMu.Unlock()
	return g.ws.Close()
}

// dialGateway connects to a websocket gateway, authenticating with basic auth
// when a username is configured or embedded in the URL.
func dialGateway(ctx context.Context, rawURL string) (Connection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported gateway scheme %q (use ws:// or wss://)", u.Scheme)
	}

	user, password, err := gatewayCredentials(u)
	if err != nil {
		return nil, err
	}
	u.User = nil

	// SetBasicAuth needs a request to write into
	req := &http.Request{Header: http.Header{}}
	if user != "" {
		req.SetBasicAuth(user, password)
	}

	dialer := websocket.Dialer{HandshakeTimeout: gatewayHandshakeTimeout}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.Connection.NoSSLVerify}
	}

	ctx, cancel := context.WithTimeout(ctx, gatewayDialTimeout)
	defer cancel()

	ws, resp, err := dialer.DialContext(ctx, u.String(), req.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("gateway %s refused (HTTP %d): %w", u.Host, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("gateway %s: %w", u.Host, err)
	}
	return &gatewayConn{ws: ws}, nil
}

// gatewayCredentials picks the user from the URL or config, and the password
// from the URL, config, ROOTLINE_PASSWORD or a terminal prompt, in that order.
func gatewayCredentials(u *url.URL) (string, string, error) {
	user := cfg.Connection.Username
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	if user == "" {
		return "", "", nil
	}

	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			return user, pw, nil
		}
	}
	pw, err := GetPassword()
	return user, pw, err
}

// GetPassword returns the gateway password from config or the environment,
// prompting on the terminal as a last resort.
func GetPassword() (string, error) {
	if cfg.Connection.Password != "" {
		return cfg.Connection.Password, nil
	}
	if pw := os.Getenv("ROOTLINE_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Gateway password: ")
	defer fmt.Fprintln(os.Stderr)

	pw, err := term.ReadPassword(int(syscall.Stdin))
	if err == nil {
		return string(pw), nil
	}

	// stdin is not a terminal
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenConnection opens the gateway when a URL is configured, else the serial bridge
func OpenConnection(ctx context.Context) (Connection, string, error) {
	c := cfg.Connection
	switch {
	case c.URL != "":
		conn, err := dialGateway(ctx, c.URL)
		if err != nil {
			return nil, "", err
		}
		return conn, "gateway " + redactURL(c.URL), nil
	case c.Port != "":
		conn, err := openSerialBridge(c.Port, c.Baud)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("serial %s @ %d baud", c.Port, c.Baud), nil
	}
	return nil, "", errors.New("no bridge configured: set --port or --url")
}

// redactURL hides any password embedded in a gateway URL
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// newLink wraps a bridge in a frame stream. Byte stream bridges resynchronise
// on the packet checksum after a lost or stray byte.
func newLink(conn Connection, info string) *transport.Stream {
	logger := log.With("link", info)
	return transport.NewStream(conn,
		transport.WithFrameSize(rootproto.PacketSize),
		transport.WithFrameCheck(rootproto.VerifyChecksum),
		transport.WithLogger(logger),
		transport.WithErrorHandler(func(err error) {
			logger.Info("bridge disconnected", "reason", err)
		}),
	)
}

// OpenTransport opens the configured bridge and starts its frame reader
func OpenTransport(ctx context.Context) (*transport.Stream, string, error) {
	conn, info, err := OpenConnection(ctx)
	if err != nil {
		return nil, "", &ConnectionError{Err: err}
	}
	return newLink(conn, info), info, nil
}
