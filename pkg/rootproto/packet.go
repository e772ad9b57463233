// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"fmt"
	"time"
)

// Key identifies which request a response belongs to. It is not unique over
// time: the robot reuses the triple for every response of the same request.
type Key struct {
	Device  uint8
	Command uint8
	ID      uint8
}

// String formats the key as dev/cmd/id in hex
func (k Key) String() string {
	return fmt.Sprintf("%02X/%02X/%02X", k.Device, k.Command, k.ID)
}

// Packet is an outgoing command before checksumming
type Packet struct {
	Device  uint8
	Command uint8
	ID      uint8
	Payload []byte
}

// NewPacket creates a packet with the given header and payload
func NewPacket(device, command, id uint8, payload []byte) *Packet {
	return &Packet{
		Device:  device,
		Command: command,
		ID:      id,
		Payload: payload,
	}
}

// Key returns the correlation key a response to this packet will carry
func (p *Packet) Key() Key {
	return Key{Device: p.Device, Command: p.Command, ID: p.ID}
}

// Raw returns the unpadded header and payload
func (p *Packet) Raw() []byte {
	raw := make([]byte, 0, HeaderSize+len(p.Payload))
	raw = append(raw, p.Device, p.Command, p.ID)
	return append(raw, p.Payload...)
}

// Encode returns the 20-byte wire form of the packet
func (p *Packet) Encode() ([]byte, error) {
	return BuildPacket(p.Raw())
}

// Notification is a raw frame received from the robot
type Notification struct {
	data      []byte
	timestamp time.Time
}

// NewNotification wraps a received frame. The slice is copied.
func NewNotification(data []byte) *Notification {
	return NewNotificationAt(data, time.Now())
}

// NewNotificationAt wraps a frame received at t, e.g. one read back from a capture
func NewNotificationAt(data []byte, t time.Time) *Notification {
	return &Notification{
		data:      append([]byte(nil), data...),
		timestamp: t,
	}
}

// Data returns the raw frame bytes
func (n *Notification) Data() []byte {
	return n.data
}

// Timestamp returns the receive timestamp
func (n *Notification) Timestamp() time.Time {
	return n.timestamp
}

// Len returns the frame length
func (n *Notification) Len() int {
	return len(n.data)
}

// Key returns the correlation key from the frame header. Frames shorter than
// the header yield the zero key and ok=false.
func (n *Notification) Key() (Key, bool) {
	if len(n.data) < HeaderSize {
		return Key{}, false
	}
	return Key{Device: n.data[0], Command: n.data[1], ID: n.data[2]}, true
}

// Device returns the device id, or 0xFF for frames too short to carry one
func (n *Notification) Device() uint8 {
	if len(n.data) == 0 {
		return 0xFF
	}
	return n.data[0]
}

// CRC returns the checksum byte of a full frame
func (n *Notification) CRC() (uint8, bool) {
	if len(n.data) != PacketSize {
		return 0, false
	}
	return n.data[ChecksumOffset], true
}

// IsHazard returns true for cliff sensor events
func (n *Notification) IsHazard() bool {
	return len(n.data) > 0 && n.data[0] == DeviceCliffSensor
}
