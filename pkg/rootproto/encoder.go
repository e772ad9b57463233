// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"errors"
	"fmt"
)

// ErrPacketTooLong is returned when header and payload do not fit before the checksum byte
var ErrPacketTooLong = errors.New("packet too long")

// BuildPacket creates a complete wire-formatted Root packet.
// The input (device, command, id, params) is zero padded to 19 bytes and the
// CRC over those 19 bytes is appended as byte 19.
func BuildPacket(raw []byte) ([]byte, error) {
	if len(raw) >= PacketSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPacketTooLong, len(raw), PacketSize-1)
	}

	packet := make([]byte, PacketSize)
	copy(packet, raw)
	packet[ChecksumOffset] = CalculateCRC(packet[:ChecksumOffset])

	return packet, nil
}

// MustBuildPacket is like BuildPacket but panics on oversized input.
// Use it only for packets whose length is fixed by construction.
func MustBuildPacket(raw []byte) []byte {
	packet, err := BuildPacket(raw)
	if err != nil {
		panic(fmt.Sprintf("rootproto: encode error: %v", err))
	}
	return packet
}

// VerifyChecksum reports whether a full frame carries a valid checksum
func VerifyChecksum(frame []byte) bool {
	if len(frame) != PacketSize {
		return false
	}
	return CalculateCRC(frame[:ChecksumOffset]) == frame[ChecksumOffset]
}
