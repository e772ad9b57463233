// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

// CalculateCRC computes the CRC-8 checksum (poly 0x07) for the given data
func CalculateCRC(data []byte) uint8 {
	crc := uint8(crcInitial)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
