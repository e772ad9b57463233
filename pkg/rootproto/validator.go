// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import "fmt"

// AnomalyType represents different types of notification anomalies
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyCRCError
	AnomalyUnknownDevice
)

// ValidationError represents a notification validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateNotification checks frame length, checksum, and device id.
// Returns a slice of validation errors (empty if the frame is valid)
func ValidateNotification(n *Notification) []ValidationError {
	errors := []ValidationError{}

	if n.Len() != PacketSize {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("notification length %d (expected %d bytes)", n.Len(), PacketSize),
			Details: map[string]interface{}{"length": n.Len(), "expected": PacketSize},
		}}
	}

	received := n.data[ChecksumOffset]
	calculated := CalculateCRC(n.data[:ChecksumOffset])
	if received != calculated {
		errors = append(errors, ValidationError{
			Type:    AnomalyCRCError,
			Message: fmt.Sprintf("CRC mismatch: expected 0x%02X, got 0x%02X", calculated, received),
			Details: map[string]interface{}{"received": received, "calculated": calculated},
		})
	}

	if DeviceName(n.data[0]) == "UNKNOWN" {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownDevice,
			Message: fmt.Sprintf("unknown device 0x%02X", n.data[0]),
			Details: map[string]interface{}{"device": n.data[0]},
		})
	}

	return errors
}

// HasAnomaly reports whether any validation error has the given type
func HasAnomaly(errs []ValidationError, t AnomalyType) bool {
	for _, err := range errs {
		if err.Type == t {
			return true
		}
	}
	return false
}
