// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Statistics tracks link statistics and error rates. It is safe for
// concurrent use: the receive path updates it while commands and the CLI read it.
type Statistics struct {
	mu sync.Mutex
	Counters
}

// Counters is a point-in-time copy of the statistics, safe to pass by value
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	CommandsSent       uint64
	TotalNotifications uint64
	ValidNotifications uint64
	CRCErrors          uint64
	LengthMismatches   uint64
	UnknownDevices     uint64
	MalformedRecords   uint64
	Timeouts           uint64
	Hazards            uint64

	// Rates (calculated)
	NotificationRate float64 // notifications/sec
	ErrorRate        float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{Counters: Counters{
		StartTime:      now,
		LastUpdateTime: now,
	}}
}

// Update updates statistics based on a notification and its validation errors
func (s *Statistics) Update(n *Notification, validationErrors []ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalNotifications++
	s.LastUpdateTime = time.Now()

	if n != nil && n.IsHazard() {
		s.Hazards++
	}

	if len(validationErrors) == 0 {
		s.ValidNotifications++
		return
	}

	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyCRCError:
			s.CRCErrors++
		case AnomalyLengthMismatch:
			s.LengthMismatches++
		case AnomalyUnknownDevice:
			s.UnknownDevices++
		}
	}
}

// RecordSent counts an outgoing command
func (s *Statistics) RecordSent() {
	s.mu.Lock()
	s.CommandsSent++
	s.mu.Unlock()
}

// RecordError counts a command-level failure (timeout or malformed record)
func (s *Statistics) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if errors.Is(err, ErrMalformedResponse) {
		s.MalformedRecords++
		return
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		s.Timeouts++
	}
}

// CalculateRates calculates notification and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.NotificationRate = float64(s.TotalNotifications) / elapsed
		s.ErrorRate = float64(s.errorCount()) / elapsed
	}
}

func (s *Statistics) errorCount() uint64 {
	return s.CRCErrors + s.LengthMismatches + s.MalformedRecords + s.Timeouts
}

// Snapshot returns a copy of the counters with rates filled in
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
	return s.Counters
}

// Errors returns the total error count
func (s *Statistics) Errors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount()
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()

	var validPercent, crcErrorPercent float64
	if snap.TotalNotifications > 0 {
		validPercent = float64(snap.ValidNotifications) * 100.0 / float64(snap.TotalNotifications)
		crcErrorPercent = float64(snap.CRCErrors) * 100.0 / float64(snap.TotalNotifications)
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Commands Sent:   %8d\n", snap.CommandsSent)
	result += fmt.Sprintf("Notifications:   %8d\n", snap.TotalNotifications)
	result += fmt.Sprintf("Valid:           %8d (%.1f%%)\n", snap.ValidNotifications, validPercent)

	if snap.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d (%.1f%%)\n", snap.CRCErrors, crcErrorPercent)
	}
	if snap.LengthMismatches > 0 {
		result += fmt.Sprintf("Length Mismatch: %8d\n", snap.LengthMismatches)
	}
	if snap.UnknownDevices > 0 {
		result += fmt.Sprintf("Unknown Devices: %8d\n", snap.UnknownDevices)
	}
	if snap.MalformedRecords > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", snap.MalformedRecords)
	}
	if snap.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d\n", snap.Timeouts)
	}
	if snap.Hazards > 0 {
		result += fmt.Sprintf("Cliff Events:    %8d\n", snap.Hazards)
	}

	result += fmt.Sprintf("Notify Rate:     %8.1f msgs/sec\n", snap.NotificationRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", snap.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Counters = Counters{StartTime: now, LastUpdateTime: now}
}
