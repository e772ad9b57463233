// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/rootline/pkg/rootproto"
)

// Event log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// eventLog keeps the most recent entries
type eventLog struct {
	entries []errorLogEntry
	max     int
}

func newEventLog(max int) eventLog {
	return eventLog{max: max}
}

func (l *eventLog) add(message string, isError bool) {
	l.entries = append(l.entries, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// tail returns at most n of the newest entries
func (l *eventLog) tail(n int) []errorLogEntry {
	if n < 0 || n >= len(l.entries) {
		return l.entries
	}
	return l.entries[len(l.entries)-n:]
}

// tuiStyles is the shared palette for the monitor and control views
type tuiStyles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	statsLabel lipgloss.Style
	statsValue lipgloss.Style
	error      lipgloss.Style
	warning    lipgloss.Style
	box        lipgloss.Style
	focusedBox lipgloss.Style
}

func newStyles() tuiStyles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return tuiStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statsLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		statsValue: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		error:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warning:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		box:        box,
		focusedBox: box.BorderForeground(lipgloss.Color("12")),
	}
}

// formatUptime formats the robot's millisecond clock as a human-friendly duration
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	units := []struct {
		name string
		n    uint64
	}{
		{"day", seconds / 86400},
		{"hour", seconds / 3600 % 24},
		{"minute", seconds / 60 % 60},
		{"second", seconds % 60},
	}

	parts := []string{}
	for _, u := range units {
		if u.n == 0 {
			continue
		}
		if u.n == 1 {
			parts = append(parts, "1 "+u.name)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", u.n, u.name))
		}
	}
	if len(parts) == 0 {
		return "0 seconds"
	}

	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

// renderStatistics renders link counters in a box
func renderStatistics(st tuiStyles, snap rootproto.Counters, width int) string {
	var validPercent, errorPercent float64
	errors := snap.CRCErrors + snap.LengthMismatches + snap.MalformedRecords + snap.Timeouts
	if snap.TotalNotifications > 0 {
		validPercent = float64(snap.ValidNotifications) * 100.0 / float64(snap.TotalNotifications)
		errorPercent = float64(errors) * 100.0 / float64(snap.TotalNotifications)
	}

	var content strings.Builder
	fmt.Fprintf(&content, "%s %s   %s %s   %s %s   %s %s\n",
		st.statsLabel.Render("Sent:"), st.statsValue.Render(fmt.Sprintf("%d", snap.CommandsSent)),
		st.statsLabel.Render("Received:"), st.statsValue.Render(fmt.Sprintf("%d", snap.TotalNotifications)),
		st.statsLabel.Render("Valid:"), st.statsValue.Render(fmt.Sprintf("%d (%.1f%%)", snap.ValidNotifications, validPercent)),
		st.statsLabel.Render("Errors:"), st.error.Render(fmt.Sprintf("%d (%.1f%%)", errors, errorPercent)),
	)

	if snap.CRCErrors > 0 || snap.LengthMismatches > 0 || snap.UnknownDevices > 0 {
		fmt.Fprintf(&content, "%s %s   %s %s   %s %s\n",
			st.statsLabel.Render("CRC Errors:"), st.error.Render(fmt.Sprintf("%d", snap.CRCErrors)),
			st.statsLabel.Render("Length:"), st.error.Render(fmt.Sprintf("%d", snap.LengthMismatches)),
			st.statsLabel.Render("Unknown Device:"), st.warning.Render(fmt.Sprintf("%d", snap.UnknownDevices)),
		)
	}
	if snap.Timeouts > 0 || snap.MalformedRecords > 0 {
		fmt.Fprintf(&content, "%s %s   %s %s\n",
			st.statsLabel.Render("Timeouts:"), st.error.Render(fmt.Sprintf("%d", snap.Timeouts)),
			st.statsLabel.Render("Malformed:"), st.error.Render(fmt.Sprintf("%d", snap.MalformedRecords)),
		)
	}
	if snap.Hazards > 0 {
		fmt.Fprintf(&content, "%s %s\n",
			st.statsLabel.Render("Cliff Events:"), st.error.Render(fmt.Sprintf("%d", snap.Hazards)))
	}

	errRate := st.statsValue.Render(fmt.Sprintf("%.1f err/s", snap.ErrorRate))
	if snap.ErrorRate > 0 {
		errRate = st.error.Render(fmt.Sprintf("%.1f err/s", snap.ErrorRate))
	}
	fmt.Fprintf(&content, "%s %s   %s %s",
		st.statsLabel.Render("Notify Rate:"), st.statsValue.Render(fmt.Sprintf("%.1f msg/s", snap.NotificationRate)),
		st.statsLabel.Render("Error Rate:"), errRate,
	)

	return st.box.Width(width).Render(content.String())
}

// renderEventLog renders the newest entries that fit in height lines
func renderEventLog(st tuiStyles, log *eventLog, height, width int) string {
	var s strings.Builder
	s.WriteString(st.statsLabel.Render("EVENTS"))
	s.WriteString("\n")

	if height < 5 {
		height = 5
	}

	entries := log.tail(height)
	if len(entries) == 0 {
		s.WriteString(st.header.Render("  (no events yet)"))
	}
	for _, entry := range entries {
		icon, style := "i", st.warning
		if entry.isError {
			icon, style = "x", st.error
		}
		fmt.Fprintf(&s, "%s %s %s\n",
			st.header.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message)
	}

	return st.box.Width(width).Render(s.String())
}

// describeEvent summarizes an unsolicited sensor notification for the event log
func describeEvent(n *rootproto.Notification) (string, bool) {
	key, ok := n.Key()
	if !ok {
		return fmt.Sprintf("runt notification (%d bytes)", n.Len()), true
	}

	if n.IsHazard() {
		evt, err := rootproto.DecodeCliffEvent(n)
		if err != nil {
			return err.Error(), true
		}
		if evt.Triggered() {
			return fmt.Sprintf("CLIFF sensor=0x%04X threshold=%d", evt.Sensor, evt.Threshold), true
		}
		return "cliff sensor clear", false
	}

	return fmt.Sprintf("%s %s", rootproto.DeviceName(key.Device), rootproto.CommandName(key.Device, key.Command)), false
}
