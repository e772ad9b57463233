// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Thermoquad/rootline/pkg/rootproto"
)

// Messages
type tickMsg time.Time

type frameMsg struct {
	notification     *rootproto.Notification
	validationErrors []rootproto.ValidationError
}

type sessionEndMsg struct {
	err error
}

// monitorModel is the Bubble Tea model for the monitor TUI
type monitorModel struct {
	connInfo string
	showAll  bool
	stats    *rootproto.Statistics
	snapshot rootproto.Counters
	log      eventLog

	lastMotion *rootproto.MotionFinished
	lastCliff  *rootproto.CliffEvent

	width    int
	height   int
	quitting bool
	endErr   error
	styles   tuiStyles
}

func initialMonitorModel(connInfo string, stats *rootproto.Statistics, showAll bool) monitorModel {
	return monitorModel{
		connInfo: connInfo,
		showAll:  showAll,
		stats:    stats,
		snapshot: stats.Snapshot(),
		log:      newEventLog(100),
		width:    80,
		height:   24,
		styles:   newStyles(),
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.snapshot = m.stats.Snapshot()
		return m, tickCmd()

	case sessionEndMsg:
		m.endErr = msg.err
		m.quitting = true
		return m, tea.Quit

	case frameMsg:
		m.handleFrame(msg)
	}

	return m, nil
}

func (m *monitorModel) handleFrame(msg frameMsg) {
	n := msg.notification

	if len(msg.validationErrors) > 0 {
		for _, err := range msg.validationErrors {
			m.log.add(err.Message, true)
		}
		return
	}

	key, _ := n.Key()
	switch {
	case n.IsHazard():
		if evt, err := rootproto.DecodeCliffEvent(n); err == nil {
			m.lastCliff = &evt
		}
		desc, isErr := describeEvent(n)
		m.log.add(desc, isErr)
		return

	case key.Device == rootproto.DeviceMotors:
		if motion, err := rootproto.DecodeMotionFinished(n); err == nil {
			m.lastMotion = &motion
		}
	}

	if m.showAll {
		desc, _ := describeEvent(n)
		m.log.add(fmt.Sprintf("%s (%s)", desc, key), false)
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		if m.endErr != nil {
			return fmt.Sprintf("Session ended: %v\n", m.endErr)
		}
		return "Shutting down...\n"
	}

	st := m.styles
	mode := "Errors and events"
	if m.showAll {
		mode = "All frames"
	}

	var s strings.Builder
	s.WriteString(st.title.Render("ROOTLINE - MONITOR"))
	s.WriteString("\n")
	s.WriteString(st.header.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	s.WriteString(renderStatistics(st, m.snapshot, m.width-4))
	s.WriteString("\n\n")

	if m.lastMotion != nil || m.lastCliff != nil {
		s.WriteString(st.statsLabel.Render("Latest Robot State:"))
		s.WriteString("\n")

		var content strings.Builder
		if mf := m.lastMotion; mf != nil {
			fmt.Fprintf(&content, "%s %s   %s %s   %s %s\n",
				st.statsLabel.Render("Position:"), st.statsValue.Render(fmt.Sprintf("(%d, %d) mm", mf.X, mf.Y)),
				st.statsLabel.Render("Heading:"), st.statsValue.Render(fmt.Sprintf("%.1f°", float64(mf.Heading)/10.0)),
				st.statsLabel.Render("Uptime:"), st.statsValue.Render(formatUptime(uint64(mf.Timestamp))),
			)
		}
		if c := m.lastCliff; c != nil {
			state := st.statsValue.Render("clear")
			if c.Triggered() {
				state = st.error.Render("TRIGGERED")
			}
			fmt.Fprintf(&content, "%s %s   %s 0x%04X   %s %d\n",
				st.statsLabel.Render("Cliff:"), state,
				st.statsLabel.Render("Sensor:"), c.Sensor,
				st.statsLabel.Render("Threshold:"), c.Threshold,
			)
		}
		s.WriteString(st.box.Render(strings.TrimRight(content.String(), "\n")))
		s.WriteString("\n\n")
	}

	s.WriteString(renderEventLog(st, &m.log, m.height-16, m.width-4))

	return s.String()
}
