// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/rootline/pkg/orchestrator"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

//////////////////////////////////////////////////////////////
// Key bindings
//////////////////////////////////////////////////////////////

type controlKeyMap struct {
	Forward key.Binding
	Back    key.Binding
	Left    key.Binding
	Right   key.Binding
	Stop    key.Binding
	Marker  key.Binding
	Command key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k controlKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Forward, k.Left, k.Stop, k.Marker, k.Command, k.Help, k.Quit}
}

func (k controlKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Forward, k.Back, k.Left, k.Right},
		{k.Stop, k.Marker},
		{k.Command, k.Help, k.Quit},
	}
}

func newControlKeyMap() controlKeyMap {
	return controlKeyMap{
		Forward: key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "forward")),
		Back:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "back")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "turn left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "turn right")),
		Stop:    key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "stop")),
		Marker:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "marker")),
		Command: key.NewBinding(key.WithKeys("/", ":"), key.WithHelp("/", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	c        *controller
	connInfo string

	stats    *rootproto.Statistics
	snapshot rootproto.Counters
	log      eventLog

	input textinput.Model
	keys  controlKeyMap
	help  help.Model

	// Motion state
	busy       string // description of the running motion, empty when idle
	marker     rootproto.MarkerPosition
	lastMotion *rootproto.MotionFinished
	pose       *orchestrator.Pose

	width    int
	height   int
	quitting bool
	endErr   error
	styles   tuiStyles
}

func initialControlModel(c *controller, connInfo string, stats *rootproto.Statistics) controlModel {
	ti := textinput.New()
	ti.Placeholder = "drive 100"
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Width = 40

	return controlModel{
		c:        c,
		connInfo: connInfo,
		stats:    stats,
		snapshot: stats.Snapshot(),
		log:      newEventLog(100),
		input:    ti,
		keys:     newControlKeyMap(),
		help:     help.New(),
		width:    80,
		height:   24,
		styles:   newStyles(),
	}
}

func (m controlModel) Init() tea.Cmd {
	return tickCmd()
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.snapshot = m.stats.Snapshot()
		return m, tickCmd()

	case actionDoneMsg:
		m.handleActionDone(msg)

	case poseMsg:
		pose := orchestrator.Pose(msg)
		m.pose = &pose

	case frameMsg:
		m.lastMotionFrom(msg.notification)
		if desc, isErr := describeUnsolicited(msg.notification); desc != "" {
			m.log.add(desc, isErr)
		}

	case sessionEndMsg:
		m.endErr = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.input.Focused() {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return m, nil
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			m.input.Blur()
			if line == "" {
				return m, nil
			}
			action, err := parseControlCommand(line)
			if err != nil {
				m.log.add(err.Error(), true)
				return m, nil
			}
			return m.dispatch(action)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Command):
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Stop):
		return m.dispatch(stopAction())
	case key.Matches(msg, m.keys.Forward):
		return m.dispatch(driveAction(int32(jogDistance)))
	case key.Matches(msg, m.keys.Back):
		return m.dispatch(driveAction(-int32(jogDistance)))
	case key.Matches(msg, m.keys.Left):
		return m.dispatch(rotateAction(-jogDecidegrees()))
	case key.Matches(msg, m.keys.Right):
		return m.dispatch(rotateAction(jogDecidegrees()))
	case key.Matches(msg, m.keys.Marker):
		next := rootproto.MarkerDown
		if m.marker != rootproto.MarkerUp {
			next = rootproto.MarkerUp
		}
		return m.dispatch(markerAction(next))
	}

	return m, nil
}

// dispatch starts an action unless another motion is still running
func (m controlModel) dispatch(a controlAction) (tea.Model, tea.Cmd) {
	if a.motion {
		if m.busy != "" {
			m.log.add(fmt.Sprintf("busy with %s, ignoring %s", m.busy, a.desc), true)
			return m, nil
		}
		m.busy = a.desc
	}
	m.log.add("-> "+a.desc, false)
	return m, m.c.start(a)
}

func (m *controlModel) handleActionDone(msg actionDoneMsg) {
	if msg.motion {
		m.busy = ""
	}
	if msg.err != nil {
		m.log.add(fmt.Sprintf("%s failed: %v", msg.desc, msg.err), true)
		return
	}

	switch {
	case strings.HasPrefix(msg.desc, "marker "):
		if pos, ok := rootproto.ParseMarkerPosition(strings.TrimPrefix(msg.desc, "marker ")); ok {
			m.marker = pos
		}
	case msg.desc == "stop" || msg.desc == "reset position":
		m.pose = nil
	}

	if msg.result != "" {
		m.log.add(fmt.Sprintf("%s: %s", msg.desc, msg.result), false)
	} else {
		m.log.add(msg.desc+" done", false)
	}
}

// describeUnsolicited logs sensor events; command responses are reported by their action
func describeUnsolicited(n *rootproto.Notification) (string, bool) {
	k, ok := n.Key()
	if ok && !n.IsHazard() {
		switch k.Device {
		case rootproto.DeviceGeneral, rootproto.DeviceMotors, rootproto.DeviceMarker,
			rootproto.DeviceLEDLights, rootproto.DeviceSound:
			return "", false
		}
	}
	return describeEvent(n)
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		if m.endErr != nil {
			return fmt.Sprintf("Session ended: %v\n", m.endErr)
		}
		return "Shutting down...\n"
	}

	st := m.styles
	var s strings.Builder

	s.WriteString(st.title.Render("ROOTLINE CONTROL"))
	s.WriteString(" ")
	s.WriteString(st.header.Render("| " + m.connInfo))
	s.WriteString("\n\n")

	leftWidth := 36
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}

	statePanel := st.box.Width(leftWidth).Render(m.renderState())

	inputStyle := st.box
	if m.input.Focused() {
		inputStyle = st.focusedBox
	}
	var cmdPanel strings.Builder
	cmdPanel.WriteString(st.statsLabel.Render("COMMAND"))
	cmdPanel.WriteString("\n")
	cmdPanel.WriteString(m.input.View())
	cmdPanel.WriteString("\n")
	cmdPanel.WriteString(st.header.Render("drive rotate arc marker lights say draw versions stop reset"))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statePanel, " ", inputStyle.Width(rightWidth).Render(cmdPanel.String())))
	s.WriteString("\n\n")

	s.WriteString(renderStatistics(st, m.snapshot, m.width-4))
	s.WriteString("\n\n")

	s.WriteString(renderEventLog(st, &m.log, m.height-22, m.width-4))
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m controlModel) renderState() string {
	st := m.styles
	var s strings.Builder

	s.WriteString(st.statsLabel.Render("ROBOT"))
	s.WriteString("\n")

	status := st.statsValue.Render("idle")
	if m.busy != "" {
		status = st.warning.Render(m.busy)
	}
	fmt.Fprintf(&s, "%s %s\n", st.statsLabel.Render("Status:"), status)
	fmt.Fprintf(&s, "%s %s\n", st.statsLabel.Render("Marker:"), st.statsValue.Render(m.marker.String()))

	if mf := m.lastMotion; mf != nil {
		fmt.Fprintf(&s, "%s %s\n", st.statsLabel.Render("Odometry:"),
			st.statsValue.Render(fmt.Sprintf("(%d, %d) %.1f°", mf.X, mf.Y, float64(mf.Heading)/10.0)))
	}
	if m.pose != nil {
		fmt.Fprintf(&s, "%s %s\n", st.statsLabel.Render("Path pose:"), st.statsValue.Render(m.pose.String()))
	}
	fmt.Fprintf(&s, "%s %s", st.statsLabel.Render("Jog:"),
		st.header.Render(fmt.Sprintf("%d mm / %.1f°", jogDistance, jogAngle)))

	return s.String()
}

// lastMotionFrom records odometry carried by motion responses
func (m *controlModel) lastMotionFrom(n *rootproto.Notification) {
	k, ok := n.Key()
	if !ok || k.Device != rootproto.DeviceMotors {
		return
	}
	if mf, err := rootproto.DecodeMotionFinished(n); err == nil {
		m.lastMotion = &mf
	}
}
