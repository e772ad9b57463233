// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/internal/log"
	"github.com/Thermoquad/rootline/pkg/orchestrator"
	"github.com/Thermoquad/rootline/pkg/root"
	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

var (
	jogDistance int
	jogAngle    float64
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving the robot",
	Long: `Drive the robot from an interactive terminal UI.

Arrow keys jog the robot (drive forward/back, rotate left/right), space stops
all motion and m toggles the marker. Press / to type a command:

  drive <mm>                 rotate <degrees>
  arc <degrees> <radius-mm>  marker <up|down|eraser>
  lights <mode> [r g b]      say <phrase>
  draw <design>              versions
  stop                       reset

A cliff event stops the robot and ends the session with exit code 3.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().IntVar(&jogDistance, "jog-distance", 50, "Distance per arrow key press (mm)")
	controlCmd.Flags().Float64Var(&jogAngle, "jog-angle", 15, "Angle per arrow key press (degrees)")
}

// controller owns the session for the control TUI
type controller struct {
	ctx   context.Context
	robot *root.Robot
	p     *tea.Program
}

// controlAction is one parsed command
type controlAction struct {
	desc   string
	motion bool // occupies the drive train
	run    func(ctx context.Context, c *controller) (string, error)
}

// actionDoneMsg reports the result of a controlAction
type actionDoneMsg struct {
	desc   string
	motion bool
	result string
	err    error
}

// poseMsg carries orchestrator progress while drawing
type poseMsg orchestrator.Pose

func (c *controller) start(a controlAction) tea.Cmd {
	return func() tea.Msg {
		out, err := a.run(c.ctx, c)
		return actionDoneMsg{desc: a.desc, motion: a.motion, result: out, err: err}
	}
}

func motionResult(m rootproto.MotionFinished, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("at (%d, %d) mm, heading %.1f°", m.X, m.Y, float64(m.Heading)/10.0), nil
}

func driveAction(mm int32) controlAction {
	return controlAction{
		desc:   fmt.Sprintf("drive %d mm", mm),
		motion: true,
		run: func(ctx context.Context, c *controller) (string, error) {
			return motionResult(c.robot.DriveDistance(ctx, mm))
		},
	}
}

func rotateAction(decidegrees int32) controlAction {
	return controlAction{
		desc:   fmt.Sprintf("rotate %.1f°", float64(decidegrees)/10.0),
		motion: true,
		run: func(ctx context.Context, c *controller) (string, error) {
			return motionResult(c.robot.RotateAngle(ctx, decidegrees))
		},
	}
}

func markerAction(pos rootproto.MarkerPosition) controlAction {
	return controlAction{
		desc:   "marker " + pos.String(),
		motion: true,
		run: func(ctx context.Context, c *controller) (string, error) {
			done, err := c.robot.SetMarker(ctx, pos)
			if err != nil {
				return "", err
			}
			return "marker is " + done.Position.String(), nil
		},
	}
}

func stopAction() controlAction {
	return controlAction{
		desc: "stop",
		run: func(ctx context.Context, c *controller) (string, error) {
			return "", c.robot.StopAndReset(ctx)
		},
	}
}

// parseControlCommand turns a typed command line into an action
func parseControlCommand(line string) (controlAction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return controlAction{}, errors.New("empty command")
	}
	name, args := fields[0], fields[1:]

	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "stop":
		return stopAction(), need(0)

	case "reset":
		return controlAction{
			desc: "reset position",
			run: func(ctx context.Context, c *controller) (string, error) {
				return "", c.robot.ResetPosition(ctx)
			},
		}, need(0)

	case "versions":
		return controlAction{
			desc: "versions",
			run: func(ctx context.Context, c *controller) (string, error) {
				v, err := c.robot.GetVersions(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("board 0x%02X firmware %d.%d protocol %d.%d",
					v.BoardID, v.FirmwareMajor, v.FirmwareMinor, v.ProtocolMajor, v.ProtocolMinor), nil
			},
		}, need(0)

	case "drive":
		if err := need(1); err != nil {
			return controlAction{}, err
		}
		mm, err := parseInt32("distance", args[0])
		if err != nil {
			return controlAction{}, err
		}
		return driveAction(mm), nil

	case "rotate":
		if err := need(1); err != nil {
			return controlAction{}, err
		}
		deci, err := parseDecidegrees(args[0])
		if err != nil {
			return controlAction{}, err
		}
		return rotateAction(deci), nil

	case "arc":
		if err := need(2); err != nil {
			return controlAction{}, err
		}
		deci, err := parseDecidegrees(args[0])
		if err != nil {
			return controlAction{}, err
		}
		radius, err := parseInt32("radius", args[1])
		if err != nil {
			return controlAction{}, err
		}
		return controlAction{
			desc:   fmt.Sprintf("arc %.1f° r=%d mm", float64(deci)/10.0, radius),
			motion: true,
			run: func(ctx context.Context, c *controller) (string, error) {
				return motionResult(c.robot.DriveArc(ctx, deci, radius))
			},
		}, nil

	case "marker":
		if err := need(1); err != nil {
			return controlAction{}, err
		}
		pos, ok := rootproto.ParseMarkerPosition(args[0])
		if !ok {
			return controlAction{}, fmt.Errorf("invalid marker position %q", args[0])
		}
		return markerAction(pos), nil

	case "lights":
		if len(args) == 0 {
			return controlAction{}, errors.New("lights needs a mode")
		}
		state, ok := rootproto.ParseLightsState(args[0])
		if !ok {
			return controlAction{}, fmt.Errorf("invalid light mode %q", args[0])
		}
		rgb, err := parseColor(args[1:])
		if err != nil {
			return controlAction{}, err
		}
		return controlAction{
			desc: fmt.Sprintf("lights %s #%02X%02X%02X", state, rgb[0], rgb[1], rgb[2]),
			run: func(ctx context.Context, c *controller) (string, error) {
				return "", c.robot.SetLights(ctx, state, rgb[0], rgb[1], rgb[2])
			},
		}, nil

	case "say":
		phrase := strings.Join(args, " ")
		if phrase == "" {
			return controlAction{}, errors.New("say needs a phrase")
		}
		if len(phrase) > rootproto.MaxPhraseLength {
			return controlAction{}, fmt.Errorf("%w: %d bytes", rootproto.ErrPhraseTooLong, len(phrase))
		}
		return controlAction{
			desc: fmt.Sprintf("say %q", phrase),
			run: func(ctx context.Context, c *controller) (string, error) {
				return "", c.robot.SayPhrase(ctx, phrase)
			},
		}, nil

	case "draw":
		if err := need(1); err != nil {
			return controlAction{}, err
		}
		path, ok := orchestrator.Design(args[0])
		if !ok {
			return controlAction{}, fmt.Errorf("unknown design %q (available: %s)",
				args[0], strings.Join(orchestrator.DesignNames(), ", "))
		}
		return controlAction{
			desc:   "draw " + args[0],
			motion: true,
			run: func(ctx context.Context, c *controller) (string, error) {
				return c.draw(ctx, path)
			},
		}, nil
	}

	return controlAction{}, fmt.Errorf("unknown command %q", name)
}

// draw runs a path from a freshly reset origin, reporting each pose
func (c *controller) draw(ctx context.Context, path orchestrator.Path) (string, error) {
	if err := c.robot.ResetPosition(ctx); err != nil {
		return "", err
	}
	o := orchestrator.New(c.robot,
		orchestrator.WithTolerance(cfg.Orchestrator.PositionTolerance),
		orchestrator.WithLogger(log.With("component", "orchestrator")),
		orchestrator.WithObserver(func(p orchestrator.Pose) {
			c.p.Send(poseMsg(p))
		}),
	)
	if err := o.Execute(ctx, path); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d strokes, finished at %s", len(path), o.Pose()), nil
}

// jogDecidegrees converts the jog angle flag to protocol units
func jogDecidegrees() int32 {
	return int32(math.Round(jogAngle * 10))
}

func runControl(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		c := &controller{ctx: ctx, robot: s.Robot}

		sub := s.Robot.Subscribe("control", transport.Lossy(), transport.WithSubscriberBuffer(128))
		defer s.Robot.Unsubscribe("control")

		m := initialControlModel(c, s.Info, s.Robot.Statistics())
		p := tea.NewProgram(m, tea.WithAltScreen())
		c.p = p

		go func() {
			for frame := range sub.C() {
				p.Send(frameMsg{notification: rootproto.NewNotification(frame)})
			}
		}()
		go func() {
			<-ctx.Done()
			p.Send(sessionEndMsg{err: Err(ctx)})
		}()

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
