// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop all motion and clear the robot's command queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
			return s.Robot.StopAndReset(ctx)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the robot's odometry to the origin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
			return s.Robot.ResetPosition(ctx)
		})
	},
}

var driveCmd = &cobra.Command{
	Use:   "drive <mm>",
	Short: "Drive straight; negative distances reverse",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrive,
}

var rotateCmd = &cobra.Command{
	Use:   "rotate <degrees>",
	Short: "Rotate in place; positive is clockwise",
	Args:  cobra.ExactArgs(1),
	RunE:  runRotate,
}

var arcCmd = &cobra.Command{
	Use:   "arc <degrees> <radius-mm>",
	Short: "Drive along a circular arc",
	Args:  cobra.ExactArgs(2),
	RunE:  runArc,
}

var markerCmd = &cobra.Command{
	Use:       "marker <up|down|eraser>",
	Short:     "Move the marker/eraser actuator",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "eraser"},
	RunE:      runMarker,
}

func init() {
	rootCmd.AddCommand(stopCmd, resetCmd, driveCmd, rotateCmd, arcCmd, markerCmd)
}

// parseInt32 parses a command argument into the protocol's signed 32-bit range
func parseInt32(name, s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return int32(v), nil
}

// parseDecidegrees converts a degree argument to tenths of a degree
func parseDecidegrees(s string) (int32, error) {
	deg, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid angle %q: %w", s, err)
	}
	deci := math.Round(deg * 10)
	if math.IsNaN(deci) || deci > math.MaxInt32 || deci < math.MinInt32 {
		return 0, fmt.Errorf("angle %q out of range", s)
	}
	return int32(deci), nil
}

func printMotion(m rootproto.MotionFinished) {
	fmt.Printf("Done: position (%d, %d) mm, heading %.1f°, t=%d ms\n",
		m.X, m.Y, float64(m.Heading)/10.0, m.Timestamp)
}

func runDrive(cmd *cobra.Command, args []string) error {
	mm, err := parseInt32("distance", args[0])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		m, err := s.Robot.DriveDistance(ctx, mm)
		if err != nil {
			return err
		}
		printMotion(m)
		return nil
	})
}

func runRotate(cmd *cobra.Command, args []string) error {
	deci, err := parseDecidegrees(args[0])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		m, err := s.Robot.RotateAngle(ctx, deci)
		if err != nil {
			return err
		}
		printMotion(m)
		return nil
	})
}

func runArc(cmd *cobra.Command, args []string) error {
	deci, err := parseDecidegrees(args[0])
	if err != nil {
		return err
	}
	radius, err := parseInt32("radius", args[1])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		m, err := s.Robot.DriveArc(ctx, deci, radius)
		if err != nil {
			return err
		}
		printMotion(m)
		return nil
	})
}

func runMarker(cmd *cobra.Command, args []string) error {
	pos, ok := rootproto.ParseMarkerPosition(args[0])
	if !ok {
		return fmt.Errorf("invalid marker position %q (use up, down or eraser)", args[0])
	}
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		done, err := s.Robot.SetMarker(ctx, pos)
		if err != nil {
			return err
		}
		fmt.Printf("Marker %s\n", done.Position)
		return nil
	})
}
