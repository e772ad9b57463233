// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/internal/log"
	"github.com/Thermoquad/rootline/pkg/orchestrator"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var (
	drawDesign string
	drawList   bool
	drawDryRun bool
	drawExport string
)

var drawCmd = &cobra.Command{
	Use:   "draw [path-file]",
	Short: "Draw a path of straight and arc strokes",
	Long: `Draw a path read from a file or one of the built-in designs.

Path files are TOML (.toml) or CBOR (.cbor). A TOML path is a list of strokes,
each a list of [x, y] points in millimeters:

  [[strokes]]
  points = [[0, 0], [0, 100]]

  [[strokes]]
  points = [[50, 50], [75, 75], [100, 50]]

A stroke of two points is a pen-up travel move. Three or more points are
drawn pen-down as arcs through consecutive triples. The robot starts at the
origin facing +y; its odometry is reset before drawing.

Examples:
  rootline draw --list
  rootline draw --design heart --dry-run
  rootline draw --design B --export b.toml
  rootline draw b.toml --port /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDraw,
}

func init() {
	rootCmd.AddCommand(drawCmd)
	drawCmd.Flags().StringVarP(&drawDesign, "design", "d", "", "Draw a built-in design")
	drawCmd.Flags().BoolVar(&drawList, "list", false, "List built-in designs")
	drawCmd.Flags().BoolVar(&drawDryRun, "dry-run", false, "Print the commands without connecting")
	drawCmd.Flags().StringVar(&drawExport, "export", "", "Write the path to a file instead of drawing")
}

// loadPath resolves the path from the file argument or --design
func loadPath(args []string) (orchestrator.Path, string, error) {
	switch {
	case len(args) == 1 && drawDesign != "":
		return nil, "", errors.New("give either a path file or --design, not both")
	case len(args) == 1:
		p, err := orchestrator.ReadPathFile(args[0])
		return p, args[0], err
	case drawDesign != "":
		p, ok := orchestrator.Design(drawDesign)
		if !ok {
			return nil, "", fmt.Errorf("unknown design %q (available: %s)",
				drawDesign, strings.Join(orchestrator.DesignNames(), ", "))
		}
		return p, "design " + drawDesign, nil
	default:
		return nil, "", errors.New("a path file or --design is required")
	}
}

func runDraw(cmd *cobra.Command, args []string) error {
	if drawList {
		for _, name := range orchestrator.DesignNames() {
			p, _ := orchestrator.Design(name)
			fmt.Printf("%-8s %d strokes, %d points\n", name, len(p), p.Points())
		}
		return nil
	}

	path, source, err := loadPath(args)
	if err != nil {
		return err
	}
	if err := path.Validate(); err != nil {
		return err
	}

	if drawExport != "" {
		if err := orchestrator.WritePathFile(drawExport, path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s to %s\n", source, drawExport)
		return nil
	}

	fmt.Printf("Drawing %s: %d strokes, %d points\n", source, len(path), path.Points())

	if drawDryRun {
		return executePath(cmd.Context(), &printDriver{}, path)
	}

	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		fmt.Printf("Connection: %s\n", s.Info)
		if err := s.Robot.ResetPosition(ctx); err != nil {
			return err
		}
		return executePath(ctx, s.Robot, path)
	})
}

func executePath(ctx context.Context, d orchestrator.Driver, path orchestrator.Path) error {
	o := orchestrator.New(d,
		orchestrator.WithTolerance(cfg.Orchestrator.PositionTolerance),
		orchestrator.WithLogger(log.With("component", "orchestrator")),
		orchestrator.WithObserver(func(p orchestrator.Pose) {
			fmt.Printf("  pose %s\n", p)
		}),
	)
	if err := o.Execute(ctx, path); err != nil {
		return fmt.Errorf("draw aborted at %s: %w", o.Pose(), err)
	}
	fmt.Printf("Finished at %s\n", o.Pose())
	return nil
}

// printDriver prints each command instead of sending it
type printDriver struct{}

func (printDriver) RotateAngle(ctx context.Context, decidegrees int32) (rootproto.MotionFinished, error) {
	fmt.Print(rootproto.FormatPacket(rootproto.NewRotateAngle(rootproto.IDRotateAngle, decidegrees)))
	return rootproto.MotionFinished{}, ctx.Err()
}

func (printDriver) DriveDistance(ctx context.Context, mm int32) (rootproto.MotionFinished, error) {
	fmt.Print(rootproto.FormatPacket(rootproto.NewDriveDistance(rootproto.IDDriveDistance, mm)))
	return rootproto.MotionFinished{}, ctx.Err()
}

func (printDriver) DriveArc(ctx context.Context, decidegrees, radiusMM int32) (rootproto.MotionFinished, error) {
	fmt.Print(rootproto.FormatPacket(rootproto.NewDriveArc(rootproto.IDDriveArc, decidegrees, radiusMM)))
	return rootproto.MotionFinished{}, ctx.Err()
}

func (printDriver) SetMarker(ctx context.Context, pos rootproto.MarkerPosition) (rootproto.MarkerFinished, error) {
	fmt.Print(rootproto.FormatPacket(rootproto.NewSetMarker(rootproto.IDSetMarker, pos)))
	return rootproto.MarkerFinished{Position: pos}, ctx.Err()
}
