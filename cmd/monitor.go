// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

var (
	showAll       bool
	statsInterval time.Duration
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the notification stream and detect malformed frames",
	Long: `Decode and validate every notification the robot sends, with statistics.

This command validates each frame and detects:
  - Length mismatches (frames that are not 20 bytes)
  - CRC errors
  - Unknown device ids
  - Cliff sensor events (the robot is stopped and the command exits 3)

By default, only errors and sensor events are displayed. Use --show-all to
display every frame decoded.

Periodic statistics summaries are displayed at a configurable interval in
text mode, and continuously in the terminal UI.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	monitorCmd.Flags().DurationVar(&statsInterval, "stats-interval", 10*time.Second, "Statistics update interval")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", false, "Use terminal UI")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		sub := s.Robot.Subscribe("monitor", transport.Lossy(), transport.WithSubscriberBuffer(256))
		if useTUI {
			return runMonitorTUI(ctx, s, sub)
		}
		return runMonitorText(ctx, s, sub)
	})
}

// printValidationErrors prints the anomalies found in one frame
func printValidationErrors(n *rootproto.Notification, errs []rootproto.ValidationError) {
	timestamp := n.Timestamp().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %d bytes\n", timestamp, n.Len())

	for i, err := range errs {
		switch err.Type {
		case rootproto.AnomalyCRCError:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
			if got, ok := err.Details["received"].(uint8); ok {
				if want, ok := err.Details["calculated"].(uint8); ok {
					fmt.Printf("    CRC: received=0x%02X, calculated=0x%02X\n", got, want)
				}
			}

		case rootproto.AnomalyLengthMismatch:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
			if received, ok := err.Details["length"].(int); ok {
				if expected, ok := err.Details["expected"].(int); ok {
					fmt.Printf("    Length: received=%d, expected=%d\n", received, expected)
				}
			}

		default:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
		}
	}

	fmt.Print(rootproto.FormatNotification(n))
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// runMonitorText prints anomalies as they arrive and statistics on a ticker
func runMonitorText(ctx context.Context, s *Session, sub *transport.Subscription) error {
	fmt.Printf("Rootline - Notification Monitor\n")
	fmt.Printf("Connection: %s\n", s.Info)
	fmt.Printf("Statistics interval: %s\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors and events only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := s.Robot.Statistics()
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Print(stats.String())
			if sub.Dropped() > 0 {
				fmt.Printf("Display dropped %d frames\n", sub.Dropped())
			}
			return nil

		case frame, ok := <-sub.C():
			if !ok {
				<-ctx.Done()
				continue
			}
			n := rootproto.NewNotification(frame)
			errs := rootproto.ValidateNotification(n)

			switch {
			case len(errs) > 0:
				printValidationErrors(n, errs)
			case n.IsHazard():
				fmt.Printf("\033[1;31m%s\033[0m\n", rootproto.FormatNotification(n))
			case showAll:
				fmt.Println(rootproto.FormatNotification(n))
			}

		case <-ticker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}

// runMonitorTUI runs the monitor in the terminal UI until the user quits or the session ends
func runMonitorTUI(ctx context.Context, s *Session, sub *transport.Subscription) error {
	m := initialMonitorModel(s.Info, s.Robot.Statistics(), showAll)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for frame := range sub.C() {
			n := rootproto.NewNotification(frame)
			p.Send(frameMsg{notification: n, validationErrors: rootproto.ValidateNotification(n)})
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
}
