// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/internal/capture"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var (
	replaySession    string
	replayErrorsOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Decode a capture written with --record",
	Long: `Print every frame of a capture file in the same format as monitor --show-all,
followed by statistics recomputed from the received frames.

A capture file may hold several sessions; use --session to select one.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replaySession, "session", "", "Only replay this session id")
	replayCmd.Flags().BoolVar(&replayErrorsOnly, "errors-only", false, "Only show frames that fail validation")
}

func runReplay(cmd *cobra.Command, args []string) error {
	var only uuid.UUID
	if replaySession != "" {
		id, err := uuid.Parse(replaySession)
		if err != nil {
			return fmt.Errorf("invalid session id: %w", err)
		}
		only = id
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r := capture.NewReader(f)
	stats := rootproto.NewStatistics()
	sessions := map[uuid.UUID]int{}
	var current uuid.UUID

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if only != uuid.Nil && rec.Session != only {
			continue
		}

		if rec.Session != current {
			current = rec.Session
			fmt.Printf("=== Session %s (%s) ===\n", rec.Session, rec.Time.Format("2006-01-02 15:04:05"))
		}
		sessions[rec.Session]++

		n := rootproto.NewNotificationAt(rec.Frame, rec.Time)
		switch rec.Direction {
		case capture.TX:
			stats.RecordSent()
			if !replayErrorsOnly {
				fmt.Printf("TX %s", rootproto.FormatNotification(n))
			}

		case capture.RX:
			errs := rootproto.ValidateNotification(n)
			stats.Update(n, errs)
			if len(errs) > 0 {
				printValidationErrors(n, errs)
			} else if !replayErrorsOnly {
				fmt.Printf("RX %s", rootproto.FormatNotification(n))
			}
		}
	}

	if len(sessions) == 0 {
		return errors.New("no matching records in capture")
	}

	fmt.Println()
	fmt.Printf("%d session(s)\n", len(sessions))
	fmt.Print(stats.String())
	return nil
}
