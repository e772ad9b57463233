// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Query the robot's board and firmware versions",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		v, err := s.Robot.GetVersions(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Connection: %s\n", s.Info)
		fmt.Print(rootproto.FormatVersions(v))
		return nil
	})
}
