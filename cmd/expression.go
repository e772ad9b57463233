// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var lightsCmd = &cobra.Command{
	Use:   "lights <off|on|blink|spin> [red green blue]",
	Short: "Set the LED cross animation and color",
	Args:  cobra.RangeArgs(1, 4),
	RunE:  runLights,
}

var sayCmd = &cobra.Command{
	Use:   "say <phrase>",
	Short: "Play a phrase on the robot's speaker (at most 15 bytes)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSay,
}

func init() {
	rootCmd.AddCommand(lightsCmd, sayCmd)
}

// parseColor parses red, green and blue components, defaulting to white
func parseColor(args []string) ([3]uint8, error) {
	rgb := [3]uint8{0xFF, 0xFF, 0xFF}
	if len(args) == 0 {
		return rgb, nil
	}
	if len(args) != 3 {
		return rgb, fmt.Errorf("expected red, green and blue, got %d values", len(args))
	}
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return rgb, fmt.Errorf("invalid color component %q: %w", a, err)
		}
		rgb[i] = uint8(v)
	}
	return rgb, nil
}

func runLights(cmd *cobra.Command, args []string) error {
	state, ok := rootproto.ParseLightsState(args[0])
	if !ok {
		return fmt.Errorf("invalid light mode %q (use off, on, blink or spin)", args[0])
	}
	rgb, err := parseColor(args[1:])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		return s.Robot.SetLights(ctx, state, rgb[0], rgb[1], rgb[2])
	})
}

func runSay(cmd *cobra.Command, args []string) error {
	phrase := strings.Join(args, " ")
	if len(phrase) > rootproto.MaxPhraseLength {
		return fmt.Errorf("%w: %d bytes", rootproto.ErrPhraseTooLong, len(phrase))
	}
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		return s.Robot.SayPhrase(ctx, phrase)
	})
}
