// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/pkg/rootproto"
	"github.com/Thermoquad/rootline/pkg/transport"
)

var (
	packetTestWait  time.Duration
	packetTestProbe bool
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid notification frame",
	Long: `Wait for a valid Root notification on the connection until timeout.

This command connects to a serial port or WebSocket bridge and waits for any
frame that is exactly 20 bytes with a valid CRC-8. Invalid frames are counted
and skipped. The robot only speaks when spoken to, so a GET_VERSIONS probe is
sent first unless --probe=false.

Exit codes:
  0 - Valid frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for testing connectivity through a serial or WebSocket BLE bridge.`,
	Args: cobra.NoArgs,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().DurationVar(&packetTestWait, "wait", 10*time.Second, "How long to wait for a frame")
	packetTestCmd.Flags().BoolVar(&packetTestProbe, "probe", true, "Send GET_VERSIONS to prompt a response")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	link, connInfo, err := OpenTransport(cmd.Context())
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("Rootline - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %s\n", packetTestWait)
	fmt.Printf("Waiting for valid notification...\n\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), packetTestWait)
	defer cancel()

	if packetTestProbe {
		probe, err := rootproto.NewGetVersions(rootproto.IDGetVersions).Encode()
		if err != nil {
			return err
		}
		if err := link.Write(ctx, probe, transport.WithResponse); err != nil {
			return &ConnectionError{Err: err}
		}
	}

	invalid := 0
	for {
		select {
		case frame, ok := <-link.Notifications():
			if !ok {
				return &ConnectionError{Err: transport.ErrUnavailable}
			}
			n := rootproto.NewNotification(frame)
			if errs := rootproto.ValidateNotification(n); rootproto.HasAnomaly(errs, rootproto.AnomalyLengthMismatch) ||
				rootproto.HasAnomaly(errs, rootproto.AnomalyCRCError) {
				invalid++
				continue
			}

			if invalid > 0 {
				fmt.Printf("(skipped %d invalid frames)\n", invalid)
			}
			key, _ := n.Key()
			crc, _ := n.CRC()
			fmt.Printf("SUCCESS: Received valid frame\n")
			fmt.Printf("  Device: %s (0x%02X)\n", rootproto.DeviceName(key.Device), key.Device)
			fmt.Printf("  Command: %s (0x%02X)\n", rootproto.CommandName(key.Device, key.Command), key.Command)
			fmt.Printf("  Request ID: 0x%02X\n", key.ID)
			fmt.Printf("  CRC: 0x%02X\n", crc)
			return nil

		case <-ctx.Done():
			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			return fmt.Errorf("TIMEOUT: no valid frame received within %s (%d invalid)", packetTestWait, invalid)
		}
	}
}
