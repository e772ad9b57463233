// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var linkTestDuration time.Duration

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Test raw bridge connection stability",
	Long: `Test the bridge connection without sending any commands.

This command connects to the bridge and just waits, logging any frames
received or errors encountered. Useful for debugging connection stability
issues with WebSocket gateways or flaky serial adapters.

Exit codes:
  0 - Test completed normally
  2 - Connection error or link lost during the test`,
	Args: cobra.NoArgs,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().DurationVar(&linkTestDuration, "duration", 30*time.Second, "Test duration")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	link, connInfo, err := OpenTransport(cmd.Context())
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("Bridge Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %s\n\n", linkTestDuration)

	start := time.Now()
	deadline := time.NewTimer(linkTestDuration)
	defer deadline.Stop()
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	framesReceived, bytesReceived := 0, 0
	results := func(result string) {
		fmt.Printf("\n--- Test Results ---\n")
		fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Frames received: %d\n", framesReceived)
		fmt.Printf("Bytes received: %d\n", bytesReceived)
		fmt.Printf("Result: %s\n", result)
	}

	fmt.Printf("Listening for data...\n\n")

	for {
		select {
		case frame, ok := <-link.Notifications():
			if !ok {
				fmt.Printf("\n[%s] Connection lost\n", time.Now().Format("15:04:05.000"))
				results("FAILED (connection lost)")
				return &ConnectionError{Err: fmt.Errorf("link lost after %v", time.Since(start).Round(time.Second))}
			}
			framesReceived++
			bytesReceived += len(frame)
			fmt.Printf("[%s] Received %d bytes: %x\n",
				time.Now().Format("15:04:05.000"), len(frame), frame)

		case <-heartbeat.C:
			remaining := linkTestDuration - time.Since(start)
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining.Seconds())

		case <-deadline.C:
			results("PASSED (connection stable)")
			return nil

		case <-cmd.Context().Done():
			results("INTERRUPTED")
			return nil
		}
	}
}
