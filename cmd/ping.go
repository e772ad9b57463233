// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/pkg/root"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure command round trip time with version requests",
	Long: `Send GET_VERSIONS requests to the robot and wait for each response.

This command tests bidirectional communication end to end: bridge, BLE link
and robot firmware. It is useful for verifying:
  - The bridge connection is established
  - HTTP Basic authentication works (WebSocket bridges)
  - The robot answers commands and responses are correlated
  - Round trip latency is stable

Use --timeout to set how long each request waits.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

// pingStats summarizes round trip times
type pingStats struct {
	sent, received int
	min, max, sum  time.Duration
}

func (p *pingStats) add(rtt time.Duration) {
	if p.received == 0 || rtt < p.min {
		p.min = rtt
	}
	if rtt > p.max {
		p.max = rtt
	}
	p.sum += rtt
	p.received++
}

func (p *pingStats) loss() float64 {
	if p.sent == 0 {
		return 0
	}
	return float64(p.sent-p.received) / float64(p.sent) * 100
}

func (p *pingStats) String() string {
	s := fmt.Sprintf("%d pings sent, %d responses received, %.0f%% packet loss",
		p.sent, p.received, p.loss())
	if p.received > 0 {
		avg := p.sum / time.Duration(p.received)
		s += fmt.Sprintf("\nrtt min/avg/max = %v/%v/%v",
			p.min.Round(time.Millisecond), avg.Round(time.Millisecond), p.max.Round(time.Millisecond))
	}
	return s
}

func runPing(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *Session) error {
		fmt.Printf("Rootline - Ping Test\n")
		fmt.Printf("Connection: %s\n", s.Info)
		fmt.Printf("Timeout: %s per ping\n", cfg.Protocol.ResponseTimeout)
		fmt.Printf("Count: %d pings\n\n", pingCount)

		var stats pingStats
		for i := 1; i <= pingCount; i++ {
			fmt.Printf("Ping %d/%d: ", i, pingCount)

			stats.sent++
			start := time.Now()
			v, err := s.Robot.GetVersions(ctx)
			rtt := time.Since(start)

			var timeoutErr *root.TimeoutError
			switch {
			case err == nil:
				stats.add(rtt)
				fmt.Printf("reply from board 0x%02X firmware %d.%d, rtt=%v\n",
					v.BoardID, v.FirmwareMajor, v.FirmwareMinor, rtt.Round(time.Millisecond))
			case errors.As(err, &timeoutErr):
				fmt.Printf("TIMEOUT (no response in %v)\n", timeoutErr.After)
			case ctx.Err() != nil:
				fmt.Println("INTERRUPTED")
				return ctx.Err()
			default:
				fmt.Printf("FAILED: %v\n", err)
			}

			if i < pingCount {
				select {
				case <-time.After(pingInterval):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		fmt.Printf("\n--- Ping statistics ---\n%s\n", stats.String())

		if stats.received < stats.sent {
			return fmt.Errorf("%d of %d pings failed", stats.sent-stats.received, stats.sent)
		}
		return nil
	})
}
