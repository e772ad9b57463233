// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/Thermoquad/rootline/internal/log"
	"github.com/Thermoquad/rootline/pkg/root"
	"github.com/Thermoquad/rootline/pkg/rootproto"
)

var (
	discoveryWait  time.Duration
	discoveryProbe bool
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Find serial bridges with a robot attached",
	Long: `List serial ports and probe each one for a Root robot.

Every port is opened at the configured baud rate and sent a GET_VERSIONS
request. Ports that answer within --wait are reported with the robot's
board and firmware versions. Use --probe=false to only list the ports.

Examples:
  rootline discovery
  rootline discovery --baud 57600 --wait 500ms

Exit codes:
  0 - At least one robot found (or ports listed without probing)
  1 - No robot found`,
	Args: cobra.NoArgs,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().DurationVar(&discoveryWait, "wait", 2*time.Second, "Probe timeout per port")
	discoveryCmd.Flags().BoolVar(&discoveryProbe, "probe", true, "Probe each port with GET_VERSIONS")
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}

	fmt.Printf("Rootline - Bridge Discovery\n")
	fmt.Printf("Baud: %d\n", cfg.Connection.Baud)
	fmt.Printf("Ports: %d\n\n", len(ports))

	if len(ports) == 0 {
		return errors.New("no serial ports found")
	}

	found := 0
	for _, port := range ports {
		if !discoveryProbe {
			fmt.Printf("  %s\n", port)
			continue
		}

		fmt.Printf("  %-24s ", port)
		v, err := probePort(cmd.Context(), port)
		if err != nil {
			fmt.Printf("-- %v\n", err)
			continue
		}
		found++
		fmt.Printf("ROBOT board 0x%02X firmware %d.%d protocol %d.%d\n",
			v.BoardID, v.FirmwareMajor, v.FirmwareMinor, v.ProtocolMajor, v.ProtocolMinor)
	}

	if !discoveryProbe {
		return nil
	}
	fmt.Printf("\nFound %d robot(s)\n", found)
	if found == 0 {
		return errors.New("no robot answered")
	}
	return nil
}

// probePort asks the robot behind one serial port for its versions
func probePort(parent context.Context, port string) (rootproto.Versions, error) {
	conn, err := openSerialBridge(port, cfg.Connection.Baud)
	if err != nil {
		return rootproto.Versions{}, err
	}

	link := newLink(conn, "serial "+port)
	robot := root.New(link, root.WithTimeout(discoveryWait), root.WithLogger(log.With("port", port)))

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = robot.Run(ctx)
	}()

	v, err := robot.GetVersions(ctx)

	cancel()
	robot.Disconnect()
	<-done
	return v, err
}
