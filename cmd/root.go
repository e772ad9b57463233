// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rootline/internal/config"
	"github.com/Thermoquad/rootline/internal/log"
	"github.com/Thermoquad/rootline/internal/version"
)

var (
	configPath string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Protocol and diagnostics flags
	responseTimeout string
	uniqueIDs       bool
	logLevel        string
	logFormat       string
	recordPath      string

	// cfg is the resolved configuration, filled in before any command runs
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "rootline",
	Short: "iRobot Root drawing robot controller",
	Long: `Rootline - A CLI tool for driving an iRobot Root through a BLE bridge.

Sends motion, marker, light and sound commands, draws paths made of straight
and arc strokes, and monitors the notification stream for diagnostics.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Either bridge carries raw 20-byte protocol frames. Settings are read from
rootline.toml (or --config), then ROOTLINE_* environment variables, then
flags.

For WebSocket authentication, the password is read from the ROOTLINE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Exit codes:
  0 - Success
  1 - Command failed
  2 - Connection error
  3 - Cliff detected, robot stopped`,
	Version:           version.String(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default rootline.toml if present)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "admin", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&responseTimeout, "timeout", "10s", "Response timeout per command")
	rootCmd.PersistentFlags().BoolVar(&uniqueIDs, "unique-ids", false, "Give every request its own id")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&recordPath, "record", "", "Append all traffic to a capture file")
}

// loadConfig resolves cfg from file, environment and explicitly set flags
func loadConfig(cmd *cobra.Command, args []string) error {
	path, required := configPath, true
	if path == "" {
		path, required = config.DefaultConfigPath, false
	}

	loaded, err := config.Load(path, required)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		loaded.Connection.Port = portName
	}
	if flags.Changed("baud") {
		loaded.Connection.Baud = baudRate
	}
	if flags.Changed("url") {
		loaded.Connection.URL = wsURL
	}
	if flags.Changed("username") {
		loaded.Connection.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		loaded.Connection.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("timeout") {
		loaded.Protocol.ResponseTimeout = responseTimeout
	}
	if flags.Changed("unique-ids") {
		loaded.Protocol.UniqueRequestIDs = uniqueIDs
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = logFormat
	}
	if flags.Changed("record") {
		loaded.Capture.Path = recordPath
	}

	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	log.Init(cfg.Log.Level, cfg.Log.Format)
	log.Debug("configuration loaded", "path", path, "timeout", cfg.Protocol.ResponseTimeout)
	return nil
}

// Execute runs the root command until ctx ends
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
