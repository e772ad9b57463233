// Package config loads rootline settings from a TOML file and the environment.
//
// Precedence, lowest to highest: Default(), the TOML file, ROOTLINE_*
// environment variables, explicit command line flags (applied by cmd/).
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath is read when --config is not given and the file exists
const DefaultConfigPath = "rootline.toml"

// Config is the complete rootline configuration
type Config struct {
	Connection   ConnectionConfig   `toml:"connection"`
	Protocol     ProtocolConfig     `toml:"protocol"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Log          LogConfig          `toml:"log"`
	Capture      CaptureConfig      `toml:"capture"`
}

// ConnectionConfig selects and parameterizes the bridge to the robot
type ConnectionConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	Password    string `toml:"-"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

// ProtocolConfig tunes the protocol engine
type ProtocolConfig struct {
	ResponseTimeout  string `toml:"response_timeout"`
	UniqueRequestIDs bool   `toml:"unique_request_ids"`
	VerifyCRC        bool   `toml:"verify_crc"`
}

// OrchestratorConfig tunes path execution
type OrchestratorConfig struct {
	PositionTolerance float64 `toml:"position_tolerance"`
}

// LogConfig controls diagnostics output
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CaptureConfig enables session recording
type CaptureConfig struct {
	Path string `toml:"path"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Connection: ConnectionConfig{
			Baud:     115200,
			Username: "admin",
		},
		Protocol: ProtocolConfig{
			ResponseTimeout: "10s",
			VerifyCRC:       true,
		},
		Orchestrator: OrchestratorConfig{
			PositionTolerance: 1e-6,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is an error only when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ROOTLINE_* variables
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ROOTLINE_PORT"); ok {
		cfg.Connection.Port = v
	}
	if v, ok := lookup("ROOTLINE_URL"); ok {
		cfg.Connection.URL = v
	}
	if v, ok := lookup("ROOTLINE_USERNAME"); ok {
		cfg.Connection.Username = v
	}
	if v, ok := lookup("ROOTLINE_PASSWORD"); ok {
		cfg.Connection.Password = v
	}
	if v, ok := lookup("ROOTLINE_BAUD"); ok {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROOTLINE_BAUD: %w", err)
		}
		cfg.Connection.Baud = baud
	}
	if v, ok := lookup("ROOTLINE_TIMEOUT"); ok {
		cfg.Protocol.ResponseTimeout = v
	}
	return nil
}

// Validate checks value ranges
func (cfg *Config) Validate() error {
	if cfg.Connection.Baud <= 0 {
		return fmt.Errorf("connection.baud must be positive, got %d", cfg.Connection.Baud)
	}
	if _, err := cfg.Timeout(); err != nil {
		return err
	}
	tol := cfg.Orchestrator.PositionTolerance
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		return fmt.Errorf("orchestrator.position_tolerance must be a finite non-negative number, got %v", tol)
	}
	return nil
}

// Timeout parses the response timeout
func (cfg *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(cfg.Protocol.ResponseTimeout)
	if err != nil {
		return 0, fmt.Errorf("protocol.response_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("protocol.response_timeout must be positive, got %s", d)
	}
	return d, nil
}
