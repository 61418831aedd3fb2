// Package config loads the daemon's HCL configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete daemon configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  []RoomConfig   `hcl:"room,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RoomConfig defines a room created at startup. Rooms can also be created on
// demand by the first join; pre-configured rooms exist from boot with the
// given limits.
type RoomConfig struct {
	Name          string `hcl:"name,label"`
	SeatCapacity  int    `hcl:"seat_capacity,optional"`
	StartingChips int64  `hcl:"starting_chips,optional"`
	TurnTimeoutMS int    `hcl:"turn_timeout_ms,optional"`
}

// TurnTimeout returns the configured per-turn deadline.
func (r RoomConfig) TurnTimeout() time.Duration {
	return time.Duration(r.TurnTimeoutMS) * time.Millisecond
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Rooms: []RoomConfig{
			{
				Name:          "main",
				SeatCapacity:  6,
				StartingChips: 1000,
				TurnTimeoutMS: 30000,
			},
		},
	}
}

// Load reads configuration from an HCL file, falling back to Default when the
// file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	for i := range cfg.Rooms {
		if cfg.Rooms[i].SeatCapacity == 0 {
			cfg.Rooms[i].SeatCapacity = 6
		}
		if cfg.Rooms[i].StartingChips == 0 {
			cfg.Rooms[i].StartingChips = 1000
		}
		if cfg.Rooms[i].TurnTimeoutMS == 0 {
			cfg.Rooms[i].TurnTimeoutMS = 30000
		}
	}

	return &cfg, nil
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	seen := make(map[string]bool)
	for _, room := range c.Rooms {
		if room.Name == "" {
			return fmt.Errorf("room with empty name")
		}
		if seen[room.Name] {
			return fmt.Errorf("room %s: configured twice", room.Name)
		}
		seen[room.Name] = true
		if room.SeatCapacity < 2 || room.SeatCapacity > 10 {
			return fmt.Errorf("room %s: seat capacity must be between 2 and 10", room.Name)
		}
		if room.StartingChips <= 0 {
			return fmt.Errorf("room %s: starting chips must be positive", room.Name)
		}
		if room.TurnTimeoutMS < 0 {
			return fmt.Errorf("room %s: turn timeout must not be negative", room.Name)
		}
	}

	return nil
}

// ListenAddress returns the full address the server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
