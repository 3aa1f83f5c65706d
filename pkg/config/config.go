/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Ports below 1024 need elevated privileges, which a measurement tool has
// no business asking for.
const (
	MinPort = 1024
	MaxPort = 65535
)

// Duration wraps time.Duration so YAML configs can say "500ms" or "1m".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML renders the duration in time.ParseDuration syntax.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses time.ParseDuration syntax.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Stream names one UDP source and the local port it is forwarded to.
type Stream struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

// API contains the debug endpoint configuration
type API struct {
	Listen string `yaml:"listen"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Config represents the shredrace configuration
type Config struct {
	Streams    []Stream `yaml:"streams"`
	Window     Duration `yaml:"window"`
	StatsEvery Duration `yaml:"stats_every"`
	API        API      `yaml:"api"`
	Logging    Logging  `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Streams: []Stream{
			{Name: "a", Port: 20001},
			{Name: "b", Port: 20002},
		},
		Window:     Duration(60 * time.Second),
		StatsEvery: Duration(10 * time.Second),
		API: API{
			Listen: "",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects configurations the race cannot run with.
func (c *Config) Validate() error {
	if len(c.Streams) != 2 {
		return fmt.Errorf("exactly two streams are required, got %d", len(c.Streams))
	}
	for i, s := range c.Streams {
		if s.Name == "" {
			return fmt.Errorf("stream %d has no name", i)
		}
		if s.Port < MinPort || s.Port > MaxPort {
			return fmt.Errorf("stream %s: port %d outside [%d, %d]", s.Name, s.Port, MinPort, MaxPort)
		}
	}
	if c.Streams[0].Name == c.Streams[1].Name {
		return fmt.Errorf("streams must have distinct names, both are %q", c.Streams[0].Name)
	}
	if c.Streams[0].Port == c.Streams[1].Port {
		return fmt.Errorf("streams must listen on distinct ports, both are %d", c.Streams[0].Port)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.StatsEvery < 0 {
		return fmt.Errorf("stats_every must be zero or positive, got %s", c.StatsEvery)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./shredrace.yaml"
	}

	// For Linux/macOS, use ~/.config/shredrace/config.yaml
	configDir := filepath.Join(homeDir, ".config", "shredrace")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
