// Package config defines runtime settings and their defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
)

// ErrInvalidSearchWidth is returned for a negative or non-integer repair width.
var ErrInvalidSearchWidth = errors.New("search width must be a non-negative integer")

// Config holds the settings of one rackfit invocation.
type Config struct {
	// SearchWidth bounds how many servers a single repair may reshuffle.
	SearchWidth int `mapstructure:"search_width"`
	// RequestsDir holds request configurations (r*.xml).
	RequestsDir string `mapstructure:"requests_dir"`
	// ServersDir holds server configurations (s*.xml).
	ServersDir string `mapstructure:"servers_dir"`
	// Output is a directory or s3://bucket/prefix for report artifacts.
	// Empty writes reports to stdout only.
	Output string `mapstructure:"output"`
	// Workers is the number of configuration pairs placed concurrently.
	Workers int `mapstructure:"workers"`

	RulesFile    string `mapstructure:"rules_file"`
	HistoryPath  string `mapstructure:"history_path"`
	OtelEndpoint string `mapstructure:"otel_endpoint"`
	SlackWebhook string `mapstructure:"slack_webhook"`

	Verbose  bool `mapstructure:"verbose"`
	JsonLogs bool `mapstructure:"json_logs"`
}

// Defaults.
const (
	DefaultRequestsDir = "id/requests"
	DefaultServersDir  = "id/servers"
	DefaultHistoryPath = ".rackfit/history"
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		SearchWidth: tetris.DefaultSearchWidth,
		RequestsDir: DefaultRequestsDir,
		ServersDir:  DefaultServersDir,
		Workers:     1,
		HistoryPath: DefaultHistoryPath,
	}
}

// Validate rejects settings that cannot start a run.
func (c Config) Validate() error {
	if c.SearchWidth < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSearchWidth, c.SearchWidth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: got %d", c.Workers)
	}
	return nil
}

// ValidateInputs checks that both input directories exist.
func (c Config) ValidateInputs() error {
	for _, dir := range []string{c.RequestsDir, c.ServersDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("input directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("input directory: %s is not a directory", dir)
		}
	}
	return nil
}
