// Package config holds the analyzer settings. Values come from an optional
// YAML file and are overridden by command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lars-sto/wsn-trace-stats/internal/report"
	"github.com/lars-sto/wsn-trace-stats/internal/stats"
	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

type Config struct {
	Log        string `yaml:"log"`
	Runs       int    `yaml:"runs"`
	MaxDelay   int64  `yaml:"max_delay"`
	Match      string `yaml:"match"`
	Format     string `yaml:"format"`
	SummaryCSV string `yaml:"summary_csv"`
	Prom       string `yaml:"prom"`
	Verbose    bool   `yaml:"verbose"`
}

func Default() Config {
	return Config{
		Log:      trace.DefaultPath,
		Runs:     stats.DefaultRuns,
		MaxDelay: stats.DefaultMaxDelay,
		Match:    string(stats.MatchSubstring),
		Format:   string(report.FormatText),
	}
}

// Load reads path over the defaults. Unknown keys are rejected; an empty file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Log == "" {
		return errors.New("log path is empty")
	}
	if c.Runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", c.Runs)
	}
	if c.MaxDelay <= 0 {
		return fmt.Errorf("max_delay must be positive, got %d", c.MaxDelay)
	}
	if _, err := stats.ParseMatchMode(c.Match); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

// StatsOptions converts the config to analysis options. Call Validate first.
func (c Config) StatsOptions() stats.Options {
	opt := stats.DefaultOptions()
	opt.Runs = c.Runs
	opt.MaxDelay = c.MaxDelay
	if m, err := stats.ParseMatchMode(c.Match); err == nil {
		opt.Match = m
	}
	return opt
}
