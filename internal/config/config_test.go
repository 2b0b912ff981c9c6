package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analyze.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Log != "cooja.testlog" || c.Runs != 10 || c.MaxDelay != 10000 {
		t.Fatalf("defaults = %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(writeFile(t, "log: runs/a.testlog\nruns: 5\nmatch: field\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Log != "runs/a.testlog" || c.Runs != 5 || c.Match != "field" {
		t.Fatalf("config = %+v", c)
	}
	if c.MaxDelay != stats.DefaultMaxDelay {
		t.Fatalf("max delay = %d, want default", c.MaxDelay)
	}

	opt := c.StatsOptions()
	if opt.Runs != 5 || opt.Match != stats.MatchField {
		t.Fatalf("options = %+v", opt)
	}
}

func TestLoadEmpty(t *testing.T) {
	c, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != Default() {
		t.Fatalf("config = %+v, want defaults", c)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeFile(t, "divisor: 3\n"))
	if err == nil || !strings.Contains(err.Error(), "divisor") {
		t.Fatalf("err = %v, want unknown field error", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"empty log", func(c *Config) { c.Log = "" }},
		{"zero runs", func(c *Config) { c.Runs = 0 }},
		{"zero delay", func(c *Config) { c.MaxDelay = 0 }},
		{"bad match", func(c *Config) { c.Match = "exact" }},
		{"bad format", func(c *Config) { c.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mod(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
