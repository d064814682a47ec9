package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"edgemux/pkg/port"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "edgemux.yaml")
	if err := os.WriteFile(name, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestLoadConfig(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, `
backend: sim
pairings:
  - name: button1
    input: 11
    output: 13
    pull: up
  - input: 12
    output: 14
    pull: down
    initial: low
emulation:
  interval: 250
mqtt:
  topic: test/lines
`)
	c.Flag.LogLevel = "debug"

	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig returned err: %v", err)
	}

	if c.Backend != "sim" || c.Chip != "gpiochip0" {
		t.Errorf("got backend %q chip %q", c.Backend, c.Chip)
	}
	if len(c.Pairings) != 2 {
		t.Fatalf("got %d pairings want 2", len(c.Pairings))
	}

	p := c.Pairings[0]
	if p.Name != "button1" || p.Pull != port.PullUp || p.Initial != port.High {
		t.Errorf("got %+v", p)
	}
	p = c.Pairings[1]
	if p.Name != "line12" || p.Pull != port.PullDown || p.Initial != port.Low {
		t.Errorf("got %+v", p)
	}

	if c.Emulation.Interval != 250*time.Millisecond {
		t.Errorf("got interval %v want 250ms", c.Emulation.Interval)
	}
	if c.MQTT.Topic != "test/lines" || c.MQTT.Buffer != 16 {
		t.Errorf("got mqtt %+v", c.MQTT)
	}
	if c.Log.FlagString != "debug" || c.Log.File != os.Stderr {
		t.Errorf("got log %+v", c.Log)
	}
	if !c.Webserver.Webservices["lines"] {
		t.Error("lines webservice disabled by default")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"no pairings", "backend: sim\n", ErrNoPairings},
		{"bad pull", "pairings:\n  - input: 1\n    output: 2\n    pull: sideways\n", port.ErrInvalidPull},
		{"bad level", "pairings:\n  - input: 1\n    output: 2\n    initial: maybe\n", port.ErrInvalidLevel},
		{"bad log level", "debug:\n  flag: info\npairings:\n  - input: 1\n    output: 2\n", ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			c.Flag.ConfigFile = writeConfig(t, tt.content)
			if err := c.LoadConfig(); !errors.Is(err, tt.want) {
				t.Errorf("got %v want %v", err, tt.want)
			}
		})
	}

	t.Run("bad log level flag", func(t *testing.T) {
		c := NewConfig()
		c.Flag.ConfigFile = writeConfig(t, "pairings:\n  - input: 1\n    output: 2\n")
		c.Flag.LogLevel = "info"
		if err := c.LoadConfig(); !errors.Is(err, ErrInvalidLogLevel) {
			t.Errorf("got %v want %v", err, ErrInvalidLogLevel)
		}
		if c.Log.Flag != 0 {
			t.Errorf("got flag %v want unset", c.Log.Flag)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		c := NewConfig()
		c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
		if err := c.LoadConfig(); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("got %v want %v", err, os.ErrNotExist)
		}
	})
}
