package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"edgemux/pkg/port"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

var (
	ErrNoPairings      = errors.New("no pairings configured")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds the application configuration. Attention!
// Fields ending with Int or String are read from the config file,
// the derived fields are set by LoadConfig.
// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Backend   string          `yaml:"backend"`
	Chip      string          `yaml:"chip"`
	Pairings  []PairingConfig `yaml:"pairings"`
	History   int             `yaml:"history"`
	Flag      FlagConfig      `yaml:"-"`
	Log       LogConfig       `yaml:"debug"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Emulation EmulationConfig `yaml:"emulation"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	LogLevel   string
	ConfigFile string
}

// PairingConfig couples an input line to an output line.
// The order of the pairings is the order in which simultaneous edges are served.
type PairingConfig struct {
	Name          string     `yaml:"name"`
	Input         int        `yaml:"input"`
	Output        int        `yaml:"output"`
	PullString    string     `yaml:"pull"`
	Pull          port.Pull  `yaml:"-"`
	InitialString string     `yaml:"initial"`
	Initial       port.Level `yaml:"-"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	ClientID   string `yaml:"clientid"`
	Topic      string `yaml:"topic"`
	Buffer     int    `yaml:"buffer"`
}

// EmulationConfig defines the edge emulation of the sim backend.
type EmulationConfig struct {
	IntervalInt int           `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
}

// LogConfig defines the struct of the debug configuration and configuration file
type LogConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Backend: "gpiod",
		Chip:    "gpiochip0",
		History: 100,
		Flag:    FlagConfig{},
		Log: LogConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"lines":   true,
				"events":  true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "",
			ClientID:   "edgemux",
			Topic:      "edgemux/lines",
			Buffer:     16,
		},
	}
}

// LoadConfig reads the config file and sets the derived fields.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	return c.apply()
}

// apply validates the configuration and sets the derived fields.
func (c *Config) apply() error {
	if c.Flag.LogLevel != "" {
		c.Log.FlagString = c.Flag.LogLevel
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("debug config: %w", err)
	}

	if len(c.Pairings) == 0 {
		return ErrNoPairings
	}

	for i := range c.Pairings {
		p := &c.Pairings[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("line%d", p.Input)
		}

		var err error
		if p.Pull, err = port.ParsePull(p.PullString); err != nil {
			return fmt.Errorf("pairing %s: pull %q: %w", p.Name, p.PullString, err)
		}

		// outputs start high unless configured otherwise
		if p.InitialString == "" {
			p.Initial = port.High
		} else if p.Initial, err = port.ParseLevel(p.InitialString); err != nil {
			return fmt.Errorf("pairing %s: initial %q: %w", p.Name, p.InitialString, err)
		}
	}

	c.Emulation.Interval = time.Duration(c.Emulation.IntervalInt) * time.Millisecond
	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Log.FlagString {
	case "trace", "full":
		c.Log.Flag = debug.Full
	case "debug":
		c.Log.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Log.Flag = debug.Standard
	default:
		return fmt.Errorf("%q: %w", c.Log.FlagString, ErrInvalidLogLevel)
	}

	switch c.Log.FileString {
	case "stderr":
		c.Log.File = os.Stderr
	case "stdout":
		c.Log.File = os.Stdout
	default:
		if c.Log.File, err = os.OpenFile(c.Log.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return fmt.Errorf("unable to open debug file %q: %w", c.Log.FileString, err)
		}
	}

	return
}
