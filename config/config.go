// Package config loads the YAML configuration shared by the wasm bundle and the dev server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/esimov/greenscreen-wasm/chromakey"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// FileName is the configuration file looked up next to the page.
const FileName = "greenscreen.yaml"

// Config is the complete configuration.
type Config struct {
	Server     Server    `yaml:"server"`
	Session    Session   `yaml:"session"`
	Thresholds Levels    `yaml:"thresholds"`
	Presets    []Preset  `yaml:"presets"`
	Snapshot   Snapshot  `yaml:"snapshot"`
	Log        LogConfig `yaml:"log"`
}

// Server holds the dev server parameters.
type Server struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
	Root    string `yaml:"root"`
}

// Session holds the capture and render loop parameters.
type Session struct {
	// Width and Height are requested from the camera and used when the stream
	// does not report its native resolution.
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	Interval   time.Duration `yaml:"interval"`
	Workers    int           `yaml:"workers"`
	BlurRadius uint32        `yaml:"blur_radius"`
	Triangles  int           `yaml:"triangles"`
	// Preset names the preset the sliders start from; empty uses Thresholds.
	Preset string `yaml:"preset"`
}

// Levels are the initial slider positions, named after the controls.
type Levels struct {
	RMin int `yaml:"rmin"`
	RMax int `yaml:"rmax"`
	GMin int `yaml:"gmin"`
	GMax int `yaml:"gmax"`
	BMin int `yaml:"bmin"`
	BMax int `yaml:"bmax"`
}

// Preset is a named key color.
type Preset struct {
	Name      string `yaml:"name"`
	Key       string `yaml:"key"`
	Tolerance uint8  `yaml:"tolerance"`
}

// Snapshot holds the photo export parameters.
type Snapshot struct {
	Quality    int `yaml:"quality"`
	ThumbWidth int `yaml:"thumb_width"`
}

// LogConfig selects the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Address: "localhost:5000",
			Prefix:  "/",
			Root:    ".",
		},
		Session: Session{
			Width:      640,
			Height:     480,
			Interval:   16 * time.Millisecond,
			Workers:    4,
			BlurRadius: 20,
			Triangles:  450,
		},
		Thresholds: Levels{RMin: 0, RMax: 100, GMin: 0, GMax: 255, BMin: 0, BMax: 100},
		Presets: []Preset{
			{Name: "green", Key: "#00b140", Tolerance: 60},
			{Name: "blue", Key: "#0047bb", Tolerance: 60},
		},
		Snapshot: Snapshot{Quality: 92, ThumbWidth: 160},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads the configuration file at path on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML data on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values which would break the render loop.
func (c *Config) Validate() error {
	switch {
	case c.Session.Width <= 0 || c.Session.Height <= 0:
		return fmt.Errorf("%w: session size %dx%d", ErrInvalid, c.Session.Width, c.Session.Height)
	case c.Session.Interval <= 0:
		return fmt.Errorf("%w: session interval %v", ErrInvalid, c.Session.Interval)
	case c.Session.Workers < 1:
		return fmt.Errorf("%w: %d workers", ErrInvalid, c.Session.Workers)
	case c.Snapshot.Quality < 1 || c.Snapshot.Quality > 100:
		return fmt.Errorf("%w: jpeg quality %d", ErrInvalid, c.Snapshot.Quality)
	case c.Server.Address == "":
		return fmt.Errorf("%w: empty server address", ErrInvalid)
	}
	for _, l := range []int{c.Thresholds.RMin, c.Thresholds.RMax, c.Thresholds.GMin, c.Thresholds.GMax, c.Thresholds.BMin, c.Thresholds.BMax} {
		if l < 0 || l > 255 {
			return fmt.Errorf("%w: threshold %d out of range", ErrInvalid, l)
		}
	}
	seen := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("%w: preset name %q empty or duplicated", ErrInvalid, p.Name)
		}
		seen[p.Name] = true
		if _, err := chromakey.FromHex(p.Key, p.Tolerance); err != nil {
			return fmt.Errorf("%w: preset %s: %v", ErrInvalid, p.Name, err)
		}
	}
	if name := c.Session.Preset; name != "" && !seen[name] {
		return fmt.Errorf("%w: unknown startup preset %q", ErrInvalid, name)
	}
	return nil
}

// Controls returns the initial slider values keyed by control name.
func (l Levels) Controls() map[string]int {
	return map[string]int{
		"rmin": l.RMin, "rmax": l.RMax,
		"gmin": l.GMin, "gmax": l.GMax,
		"bmin": l.BMin, "bmax": l.BMax,
	}
}

// Levels converts a preset into slider positions.
func (p Preset) Levels() (Levels, error) {
	t, err := chromakey.FromHex(p.Key, p.Tolerance)
	if err != nil {
		return Levels{}, err
	}
	return Levels{
		RMin: int(t.Red.Min), RMax: int(t.Red.Max),
		GMin: int(t.Green.Min), GMax: int(t.Green.Max),
		BMin: int(t.Blue.Min), BMax: int(t.Blue.Max),
	}, nil
}

// Preset returns the preset with the given name.
func (c *Config) Preset(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// InitialLevels returns the slider positions to start from: the startup
// preset when one is named, the configured thresholds otherwise.
func (c *Config) InitialLevels() (Levels, error) {
	if c.Session.Preset == "" {
		return c.Thresholds, nil
	}
	p, ok := c.Preset(c.Session.Preset)
	if !ok {
		return Levels{}, fmt.Errorf("%w: unknown startup preset %q", ErrInvalid, c.Session.Preset)
	}
	return p.Levels()
}
