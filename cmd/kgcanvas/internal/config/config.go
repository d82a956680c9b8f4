package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/mindmap"
	"github.com/recera/kgcanvas/pkg/scene"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "kgcanvas.yaml"

// Config represents the kgcanvas.yaml configuration
type Config struct {
	// Canvas configuration
	Canvas *CanvasConfig `yaml:"canvas,omitempty"`

	// Mind-map viewer configuration
	MindMap *MindMapConfig `yaml:"mindmap,omitempty"`

	// Layout configuration
	Layout *LayoutConfig `yaml:"layout,omitempty"`

	// Live server configuration
	Serve *ServeConfig `yaml:"serve,omitempty"`

	// Logging configuration
	Log *LogConfig `yaml:"log,omitempty"`

	// Path to a YAML seed graph. Empty loads the built-in demo graph.
	Seed string `yaml:"seed,omitempty"`
}

// CanvasConfig holds the constants of the graph canvas
type CanvasConfig struct {
	MinScale         float64 `yaml:"minScale" validate:"gt=0"`
	MaxScale         float64 `yaml:"maxScale" validate:"gtefield=MinScale"`
	WheelStep        float64 `yaml:"wheelStep" validate:"gt=0,lte=1"`
	ChildDistanceMin float64 `yaml:"childDistanceMin" validate:"gt=0"`
	ChildDistanceMax float64 `yaml:"childDistanceMax" validate:"gtefield=ChildDistanceMin"`
	HitTolerance     float64 `yaml:"hitTolerance" validate:"gte=0"`
}

// MindMapConfig holds the constants of the mind-map viewer
type MindMapConfig struct {
	MinScale   float64 `yaml:"minScale" validate:"gt=0"`
	MaxScale   float64 `yaml:"maxScale" validate:"gtefield=MinScale"`
	WheelStep  float64 `yaml:"wheelStep" validate:"gt=0,lte=1"`
	ButtonStep float64 `yaml:"buttonStep" validate:"gt=0,lte=1"`
}

// LayoutConfig shapes the layout strategies
type LayoutConfig struct {
	// Mode the canvas starts in
	Mode        string     `yaml:"mode" validate:"oneof=force cluster hierarchy"`
	Anchor      geom.Point `yaml:"anchor"`
	Columns     int        `yaml:"columns" validate:"gte=1"`
	ColumnWidth float64    `yaml:"columnWidth" validate:"gt=0"`
	RowHeight   float64    `yaml:"rowHeight" validate:"gt=0"`
	RingRadius  float64    `yaml:"ringRadius" validate:"gt=0"`
	// Relaxation passes after the force reset
	Iterations int `yaml:"iterations" validate:"gte=0,lte=10000"`
}

// ServeConfig contains live server configuration
type ServeConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=1,lte=65535"`

	// Path prefix the live endpoint is mounted under
	LivePath string `yaml:"livePath" validate:"startswith=/"`

	// Path of the Prometheus endpoint
	MetricsPath string `yaml:"metricsPath" validate:"startswith=/"`

	// How long a detached canvas waits for a reconnect
	IdleTimeout time.Duration `yaml:"idleTimeout" validate:"gt=0"`

	// Whether to reload sessions when the seed file changes
	Watch bool `yaml:"watch"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Load loads configuration from kgcanvas.yaml in dir
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, FileName)

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save saves configuration to kgcanvas.yaml in dir
func Save(config *Config, dir string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	lo := layout.DefaultOptions()
	return &Config{
		Canvas: &CanvasConfig{
			MinScale:         geom.GraphLimits.Min,
			MaxScale:         geom.GraphLimits.Max,
			WheelStep:        0.1,
			ChildDistanceMin: 100,
			ChildDistanceMax: 150,
			HitTolerance:     5,
		},
		MindMap: &MindMapConfig{
			MinScale:   geom.MindMapLimits.Min,
			MaxScale:   geom.MindMapLimits.Max,
			WheelStep:  0.1,
			ButtonStep: 0.2,
		},
		Layout: &LayoutConfig{
			Mode:        string(layout.Force),
			Anchor:      lo.Anchor,
			Columns:     lo.Columns,
			ColumnWidth: lo.ColumnWidth,
			RowHeight:   lo.RowHeight,
			RingRadius:  lo.RingRadius,
		},
		Serve: &ServeConfig{
			Host:        "localhost",
			Port:        8080,
			LivePath:    "/",
			MetricsPath: "/metrics",
			IdleTimeout: 5 * time.Minute,
		},
		Log: &LogConfig{
			Level: "info",
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Canvas == nil {
		config.Canvas = defaults.Canvas
	} else {
		c, d := config.Canvas, defaults.Canvas
		if c.MinScale == 0 && c.MaxScale == 0 {
			c.MinScale, c.MaxScale = d.MinScale, d.MaxScale
		}
		if c.WheelStep == 0 {
			c.WheelStep = d.WheelStep
		}
		if c.ChildDistanceMin == 0 && c.ChildDistanceMax == 0 {
			c.ChildDistanceMin, c.ChildDistanceMax = d.ChildDistanceMin, d.ChildDistanceMax
		}
		if c.HitTolerance == 0 {
			c.HitTolerance = d.HitTolerance
		}
	}

	if config.MindMap == nil {
		config.MindMap = defaults.MindMap
	} else {
		m, d := config.MindMap, defaults.MindMap
		if m.MinScale == 0 && m.MaxScale == 0 {
			m.MinScale, m.MaxScale = d.MinScale, d.MaxScale
		}
		if m.WheelStep == 0 {
			m.WheelStep = d.WheelStep
		}
		if m.ButtonStep == 0 {
			m.ButtonStep = d.ButtonStep
		}
	}

	if config.Layout == nil {
		config.Layout = defaults.Layout
	} else {
		l, d := config.Layout, defaults.Layout
		if l.Mode == "" {
			l.Mode = d.Mode
		}
		l.Mode = strings.ToLower(l.Mode)
		if l.Anchor == (geom.Point{}) {
			l.Anchor = d.Anchor
		}
		if l.Columns == 0 {
			l.Columns = d.Columns
		}
		if l.ColumnWidth == 0 {
			l.ColumnWidth = d.ColumnWidth
		}
		if l.RowHeight == 0 {
			l.RowHeight = d.RowHeight
		}
		if l.RingRadius == 0 {
			l.RingRadius = d.RingRadius
		}
	}

	if config.Serve == nil {
		config.Serve = defaults.Serve
	} else {
		s, d := config.Serve, defaults.Serve
		if s.Host == "" {
			s.Host = d.Host
		}
		if s.Port == 0 {
			s.Port = d.Port
		}
		if s.LivePath == "" {
			s.LivePath = d.LivePath
		}
		if s.MetricsPath == "" {
			s.MetricsPath = d.MetricsPath
		}
		if s.IdleTimeout == 0 {
			s.IdleTimeout = d.IdleTimeout
		}
	}

	if config.Log == nil {
		config.Log = defaults.Log
	} else if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

// Interact returns the engine constants.
func (c *Config) Interact() interact.Config {
	cfg := interact.DefaultConfig()
	if cv := c.Canvas; cv != nil {
		cfg.Limits = geom.Limits{Min: cv.MinScale, Max: cv.MaxScale}
		cfg.WheelZoomStep = cv.WheelStep
		cfg.ChildDistanceMin = cv.ChildDistanceMin
		cfg.ChildDistanceMax = cv.ChildDistanceMax
		cfg.HitTolerance = cv.HitTolerance
	}
	cfg.Layout = c.LayoutOptions()
	return cfg
}

// LayoutOptions returns the strategy options.
func (c *Config) LayoutOptions() layout.Options {
	opts := layout.DefaultOptions()
	if l := c.Layout; l != nil {
		opts.Anchor = l.Anchor
		opts.Columns = l.Columns
		opts.ColumnWidth = l.ColumnWidth
		opts.RowHeight = l.RowHeight
		opts.RingRadius = l.RingRadius
		opts.Iterations = l.Iterations
	}
	return opts
}

// LayoutMode returns the starting layout mode.
func (c *Config) LayoutMode() layout.Mode {
	if c.Layout == nil {
		return layout.Force
	}
	m, err := layout.ParseMode(c.Layout.Mode)
	if err != nil {
		return layout.Force
	}
	return m
}

// MindMapOptions returns the viewer options.
func (c *Config) MindMapOptions() mindmap.Options {
	opts := mindmap.DefaultOptions()
	if m := c.MindMap; m != nil {
		opts.Limits = geom.Limits{Min: m.MinScale, Max: m.MaxScale}
		opts.WheelStep = m.WheelStep
		opts.ButtonStep = m.ButtonStep
	}
	return opts
}

// LoadScene builds a fresh scene from the configured seed.
func (c *Config) LoadScene() (*scene.Scene, error) {
	if c.Seed == "" {
		return scene.DemoSeed().Build()
	}
	return scene.LoadSeed(c.Seed)
}
