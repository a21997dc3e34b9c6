// Package config loads vadecode settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/vadecode/pkg/adapters/filesink"
	"github.com/user/vadecode/pkg/adapters/simdevice"
	"github.com/user/vadecode/pkg/backend"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// Device drivers.
const (
	DriverSim   = "sim"
	DriverVAAPI = "vaapi"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the full configuration for vadecode.
type Config struct {
	Device   DeviceConfig `yaml:"device"`
	Decode   DecodeConfig `yaml:"decode"`
	Output   OutputConfig `yaml:"output"`
	LogLevel string       `yaml:"log_level"`
}

// DeviceConfig selects and tunes the acceleration device.
type DeviceConfig struct {
	// Driver is "sim" or "vaapi".
	Driver string `yaml:"driver"`
	// Path is the DRM render node used by the vaapi driver.
	Path string `yaml:"path"`
	// LatencyMs is the simulated completion latency.
	LatencyMs int `yaml:"latency_ms"`
}

// DecodeConfig controls negotiation and playback.
type DecodeConfig struct {
	// Format requests an output format (nv12, i420, ...). Empty keeps the negotiated default.
	Format        string `yaml:"format"`
	Blocking      bool   `yaml:"blocking"`
	ExtraSurfaces int    `yaml:"extra_surfaces"`
	ContextReuse  bool   `yaml:"context_reuse"`
}

// OutputConfig describes where decoded frames go.
type OutputConfig struct {
	Path         string `yaml:"path"`
	Multiple     bool   `yaml:"multiple"`
	MD5          bool   `yaml:"md5"`
	PreviewDir   string `yaml:"preview_dir"`
	PreviewWidth int    `yaml:"preview_width"`
	Caption      bool   `yaml:"caption"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Device: DeviceConfig{
			Driver:    DriverSim,
			Path:      "/dev/dri/renderD128",
			LatencyMs: 2,
		},
		Decode: DecodeConfig{
			Blocking:      true,
			ExtraSurfaces: 4,
			ContextReuse:  true,
		},
		Output: OutputConfig{
			PreviewWidth: 320,
			Caption:      true,
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(data)
}

// Parse decodes YAML on top of Defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	switch c.Device.Driver {
	case DriverSim, DriverVAAPI:
	default:
		return fmt.Errorf("%w: unknown device driver %q", ErrInvalid, c.Device.Driver)
	}
	if c.Device.LatencyMs < 0 {
		return fmt.Errorf("%w: negative latency %d", ErrInvalid, c.Device.LatencyMs)
	}
	if c.Decode.Format != "" {
		if _, err := video.ParseDecodedFormat(c.Decode.Format); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if c.Decode.ExtraSurfaces < 0 {
		return fmt.Errorf("%w: negative extra surfaces %d", ErrInvalid, c.Decode.ExtraSurfaces)
	}
	if c.Output.PreviewWidth < 0 {
		return fmt.Errorf("%w: negative preview width %d", ErrInvalid, c.Output.PreviewWidth)
	}
	if c.Output.Multiple && c.Output.Path == "" {
		return fmt.Errorf("%w: multiple output files need an output path", ErrInvalid)
	}
	if ports.ParseLogLevel(c.LogLevel).String() != c.LogLevel {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// OutputFormat returns the requested output format, if any.
func (c Config) OutputFormat() (video.DecodedFormat, bool) {
	if c.Decode.Format == "" {
		return 0, false
	}
	f, err := video.ParseDecodedFormat(c.Decode.Format)
	return f, err == nil
}

// ToBackendOptions converts the decode section to backend.Options.
func (c Config) ToBackendOptions() backend.Options {
	return backend.Options{SupportsContextReuse: c.Decode.ContextReuse}
}

// ToSimOptions converts the device section to simdevice.Options.
func (c Config) ToSimOptions() simdevice.Options {
	return simdevice.Options{Latency: time.Duration(c.Device.LatencyMs) * time.Millisecond}
}

// ToSinkOptions converts the output section to filesink.Options.
func (c Config) ToSinkOptions() filesink.Options {
	return filesink.Options{
		Path:         c.Output.Path,
		Multiple:     c.Output.Multiple,
		PreviewDir:   c.Output.PreviewDir,
		PreviewWidth: c.Output.PreviewWidth,
		Caption:      c.Output.Caption,
	}
}
