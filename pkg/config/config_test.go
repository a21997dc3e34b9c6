package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/vadecode/pkg/video"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Device.Driver != DriverSim {
		t.Errorf("expected sim driver, got %q", cfg.Device.Driver)
	}
	if !cfg.Decode.Blocking || !cfg.Decode.ContextReuse {
		t.Errorf("expected blocking playback with context reuse, got %+v", cfg.Decode)
	}
	if _, ok := cfg.OutputFormat(); ok {
		t.Error("expected no output format by default")
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
device:
  driver: vaapi
  path: /dev/dri/renderD129
decode:
  format: I210
  blocking: false
output:
  path: out.yuv
  multiple: true
log_level: debug
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Device.Driver != DriverVAAPI || cfg.Device.Path != "/dev/dri/renderD129" {
		t.Errorf("unexpected device %+v", cfg.Device)
	}
	if cfg.Device.LatencyMs != 2 {
		t.Errorf("expected default latency kept, got %d", cfg.Device.LatencyMs)
	}
	if cfg.Decode.Blocking {
		t.Error("expected non-blocking playback")
	}
	if cfg.Decode.ExtraSurfaces != 4 {
		t.Errorf("expected default extra surfaces kept, got %d", cfg.Decode.ExtraSurfaces)
	}
	if f, ok := cfg.OutputFormat(); !ok || f != video.FormatI210 {
		t.Errorf("expected i210, got %v %v", f, ok)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "device: {driver: cuda}"},
		{"negative latency", "device: {latency_ms: -1}"},
		{"unknown format", "decode: {format: yuyv}"},
		{"negative surfaces", "decode: {extra_surfaces: -2}"},
		{"multiple without path", "output: {multiple: true}"},
		{"negative preview", "output: {preview_width: -5}"},
		{"unknown level", "log_level: verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("device: [unclosed"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("expected a YAML error, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vadecode.yaml")
	if err := os.WriteFile(path, []byte("decode:\n  format: i010\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if f, ok := cfg.OutputFormat(); !ok || f != video.FormatI010 {
		t.Errorf("expected i010, got %v %v", f, ok)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestConversions(t *testing.T) {
	cfg := Defaults()
	cfg.Device.LatencyMs = 5
	cfg.Decode.ContextReuse = false
	cfg.Output.Path = "out.yuv"
	cfg.Output.PreviewDir = "previews"

	if got := cfg.ToSimOptions().Latency; got != 5*time.Millisecond {
		t.Errorf("expected 5ms latency, got %s", got)
	}
	if cfg.ToBackendOptions().SupportsContextReuse {
		t.Error("expected context reuse disabled")
	}
	sink := cfg.ToSinkOptions()
	if sink.Path != "out.yuv" || sink.PreviewDir != "previews" || sink.PreviewWidth != 320 {
		t.Errorf("unexpected sink options %+v", sink)
	}
}
