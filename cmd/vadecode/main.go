// Package main provides the CLI entry point for vadecode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vadecode/pkg/adapters/filesink"
	"github.com/user/vadecode/pkg/adapters/logger"
	"github.com/user/vadecode/pkg/adapters/nullsink"
	"github.com/user/vadecode/pkg/adapters/osfilesystem"
	"github.com/user/vadecode/pkg/adapters/simdevice"
	"github.com/user/vadecode/pkg/adapters/vaapi"
	"github.com/user/vadecode/pkg/config"
	"github.com/user/vadecode/pkg/player"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

var version = "dev"

// Flag categories
const (
	categoryDevice  = "Device"
	categoryDecode  = "Decoding"
	categoryOutput  = "Output"
	categoryLogging = "Logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "vadecode",
		Usage:   l10n.T("Hardware accelerated video decoding tools"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(categoryLogging)},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(categoryLogging)},
		},
		Commands: []*cli.Command{
			probeCommand(),
			spsCommand(),
			synthCommand(),
			versionCommand(),
		},
	}
}

func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "driver", Aliases: []string{"d"}, Usage: l10n.T("Device driver (sim, vaapi)"), Category: l10n.T(categoryDevice)},
		&cli.StringFlag{Name: "device", Usage: l10n.T("DRM render node for the vaapi driver"), Category: l10n.T(categoryDevice)},
		&cli.IntFlag{Name: "latency", Usage: l10n.T("Simulated completion latency in milliseconds"), Category: l10n.T(categoryDevice)},
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: l10n.T("Output format (nv12, i420, i010, ...)"), Category: l10n.T(categoryDecode)},
		&cli.BoolFlag{Name: "blocking", Usage: l10n.T("Wait for every picture right after submission"), Category: l10n.T(categoryDecode)},
		&cli.IntFlag{Name: "extra-surfaces", Usage: l10n.T("Surfaces to allocate beyond the stream minimum"), Category: l10n.T(categoryDecode)},
		&cli.IntFlag{Name: "gop", Value: 30, Usage: l10n.T("Distance between pictures without references"), Category: l10n.T(categoryDecode)},
		&cli.BoolFlag{Name: "no-context-reuse", Usage: l10n.T("Create a new context on every resolution change"), Category: l10n.T(categoryDecode)},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Raw output file"), Category: l10n.T(categoryOutput)},
		&cli.BoolFlag{Name: "multiple", Usage: l10n.T("Write each frame to its own file"), Category: l10n.T(categoryOutput)},
		&cli.StringFlag{Name: "md5", Value: "none", Usage: l10n.T("Print checksums (none, frame, stream)"), Category: l10n.T(categoryOutput)},
		&cli.StringFlag{Name: "preview-dir", Usage: l10n.T("Directory for BMP previews"), Category: l10n.T(categoryOutput)},
		&cli.IntFlag{Name: "preview-width", Usage: l10n.T("Preview width in pixels"), Category: l10n.T(categoryOutput)},
	}
}

// loadConfig reads the configuration file, if any, and applies command line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("driver") {
		cfg.Device.Driver = c.String("driver")
	}
	if c.IsSet("device") {
		cfg.Device.Path = c.String("device")
	}
	if c.IsSet("latency") {
		cfg.Device.LatencyMs = c.Int("latency")
	}
	if c.IsSet("format") {
		cfg.Decode.Format = c.String("format")
	}
	if c.IsSet("blocking") {
		cfg.Decode.Blocking = c.Bool("blocking")
	}
	if c.IsSet("extra-surfaces") {
		cfg.Decode.ExtraSurfaces = c.Int("extra-surfaces")
	}
	if c.Bool("no-context-reuse") {
		cfg.Decode.ContextReuse = false
	}
	if c.IsSet("output") {
		cfg.Output.Path = c.String("output")
	}
	if c.IsSet("multiple") {
		cfg.Output.Multiple = c.Bool("multiple")
	}
	if c.IsSet("preview-dir") {
		cfg.Output.PreviewDir = c.String("preview-dir")
	}
	if c.IsSet("preview-width") {
		cfg.Output.PreviewWidth = c.Int("preview-width")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

func openDevice(cfg config.Config, log ports.Logger) (ports.Device, error) {
	if cfg.Device.Driver == config.DriverVAAPI {
		dev, err := vaapi.Open(cfg.Device.Path, log)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
	return simdevice.New(cfg.ToSimOptions(), log), nil
}

func newSink(cfg config.Config, log ports.Logger) ports.FrameSink {
	opts := cfg.ToSinkOptions()
	if opts.Path == "" && opts.PreviewDir == "" {
		return nullsink.New()
	}
	return filesink.New(osfilesystem.New(), opts, log)
}

// classFor resolves --chroma and --bit-depth.
func classFor(chroma string, bitDepth int) (video.FormatClass, error) {
	idc := map[string]int{"420": 1, "422": 2, "444": 3}[chroma]
	if idc == 0 {
		return 0, fmt.Errorf("unknown chroma format %q", chroma)
	}
	return video.ClassFor(idc, bitDepth)
}

// playerConfig builds the playback settings. --md5 wins over output.md5 in the config file.
func playerConfig(c *cli.Context, cfg config.Config) (player.Config, error) {
	pc := player.Config{
		Blocking:      cfg.Decode.Blocking,
		ExtraSurfaces: cfg.Decode.ExtraSurfaces,
		GOP:           c.Int("gop"),
	}
	if f, ok := cfg.OutputFormat(); ok {
		pc.Format = &f
	}
	switch {
	case c.IsSet("md5"):
		mode, err := player.ParseMD5Mode(c.String("md5"))
		if err != nil {
			return pc, err
		}
		pc.MD5 = mode
	case cfg.Output.MD5:
		pc.MD5 = player.MD5Stream
	}
	return pc, nil
}
