package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vadecode/pkg/adapters/spsinfo"
	"github.com/user/vadecode/pkg/backend"
	"github.com/user/vadecode/pkg/config"
	"github.com/user/vadecode/pkg/player"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: l10n.T("List decode profiles and image formats of a device"),
		Flags: deviceFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log := newLogger(c, cfg)
			dev, err := openDevice(cfg, log)
			if err != nil {
				return err
			}
			defer dev.Close()
			return probe(c.App.Writer, dev)
		},
	}
}

func probe(w io.Writer, dev ports.Device) error {
	profiles, err := dev.Profiles()
	if err != nil {
		return err
	}
	formats, err := dev.QueryImageFormats()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %s\n", l10n.T("Vendor"), dev.Vendor())
	fmt.Fprintf(w, "%s:\n", l10n.T("Profiles"))
	for _, p := range profiles {
		mask, err := dev.SupportedFormatClasses(p)
		if err != nil {
			fmt.Fprintf(w, "  %-24s %v\n", p, err)
			continue
		}
		var classes []string
		for _, class := range video.AllClasses {
			if mask.Has(class) {
				classes = append(classes, class.String())
			}
		}
		fmt.Fprintf(w, "  %-24s %s\n", p, strings.Join(classes, " "))
	}
	fourccs := make([]string, len(formats))
	for i, f := range formats {
		fourccs[i] = f.Fourcc.String()
	}
	fmt.Fprintf(w, "%s: %s\n", l10n.T("Image formats"), strings.Join(fourccs, " "))
	return nil
}

func spsCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "codec", Value: "h264", Usage: l10n.T("Annex B stream codec (h264, hevc)")},
		&cli.IntFlag{Name: "frames", Usage: l10n.T("Decode this many synthetic pictures with the parsed parameters")},
	}
	flags = append(flags, deviceFlags()...)
	flags = append(flags, decodeFlags()...)
	flags = append(flags, outputFlags()...)

	return &cli.Command{
		Name:      "sps",
		Usage:     l10n.T("Parse the sequence parameter set of an Annex B stream or MP4 file"),
		ArgsUsage: "FILE",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("Exactly one input file is required"), 2)
			}
			codec, err := spsinfo.ParseCodec(c.String("codec"))
			if err != nil {
				return err
			}
			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return err
			}
			info, err := spsinfo.FromBytes(codec, data)
			if err != nil {
				return err
			}
			printInfo(c.App.Writer, info)

			if c.Int("frames") <= 0 {
				return nil
			}
			return play(c, []player.Segment{{Params: info, Frames: c.Int("frames")}})
		},
	}
}

func printInfo(w io.Writer, info *spsinfo.Info) {
	fmt.Fprintf(w, "%s: %s\n", l10n.T("Codec"), info.Codec)
	fmt.Fprintf(w, "%s: %s (profile_idc %d, level %d)\n", l10n.T("Profile"), info.StreamProfile, info.ProfileIDC, info.Level)
	fmt.Fprintf(w, "%s: %s\n", l10n.T("Format class"), info.Class)
	fmt.Fprintf(w, "%s: %s\n", l10n.T("Coded size"), info.Coded)
	fmt.Fprintf(w, "%s: %v\n", l10n.T("Visible"), info.Visible)
	fmt.Fprintf(w, "%s: %d\n", l10n.T("Minimum surfaces"), info.MinSurfaces)
}

func synthCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Value: video.ProfileH264Main.String(), Usage: l10n.T("Stream profile")},
		&cli.StringFlag{Name: "size", Aliases: []string{"s"}, Value: "320x240", Usage: l10n.T("Initial coded size as WxH")},
		&cli.StringFlag{Name: "chroma", Value: "420", Usage: l10n.T("Chroma format (420, 422, 444)")},
		&cli.IntFlag{Name: "bit-depth", Value: 8, Usage: l10n.T("Bit depth (8, 10, 12)")},
		&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Value: 30, Usage: l10n.T("Number of pictures")},
		&cli.IntFlag{Name: "min-surfaces", Value: 4, Usage: l10n.T("Surfaces the stream keeps referenced")},
		&cli.StringSliceFlag{Name: "change", Usage: l10n.T("Switch to WxH at picture N, as WxH@N (repeatable)")},
	}
	flags = append(flags, deviceFlags()...)
	flags = append(flags, decodeFlags()...)
	flags = append(flags, outputFlags()...)

	return &cli.Command{
		Name:  "synth",
		Usage: l10n.T("Decode a synthetic stream, optionally changing resolution midway"),
		Flags: flags,
		Action: func(c *cli.Context) error {
			profile, err := video.ParseProfile(c.String("profile"))
			if err != nil {
				return err
			}
			class, err := classFor(c.String("chroma"), c.Int("bit-depth"))
			if err != nil {
				return err
			}
			size, err := video.ParseResolution(c.String("size"))
			if err != nil {
				return err
			}
			changes := make([]change, 0, len(c.StringSlice("change")))
			for _, s := range c.StringSlice("change") {
				ch, err := parseChange(s)
				if err != nil {
					return err
				}
				changes = append(changes, ch)
			}
			segments, err := buildSegments(profile, class, size, c.Int("min-surfaces"), c.Int("frames"), changes)
			if err != nil {
				return err
			}
			return play(c, segments)
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Print the version"),
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "vadecode %s\n", version)
			return nil
		},
	}
}

// change switches the coded size at a picture index.
type change struct {
	Size video.Resolution
	At   int
}

var errBadChange = errors.New("invalid resolution change")

// parseChange parses WxH@N.
func parseChange(s string) (change, error) {
	size, at, ok := strings.Cut(s, "@")
	if !ok {
		return change{}, fmt.Errorf("%w: %q", errBadChange, s)
	}
	res, err := video.ParseResolution(size)
	if err != nil {
		return change{}, fmt.Errorf("%w: %v", errBadChange, err)
	}
	n, err := strconv.Atoi(at)
	if err != nil || n <= 0 {
		return change{}, fmt.Errorf("%w: bad picture index in %q", errBadChange, s)
	}
	return change{Size: res, At: n}, nil
}

// buildSegments splits frames into one segment per coded size. Changes must be in
// increasing picture order and before the last picture.
func buildSegments(profile video.Profile, class video.FormatClass, size video.Resolution, minSurfaces, frames int, changes []change) ([]player.Segment, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("%w: no pictures to decode", errBadChange)
	}
	descriptor := func(res video.Resolution) video.Descriptor {
		return video.Descriptor{
			StreamProfile: profile,
			Class:         class,
			Coded:         res,
			Visible:       image.Rect(0, 0, int(res.Width), int(res.Height)),
			MinSurfaces:   minSurfaces,
		}
	}

	var segments []player.Segment
	start, current := 0, size
	for _, ch := range changes {
		if ch.At <= start || ch.At >= frames {
			return nil, fmt.Errorf("%w: picture %d out of order", errBadChange, ch.At)
		}
		segments = append(segments, player.Segment{Params: descriptor(current), Frames: ch.At - start})
		start, current = ch.At, ch.Size
	}
	return append(segments, player.Segment{Params: descriptor(current), Frames: frames - start}), nil
}

// play decodes segments on the configured device and reports the result.
func play(c *cli.Context, segments []player.Segment) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	pc, err := playerConfig(c, cfg)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	dev, err := openDevice(cfg, log)
	if err != nil {
		return err
	}
	defer dev.Close()

	b := backend.New(dev, cfg.ToBackendOptions(), log)
	defer b.Close()

	sink := newSink(cfg, log)
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			log.Error("Failed to write output: %s", cerr)
			err = errors.Join(err, cerr)
		}
	}()

	result, err := player.New(b, sink, pc, log).Run(c.Context, segments)
	if err != nil {
		if c.Context.Err() != nil {
			log.Warn("Interrupted, shutting down...")
		}
		return err
	}
	report(c.App.Writer, cfg, b, result)
	return nil
}

func report(w io.Writer, cfg config.Config, b *backend.Backend, result player.Result) {
	if info, ok := b.StreamInfo(); ok {
		fmt.Fprintf(w, "%s: %s %s\n", l10n.T("Output"), info.Format, info.DisplayResolution)
	}
	fmt.Fprintf(w, "%s: %d, %s: %d\n", l10n.T("Sequences"), result.Sequences, l10n.T("Frames"), result.Frames)
	for i, sum := range result.FrameMD5 {
		fmt.Fprintf(w, "%s  frame %d\n", sum, i)
	}
	if result.StreamMD5 != "" {
		fmt.Fprintf(w, "%s  stream\n", result.StreamMD5)
	}
	if cfg.Output.Path != "" {
		fmt.Fprintf(w, "%s: %s\n", l10n.T("Written to"), cfg.Output.Path)
	}
}
