package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/user/vadecode/pkg/video"
)

func TestParseChange(t *testing.T) {
	ch, err := parseChange("640x480@10")
	if err != nil {
		t.Fatalf("parseChange: %v", err)
	}
	if ch.Size != video.NewResolution(640, 480) || ch.At != 10 {
		t.Errorf("unexpected change %+v", ch)
	}

	for _, bad := range []string{"640x480", "640x480@0", "640x480@x", "wide@3"} {
		if _, err := parseChange(bad); !errors.Is(err, errBadChange) {
			t.Errorf("parseChange(%q): expected errBadChange, got %v", bad, err)
		}
	}
}

func TestBuildSegments(t *testing.T) {
	changes := []change{
		{Size: video.NewResolution(640, 480), At: 10},
		{Size: video.NewResolution(320, 240), At: 25},
	}
	segments, err := buildSegments(video.ProfileH264Main, video.ClassYUV420, video.NewResolution(320, 240), 4, 30, changes)
	if err != nil {
		t.Fatalf("buildSegments: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	wantFrames := []int{10, 15, 5}
	wantSize := []video.Resolution{video.NewResolution(320, 240), video.NewResolution(640, 480), video.NewResolution(320, 240)}
	for i, seg := range segments {
		if seg.Frames != wantFrames[i] {
			t.Errorf("segment %d: expected %d frames, got %d", i, wantFrames[i], seg.Frames)
		}
		if got := seg.Params.CodedSize(); got != wantSize[i] {
			t.Errorf("segment %d: expected %s, got %s", i, wantSize[i], got)
		}
		if seg.Params.MinNumSurfaces() != 4 {
			t.Errorf("segment %d: expected 4 minimum surfaces", i)
		}
	}
}

func TestBuildSegments_Invalid(t *testing.T) {
	size := video.NewResolution(320, 240)
	cases := map[string][]change{
		"out of order": {{Size: size, At: 8}, {Size: size, At: 4}},
		"past the end": {{Size: size, At: 10}},
		"at the start": {{Size: size, At: 0}},
	}
	for name, changes := range cases {
		if _, err := buildSegments(video.ProfileH264Main, video.ClassYUV420, size, 4, 10, changes); !errors.Is(err, errBadChange) {
			t.Errorf("%s: expected errBadChange, got %v", name, err)
		}
	}
	if _, err := buildSegments(video.ProfileH264Main, video.ClassYUV420, size, 4, 0, nil); err == nil {
		t.Error("expected error for zero frames")
	}
}

func TestClassFor(t *testing.T) {
	class, err := classFor("422", 10)
	if err != nil {
		t.Fatalf("classFor: %v", err)
	}
	if class != video.ClassYUV422_10 {
		t.Errorf("expected %s, got %s", video.ClassYUV422_10, class)
	}
	if _, err := classFor("411", 8); err == nil {
		t.Error("expected error for unknown chroma format")
	}
}

var md5Line = regexp.MustCompile(`(?m)^[0-9a-f]{32}  stream$`)

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	if err := app.Run(append([]string{"vadecode"}, args...)); err != nil {
		t.Fatalf("vadecode %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestSynth_StreamMD5Deterministic(t *testing.T) {
	args := []string{"--quiet", "synth", "--frames", "6", "--change", "640x480@3", "--md5", "stream", "--latency", "0"}

	first := runApp(t, args...)
	second := runApp(t, append(args, "--blocking")...)

	a := md5Line.FindString(first)
	b := md5Line.FindString(second)
	if a == "" {
		t.Fatalf("no stream checksum in output:\n%s", first)
	}
	if a != b {
		t.Errorf("blocking and non-blocking checksums differ: %s vs %s", a, b)
	}
}

func TestSynth_WritesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yuv")
	runApp(t, "--quiet", "synth", "--frames", "3", "--size", "64x32", "--format", "i420", "--output", path, "--latency", "0")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := 3 * video.FrameSize(video.FormatI420, 64, 32); len(data) != want {
		t.Errorf("expected %d bytes, got %d", want, len(data))
	}
}

func TestProbe(t *testing.T) {
	out := runApp(t, "--quiet", "probe")
	for _, want := range []string{"H264Main", "NV12", "simulated device"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in probe output:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	if out := runApp(t, "version"); !strings.Contains(out, "vadecode "+version) {
		t.Errorf("unexpected version output %q", out)
	}
}
