package player

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user/vadecode/pkg/adapters/simdevice"
	"github.com/user/vadecode/pkg/backend"
	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

func segment(w, h, frames int) Segment {
	return Segment{
		Params: video.Descriptor{
			StreamProfile: video.ProfileH264High,
			Class:         video.ClassYUV420,
			Coded:         video.NewResolution(w, h),
			Visible:       image.Rect(0, 0, w, h),
			MinSurfaces:   3,
		},
		Frames: frames,
	}
}

func newPlayer(t *testing.T, opts simdevice.Options, cfg Config) (*Player, *backend.Backend, *mocks.FrameSink) {
	t.Helper()
	dev := simdevice.New(opts, mocks.NewLogger())
	b := backend.New(dev, backend.Options{SupportsContextReuse: true}, mocks.NewLogger())
	sink := mocks.NewFrameSink(true)
	t.Cleanup(func() {
		b.Close()
		dev.Close()
	})
	return New(b, sink, cfg, mocks.NewLogger()), b, sink
}

func assertPoolIdle(t *testing.T, b *backend.Backend) {
	t.Helper()
	pool := b.FramePool()
	if pool.NumFree() != pool.NumManaged() {
		t.Errorf("expected every surface back in the pool, %d of %d free", pool.NumFree(), pool.NumManaged())
	}
}

func TestPlayer_BlockingWithResolutionChange(t *testing.T) {
	p, b, sink := newPlayer(t, simdevice.Options{}, Config{Blocking: true, ExtraSurfaces: 1})

	result, err := p.Run(context.Background(), []Segment{segment(320, 240, 5), segment(640, 480, 4)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Sequences != 2 || result.Frames != 9 {
		t.Errorf("unexpected result %+v", result)
	}
	for i, ts := range sink.Timestamps() {
		if ts != uint64(i) {
			t.Fatalf("expected frames in submission order, got %v", sink.Timestamps())
		}
	}
	if sink.Frames[0].Size != video.NewResolution(320, 240) || sink.Frames[8].Size != video.NewResolution(640, 480) {
		t.Errorf("unexpected frame sizes %s and %s", sink.Frames[0].Size, sink.Frames[8].Size)
	}
	if len(sink.Frames[8].Data) != video.FrameSize(video.FormatNV12, 640, 480) {
		t.Errorf("unexpected frame length %d", len(sink.Frames[8].Data))
	}
	assertPoolIdle(t, b)
}

func TestPlayer_NonBlockingKeepsOrder(t *testing.T) {
	p, b, sink := newPlayer(t, simdevice.Options{Latency: time.Millisecond}, Config{GOP: 4})

	result, err := p.Run(context.Background(), []Segment{segment(64, 64, 12)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Frames != 12 {
		t.Fatalf("expected 12 frames, got %d", result.Frames)
	}
	for i, ts := range sink.Timestamps() {
		if ts != uint64(i) {
			t.Fatalf("expected frames in submission order, got %v", sink.Timestamps())
		}
	}
	if b.FramePool().NumManaged() != 3 {
		t.Errorf("expected the pool to stay at the minimum, got %d", b.FramePool().NumManaged())
	}
	assertPoolIdle(t, b)
}

func TestPlayer_MD5(t *testing.T) {
	run := func(mode MD5Mode) Result {
		p, _, _ := newPlayer(t, simdevice.Options{}, Config{Blocking: true, MD5: mode})
		result, err := p.Run(context.Background(), []Segment{segment(48, 32, 3)})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return result
	}

	first, second := run(MD5Stream), run(MD5Stream)
	if first.StreamMD5 == "" || first.StreamMD5 != second.StreamMD5 {
		t.Errorf("expected a deterministic stream checksum, got %q and %q", first.StreamMD5, second.StreamMD5)
	}
	if len(first.FrameMD5) != 0 {
		t.Error("expected no frame checksums in stream mode")
	}

	frames := run(MD5Frame)
	if len(frames.FrameMD5) != 3 || frames.StreamMD5 != "" {
		t.Fatalf("unexpected frame checksums %+v", frames)
	}
	if frames.FrameMD5[0] == frames.FrameMD5[1] {
		t.Error("expected different pictures to have different checksums")
	}
}

func TestPlayer_OutputFormat(t *testing.T) {
	format := video.FormatI420
	p, _, sink := newPlayer(t, simdevice.Options{}, Config{Blocking: true, Format: &format})

	if _, err := p.Run(context.Background(), []Segment{segment(32, 32, 2)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, f := range sink.Frames {
		if f.Format != video.FormatI420 {
			t.Errorf("expected i420 frames, got %s", f.Format)
		}
	}

	unsupported := video.FormatI012
	p, _, _ = newPlayer(t, simdevice.Options{}, Config{Blocking: true, Format: &unsupported})
	if _, err := p.Run(context.Background(), []Segment{segment(32, 32, 2)}); !errors.Is(err, backend.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPlayer_SinkErrorReleasesPictures(t *testing.T) {
	p, b, sink := newPlayer(t, simdevice.Options{Latency: time.Millisecond}, Config{ExtraSurfaces: 2})
	failure := errors.New("disk full")
	sink.WriteFrameFunc = func(f ports.Frame) error {
		if f.Index == 2 {
			return failure
		}
		return nil
	}

	result, err := p.Run(context.Background(), []Segment{segment(64, 64, 10)})
	if !errors.Is(err, failure) {
		t.Fatalf("expected the sink error, got %v", err)
	}
	if result.Frames != 2 {
		t.Errorf("expected 2 frames before the failure, got %d", result.Frames)
	}
	assertPoolIdle(t, b)
}

func TestPlayer_Cancelled(t *testing.T) {
	p, b, _ := newPlayer(t, simdevice.Options{}, Config{Blocking: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Run(ctx, []Segment{segment(64, 64, 3)}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	assertPoolIdle(t, b)
}

func TestParseMD5Mode(t *testing.T) {
	for _, mode := range []MD5Mode{MD5None, MD5Frame, MD5Stream} {
		got, err := ParseMD5Mode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseMD5Mode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseMD5Mode("sha1"); err == nil {
		t.Error("expected error for sha1")
	}
}

func TestSyntheticBuffers(t *testing.T) {
	if string(SliceData(0, 1)) == string(SliceData(0, 2)) {
		t.Error("expected distinct slice data per frame")
	}
	if PictureParameters(1, 0, true)[8] != 1 || PictureParameters(1, 1, false)[8] != 0 {
		t.Error("expected the keyframe flag in the last byte")
	}
}
