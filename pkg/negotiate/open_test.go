package negotiate

import (
	"errors"
	"image"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/surfacepool"
	"github.com/user/vadecode/pkg/video"
)

func params(profile video.Profile, class video.FormatClass, w, h int) video.Descriptor {
	return video.Descriptor{
		StreamProfile: profile,
		Class:         class,
		Coded:         video.NewResolution(w, h),
		Visible:       image.Rect(0, 0, w, h),
		MinSurfaces:   4,
	}
}

func initialPool(dev ports.Device) *surfacepool.Pool {
	return surfacepool.New(dev, video.ClassYUV420, ports.UsageHintDecoder, video.NewResolution(16, 16), mocks.NewLogger())
}

func TestOpen_FirstSequence(t *testing.T) {
	dev := mocks.NewDevice()
	prevPool := initialPool(dev)

	state, pool, err := Open(dev, params(video.ProfileH264High, video.ClassYUV420, 1919, 1080), nil, State{}, prevPool, false, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	m, err := state.Parsed()
	if err != nil {
		t.Fatalf("expected parsed state: %v", err)
	}
	if m.StreamInfo.CodedResolution != video.NewResolution(1920, 1080) {
		t.Errorf("expected coded size rounded to even, got %s", m.StreamInfo.CodedResolution)
	}
	if m.StreamInfo.DisplayResolution != video.NewResolution(1919, 1080) {
		t.Errorf("unexpected display resolution %s", m.StreamInfo.DisplayResolution)
	}
	if m.FormatMap.Fourcc != video.FourccNV12 {
		t.Errorf("expected NV12 as default layout, got %s", m.FormatMap.Fourcc)
	}
	if m.StreamInfo.MinNumFrames != 4 {
		t.Errorf("expected 4 minimum frames, got %d", m.StreamInfo.MinNumFrames)
	}
	if pool == prevPool {
		t.Error("expected a fresh pool for a fresh session")
	}
	if pool.CodedResolution() != video.NewResolution(1920, 1080) {
		t.Errorf("unexpected pool resolution %s", pool.CodedResolution())
	}
	if len(dev.Configs) != 1 || len(dev.Contexts) != 1 {
		t.Errorf("expected 1 config and 1 context, got %d and %d", len(dev.Configs), len(dev.Contexts))
	}
}

func TestOpen_IdenticalParametersReuseSession(t *testing.T) {
	dev := mocks.NewDevice()
	p := params(video.ProfileHEVCMain10, video.ClassYUV420_10, 1280, 720)

	first, pool, err := Open(dev, p, nil, State{}, initialPool(dev), false, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	second, pool2, err := Open(dev, p, nil, first, pool, false, mocks.NewLogger())
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	m1, _ := first.Parsed()
	m2, _ := second.Parsed()
	if m1.Session != m2.Session {
		t.Error("expected the session to be reused")
	}
	if pool2 != pool {
		t.Error("expected the pool to be reused")
	}
	if len(dev.Configs) != 1 {
		t.Errorf("expected a single config, got %d", len(dev.Configs))
	}
	if m2.Session.Refs() != 2 {
		t.Errorf("expected 2 session references, got %d", m2.Session.Refs())
	}

	first.Release()
	if dev.Contexts[0].Destroyed {
		t.Error("context destroyed while still referenced")
	}
	second.Release()
	if !dev.Contexts[0].Destroyed || !dev.Configs[0].Destroyed {
		t.Error("expected context and config destroyed with the last reference")
	}
}

func TestOpen_ResolutionChangeWithContextReuse(t *testing.T) {
	dev := mocks.NewDevice()
	first, pool, err := Open(dev, params(video.ProfileVP9Profile0, video.ClassYUV420, 320, 240), nil, State{}, initialPool(dev), true, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := pool.AddSurfaces(4, nil); err != nil {
		t.Fatalf("AddSurfaces failed: %v", err)
	}

	second, pool2, err := Open(dev, params(video.ProfileVP9Profile0, video.ClassYUV420, 640, 480), nil, first, pool, true, mocks.NewLogger())
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	m1, _ := first.Parsed()
	m2, _ := second.Parsed()
	if m1.Session != m2.Session {
		t.Error("expected the context to be reused across the resolution change")
	}
	if pool2 != pool {
		t.Error("expected the pool to be reused")
	}
	if pool2.CodedResolution() != video.NewResolution(640, 480) {
		t.Errorf("expected pool at 640x480, got %s", pool2.CodedResolution())
	}
	if pool2.NumManaged() != 0 {
		t.Errorf("expected undersized surfaces purged, got %d managed", pool2.NumManaged())
	}
}

func TestOpen_ResolutionChangeWithoutContextReuse(t *testing.T) {
	dev := mocks.NewDevice()
	first, pool, err := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 320, 240), nil, State{}, initialPool(dev), false, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	second, pool2, err := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 640, 480), nil, first, pool, false, mocks.NewLogger())
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	m1, _ := first.Parsed()
	m2, _ := second.Parsed()
	if m1.Session == m2.Session {
		t.Error("expected a new session")
	}
	if pool2 == pool {
		t.Error("expected a new pool")
	}
	if len(dev.Contexts) != 2 {
		t.Errorf("expected 2 contexts, got %d", len(dev.Contexts))
	}
}

func TestOpen_ShrinkKeepsPoolResolution(t *testing.T) {
	dev := mocks.NewDevice()
	first, pool, _ := Open(dev, params(video.ProfileVP9Profile0, video.ClassYUV420, 640, 480), nil, State{}, initialPool(dev), true, mocks.NewLogger())

	_, pool2, err := Open(dev, params(video.ProfileVP9Profile0, video.ClassYUV420, 320, 240), nil, first, pool, true, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if pool2.CodedResolution() != video.NewResolution(640, 480) {
		t.Errorf("expected pool to stay at 640x480, got %s", pool2.CodedResolution())
	}
}

func TestOpen_ProfileChangeCreatesSession(t *testing.T) {
	dev := mocks.NewDevice()
	first, pool, _ := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 320, 240), nil, State{}, initialPool(dev), true, mocks.NewLogger())

	second, _, err := Open(dev, params(video.ProfileH264High, video.ClassYUV420, 320, 240), nil, first, pool, true, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	m1, _ := first.Parsed()
	m2, _ := second.Parsed()
	if m1.Session == m2.Session {
		t.Error("expected a profile change to create a new session")
	}
}

func TestOpen_PreferredFormat(t *testing.T) {
	dev := mocks.NewDevice()
	fm, _ := LookupFormat(video.FormatI420)

	state, _, err := Open(dev, params(video.ProfileVP8, video.ClassYUV420, 64, 64), &fm, State{}, initialPool(dev), false, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	m, _ := state.Parsed()
	if m.FormatMap.Fourcc != video.FourccI420 || m.StreamInfo.Format != video.FormatI420 {
		t.Errorf("expected I420 output, got %s / %s", m.FormatMap.Fourcc, m.StreamInfo.Format)
	}

	wrong, _ := LookupFormat(video.FormatI010)
	_, _, err = Open(dev, params(video.ProfileVP8, video.ClassYUV420, 64, 64), &wrong, State{}, initialPool(dev), false, mocks.NewLogger())
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for a mismatched layout, got %v", err)
	}
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mocks.Device)
		want  error
	}{
		{
			name: "class not accepted",
			setup: func(d *mocks.Device) {
				d.SupportedFormatClassesFunc = func(video.Profile) (video.FormatClass, error) {
					return video.ClassYUV420_10, nil
				}
			},
			want: ErrUnsupported,
		},
		{
			name: "fourcc not mappable",
			setup: func(d *mocks.Device) {
				d.QueryImageFormatsFunc = func() ([]ports.ImageFormat, error) {
					return []ports.ImageFormat{{Fourcc: video.FourccI420}}, nil
				}
			},
			want: ErrUnsupported,
		},
		{
			name: "config rejected",
			setup: func(d *mocks.Device) {
				d.CreateConfigFunc = func(video.Profile, video.FormatClass) (ports.Config, error) {
					return nil, errors.New("no config")
				}
			},
			want: ErrHardwareRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := mocks.NewDevice()
			tt.setup(dev)
			prevPool := initialPool(dev)

			state, pool, err := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 64, 64), nil, State{}, prevPool, false, mocks.NewLogger())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if state.IsParsed() || pool != nil {
				t.Error("expected no state on failure")
			}
			if prevPool.CodedResolution() != video.NewResolution(16, 16) {
				t.Error("previous pool was modified")
			}
		})
	}
}

func TestOpen_ContextRejectedDestroysConfig(t *testing.T) {
	dev := mocks.NewDevice()
	dev.CreateContextFunc = func(ports.Config, video.Resolution) (ports.Context, error) {
		return nil, errors.New("no context")
	}

	_, _, err := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 64, 64), nil, State{}, initialPool(dev), false, mocks.NewLogger())
	var hwErr *HardwareError
	if !errors.As(err, &hwErr) || hwErr.Op != "create context" {
		t.Fatalf("expected create context HardwareError, got %v", err)
	}
	if !dev.Configs[0].Destroyed {
		t.Error("expected config to be destroyed")
	}
}

func TestOpen_FailureKeepsPreviousState(t *testing.T) {
	dev := mocks.NewDevice()
	first, pool, _ := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 64, 64), nil, State{}, initialPool(dev), false, mocks.NewLogger())

	dev.QueryImageFormatsFunc = func() ([]ports.ImageFormat, error) { return nil, nil }
	if _, _, err := Open(dev, params(video.ProfileH264Main, video.ClassYUV420, 128, 128), nil, first, pool, true, mocks.NewLogger()); err == nil {
		t.Fatal("expected failure")
	}

	m, _ := first.Parsed()
	if m.Session.Refs() != 1 {
		t.Errorf("expected previous session untouched, got %d refs", m.Session.Refs())
	}
	if pool.CodedResolution() != video.NewResolution(64, 64) {
		t.Errorf("expected previous pool untouched, got %s", pool.CodedResolution())
	}
}

func TestSupportedFormats(t *testing.T) {
	dev := mocks.NewDevice()
	dev.QueryImageFormatsFunc = func() ([]ports.ImageFormat, error) {
		return []ports.ImageFormat{{Fourcc: video.FourccI420}, {Fourcc: video.FourccNV12}}, nil
	}

	got, err := SupportedFormats(dev, video.ClassYUV420, video.ProfileH264Main)
	if err != nil {
		t.Fatalf("SupportedFormats failed: %v", err)
	}
	if len(got) != 2 || got[0].Format != video.FormatNV12 || got[1].Format != video.FormatI420 {
		t.Errorf("unexpected formats %v", got)
	}

	got, err = SupportedFormats(dev, video.ClassYUV420_10, video.ProfileHEVCMain10)
	if err != nil {
		t.Fatalf("SupportedFormats failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no P010 support, got %v", got)
	}
}

func TestFormatMaps_Priority(t *testing.T) {
	maps := FormatMaps()
	if len(maps) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(maps))
	}
	if maps[0].Fourcc != video.FourccNV12 || maps[9].Fourcc != video.FourccY412 {
		t.Errorf("unexpected table order %v ... %v", maps[0], maps[9])
	}
}
