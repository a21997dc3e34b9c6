package backend

import (
	"errors"
	"image"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/negotiate"
	"github.com/user/vadecode/pkg/picture"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

func stream(profile video.Profile, class video.FormatClass, w, h int) video.Descriptor {
	return video.Descriptor{
		StreamProfile: profile,
		Class:         class,
		Coded:         video.NewResolution(w, h),
		Visible:       image.Rect(0, 0, w, h),
		MinSurfaces:   3,
	}
}

func TestBackend_InitialPool(t *testing.T) {
	b := New(mocks.NewDevice(), Options{}, mocks.NewLogger())

	if got := b.FramePool().CodedResolution(); got != video.NewResolution(16, 16) {
		t.Errorf("expected 16x16 placeholder pool, got %s", got)
	}
	if got := b.FramePool().FormatClass(); got != video.ClassYUV420 {
		t.Errorf("expected YUV420 placeholder pool, got %s", got)
	}
	if _, ok := b.StreamInfo(); ok {
		t.Error("expected no stream info before the first sequence")
	}
	if _, err := b.SubmitPicture(Submission{}); !errors.Is(err, negotiate.ErrUnparsed) {
		t.Errorf("expected ErrUnparsed, got %v", err)
	}
}

func TestBackend_NewSequenceAndSubmit(t *testing.T) {
	dev := mocks.NewDevice()
	b := New(dev, Options{}, mocks.NewLogger())

	if err := b.NewSequence(stream(video.ProfileH264High, video.ClassYUV420, 320, 240)); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	info, ok := b.StreamInfo()
	if !ok {
		t.Fatal("expected stream info")
	}
	if info.Format != video.FormatNV12 || info.MinNumFrames != 3 {
		t.Errorf("unexpected stream info %+v", info)
	}

	if _, err := b.SubmitPicture(Submission{Timestamp: 1}); !errors.Is(err, ErrNoFreeSurface) {
		t.Fatalf("expected ErrNoFreeSurface on an empty pool, got %v", err)
	}

	if err := b.EnsureSurfaces(info.MinNumFrames, nil); err != nil {
		t.Fatalf("EnsureSurfaces failed: %v", err)
	}
	if b.FramePool().NumManaged() != 3 {
		t.Fatalf("expected 3 managed surfaces, got %d", b.FramePool().NumManaged())
	}

	params := []ports.Buffer{{Type: ports.BufferPictureParameter, Data: []byte{1, 2}}}
	h, err := b.SubmitPicture(Submission{Parameters: params, SliceData: []byte{9, 9}, Timestamp: 1})
	if err != nil {
		t.Fatalf("SubmitPicture failed: %v", err)
	}
	rendered := dev.Contexts[0].Rendered[0]
	if len(rendered) != 2 || rendered[1].Type != ports.BufferSliceData {
		t.Errorf("expected parameters followed by slice data, got %+v", rendered)
	}
	if b.FramePool().NumFree() != 2 {
		t.Errorf("expected 2 free surfaces, got %d", b.FramePool().NumFree())
	}

	h.Release()
	if b.FramePool().NumFree() != 3 {
		t.Errorf("expected surface back after release, got %d free", b.FramePool().NumFree())
	}
}

func TestBackend_InvalidReference(t *testing.T) {
	b := New(mocks.NewDevice(), Options{}, mocks.NewLogger())
	if err := b.NewSequence(stream(video.ProfileH264Main, video.ClassYUV420, 64, 64)); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	_ = b.EnsureSurfaces(2, nil)

	ref, err := b.SubmitPicture(Submission{Timestamp: 1})
	if err != nil {
		t.Fatalf("SubmitPicture failed: %v", err)
	}
	ref.Release()

	_, err = b.SubmitPicture(Submission{References: []*picture.Handle{ref}, Timestamp: 2})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
	if b.FramePool().NumFree() != 2 {
		t.Errorf("expected no surface leased on rejection, got %d free", b.FramePool().NumFree())
	}
}

func TestBackend_SequenceFailureKeepsState(t *testing.T) {
	dev := mocks.NewDevice()
	b := New(dev, Options{}, mocks.NewLogger())
	if err := b.NewSequence(stream(video.ProfileH264Main, video.ClassYUV420, 64, 64)); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	pool := b.FramePool()

	dev.SupportedFormatClassesFunc = func(video.Profile) (video.FormatClass, error) {
		return 0, errors.New("profile not supported")
	}
	err := b.NewSequence(stream(video.ProfileHEVCMain444_12, video.ClassYUV444_12, 64, 64))
	if !errors.Is(err, negotiate.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	info, ok := b.StreamInfo()
	if !ok || info.CodedResolution != video.NewResolution(64, 64) {
		t.Errorf("expected previous stream info kept, got %+v", info)
	}
	if b.FramePool() != pool {
		t.Error("expected previous pool kept")
	}
}

func TestBackend_DynamicResolutionChange(t *testing.T) {
	dev := mocks.NewDevice()
	b := New(dev, Options{SupportsContextReuse: true}, mocks.NewLogger())

	if err := b.NewSequence(stream(video.ProfileVP9Profile0, video.ClassYUV420, 320, 240)); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	_ = b.EnsureSurfaces(3, nil)
	h, err := b.SubmitPicture(Submission{Timestamp: 1})
	if err != nil {
		t.Fatalf("SubmitPicture failed: %v", err)
	}

	if err := b.NewSequence(stream(video.ProfileVP9Profile0, video.ClassYUV420, 640, 480)); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	if len(dev.Contexts) != 1 {
		t.Errorf("expected the context to be reused, got %d contexts", len(dev.Contexts))
	}
	if b.FramePool().NumManaged() != 0 || b.FramePool().CodedResolution() != video.NewResolution(640, 480) {
		t.Errorf("expected an empty 640x480 pool, got %d managed at %s", b.FramePool().NumManaged(), b.FramePool().CodedResolution())
	}

	// The old picture is still readable and its surface is dropped on release.
	if h.DisplayResolution() != video.NewResolution(320, 240) {
		t.Errorf("unexpected display resolution %s", h.DisplayResolution())
	}
	h.Release()
	if b.FramePool().NumFree() != 0 {
		t.Errorf("expected undersized surface discarded, got %d free", b.FramePool().NumFree())
	}
	if dev.NumDestroyedSurfaces() != 3 {
		t.Errorf("expected all 3 small surfaces destroyed, got %d", dev.NumDestroyedSurfaces())
	}
}

func TestBackend_TryFormat(t *testing.T) {
	dev := mocks.NewDevice()
	b := New(dev, Options{}, mocks.NewLogger())
	s := stream(video.ProfileH264Main, video.ClassYUV420, 64, 64)

	if err := b.TryFormat(s, video.FormatI420); !errors.Is(err, negotiate.ErrUnparsed) {
		t.Fatalf("expected ErrUnparsed before the first sequence, got %v", err)
	}
	if err := b.NewSequence(s); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}

	if err := b.TryFormat(s, video.FormatI420); err != nil {
		t.Fatalf("TryFormat failed: %v", err)
	}
	info, _ := b.StreamInfo()
	if info.Format != video.FormatI420 {
		t.Errorf("expected I420, got %s", info.Format)
	}
	if len(dev.Contexts) != 1 {
		t.Errorf("expected the context to be reused, got %d", len(dev.Contexts))
	}

	if err := b.TryFormat(s, video.FormatI010); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	info, _ = b.StreamInfo()
	if info.Format != video.FormatI420 {
		t.Errorf("expected failed TryFormat to keep I420, got %s", info.Format)
	}
}

func TestBackend_SupportedFormats(t *testing.T) {
	b := New(mocks.NewDevice(), Options{}, mocks.NewLogger())
	if _, err := b.SupportedFormats(); !errors.Is(err, negotiate.ErrUnparsed) {
		t.Errorf("expected ErrUnparsed, got %v", err)
	}

	_ = b.NewSequence(stream(video.ProfileHEVCMain422_10, video.ClassYUV422_10, 64, 64))
	formats, err := b.SupportedFormats()
	if err != nil {
		t.Fatalf("SupportedFormats failed: %v", err)
	}
	if len(formats) != 1 || formats[0].Fourcc != video.FourccY210 {
		t.Errorf("unexpected formats %v", formats)
	}
}

func TestBackend_Close(t *testing.T) {
	dev := mocks.NewDevice()
	b := New(dev, Options{}, mocks.NewLogger())
	_ = b.NewSequence(stream(video.ProfileH264Main, video.ClassYUV420, 64, 64))
	_ = b.EnsureSurfaces(2, nil)
	h, _ := b.SubmitPicture(Submission{})

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if dev.Contexts[0].Destroyed {
		t.Error("context destroyed while a handle is outstanding")
	}
	h.Release()
	if !dev.Contexts[0].Destroyed {
		t.Error("expected context destroyed after the last handle")
	}
	if dev.NumDestroyedSurfaces() != 2 {
		t.Errorf("expected both surfaces destroyed, got %d", dev.NumDestroyedSurfaces())
	}
	if err := b.NewSequence(stream(video.ProfileH264Main, video.ClassYUV420, 64, 64)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestBackend_EnsureSurfacesAfterClose(t *testing.T) {
	dev := mocks.NewDevice()
	b := New(dev, Options{}, mocks.NewLogger())
	if err := b.NewSequence(stream(video.ProfileH264Main, video.ClassYUV420, 64, 64)); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	allocated := len(dev.Surfaces)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := b.EnsureSurfaces(4, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if len(dev.Surfaces) != allocated {
		t.Errorf("expected no surfaces allocated after Close, got %d more", len(dev.Surfaces)-allocated)
	}
}
