// Package picture tracks one submitted decode operation from submission to readback.
package picture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/vadecode/pkg/negotiate"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/surfacepool"
	"github.com/user/vadecode/pkg/video"
)

var (
	// ErrNotReady is returned when mapping a picture that has not been synced.
	ErrNotReady = errors.New("picture: not synced")
	// ErrReleased is returned when using a handle after Release.
	ErrReleased = errors.New("picture: handle released")
	// ErrSubmit wraps failures of the begin/render/end sequence.
	ErrSubmit = errors.New("picture: submission failed")
)

// SyncError reports that the hardware failed to complete a picture. The picture data is
// undefined and the handle stays pending.
type SyncError struct {
	Timestamp uint64
	Surface   ports.SurfaceID
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("picture: sync of frame %d on surface %d failed: %v", e.Timestamp, e.Surface, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

type state int

const (
	statePending state = iota
	stateReady
	// stateInvalid only exists while the state is being replaced inside Sync.
	stateInvalid
)

// Params describes the picture being submitted.
type Params struct {
	Coded       video.Resolution
	Display     video.Resolution
	ImageFormat ports.ImageFormat
	Format      video.DecodedFormat
	Timestamp   uint64
}

// ParamsFor builds submission parameters from negotiated metadata.
func ParamsFor(m *negotiate.Metadata, timestamp uint64) Params {
	return Params{
		Coded:       m.StreamInfo.CodedResolution,
		Display:     m.StreamInfo.DisplayResolution,
		ImageFormat: m.ImageFormat,
		Format:      m.FormatMap.Format,
		Timestamp:   timestamp,
	}
}

// Handle is a submitted picture. It starts pending and becomes ready once Sync succeeds.
type Handle struct {
	mu       sync.Mutex
	state    state
	lease    *surfacepool.Lease
	session  *negotiate.Session
	params   Params
	released bool
}

// Submit runs begin/render/end on the session context targeting the leased surface and
// returns a pending handle. On failure the lease is released and nothing is retained.
func Submit(session *negotiate.Session, lease *surfacepool.Lease, buffers []ports.Buffer, p Params) (*Handle, error) {
	ctx := session.Context()
	target := lease.Surface()

	if err := ctx.BeginPicture(target); err != nil {
		lease.Release()
		return nil, fmt.Errorf("%w: begin on surface %d: %w", ErrSubmit, target.ID(), err)
	}
	if err := ctx.RenderPicture(buffers); err != nil {
		_ = ctx.EndPicture()
		lease.Release()
		return nil, fmt.Errorf("%w: render on surface %d: %w", ErrSubmit, target.ID(), err)
	}
	if err := ctx.EndPicture(); err != nil {
		lease.Release()
		return nil, fmt.Errorf("%w: end on surface %d: %w", ErrSubmit, target.ID(), err)
	}

	return &Handle{
		state:   statePending,
		lease:   lease,
		session: session.Retain(),
		params:  p,
	}, nil
}

// Sync blocks until the hardware has finished the picture. Once it succeeds, later calls
// return immediately.
func (h *Handle) Sync() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return ErrReleased
	}

	switch prev := h.take(); prev {
	case stateReady:
		h.state = stateReady
		return nil
	default:
		surface := h.lease.Surface()
		if err := surface.Sync(); err != nil {
			h.state = statePending
			return &SyncError{Timestamp: h.params.Timestamp, Surface: surface.ID(), Err: err}
		}
		h.state = stateReady
		return nil
	}
}

// take moves the state out, leaving the placeholder behind until the caller stores the
// next one.
func (h *Handle) take() state {
	prev := h.state
	if prev == stateInvalid {
		panic("picture: handle observed in transient state")
	}
	h.state = stateInvalid
	return prev
}

// IsReady polls for completion without blocking. A failing status query reports ready so
// that the caller goes on to Sync, which reports the error.
func (h *Handle) IsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case stateReady:
		return true
	case statePending:
		if h.released {
			return false
		}
		status, err := h.lease.Surface().Status()
		if err != nil {
			return true
		}
		return status == ports.SurfaceReady
	default:
		panic("picture: handle observed in transient state")
	}
}

// Map creates a fresh CPU mapping of the picture. The handle must be ready.
func (h *Handle) Map() (*Mapped, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, ErrReleased
	}
	switch h.state {
	case statePending:
		return nil, ErrNotReady
	case stateInvalid:
		panic("picture: handle observed in transient state")
	}

	img, err := h.lease.Surface().CreateImage(h.params.ImageFormat, h.params.Coded, h.params.Display)
	if err != nil {
		return nil, fmt.Errorf("picture: map surface %d: %w", h.lease.Surface().ID(), err)
	}
	return &Mapped{image: img, fourcc: h.params.ImageFormat.Fourcc, display: h.params.Display}, nil
}

// Read maps the picture and copies it into dst in its canonical format. dst must be
// exactly FrameSize bytes long.
func (h *Handle) Read(dst []byte) error {
	m, err := h.Map()
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Read(dst)
}

// Release returns the surface to its pool and drops the session reference. Releasing a
// pending handle gives the surface back without waiting for the hardware.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	h.lease.Release()
	h.session.Release()
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Timestamp returns the timestamp the picture was submitted with.
func (h *Handle) Timestamp() uint64 { return h.params.Timestamp }

// CodedResolution returns the coded resolution at submission time.
func (h *Handle) CodedResolution() video.Resolution { return h.params.Coded }

// DisplayResolution returns the visible resolution at submission time.
func (h *Handle) DisplayResolution() video.Resolution { return h.params.Display }

// SurfaceID returns the target surface.
func (h *Handle) SurfaceID() ports.SurfaceID { return h.lease.Surface().ID() }

// Format returns the canonical format Read produces.
func (h *Handle) Format() video.DecodedFormat { return h.params.Format }

// FrameSize returns the number of bytes Read expects.
func (h *Handle) FrameSize() int {
	return video.FrameSize(h.params.Format, int(h.params.Display.Width), int(h.params.Display.Height))
}
