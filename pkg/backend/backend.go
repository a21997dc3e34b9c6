// Package backend is the contract the codec state machines decode through. It owns the
// stream metadata state and the surface pool and turns decode submissions into picture
// handles.
package backend

import (
	"errors"
	"fmt"

	"github.com/user/vadecode/pkg/negotiate"
	"github.com/user/vadecode/pkg/picture"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/surfacepool"
	"github.com/user/vadecode/pkg/video"
)

var (
	// ErrNoFreeSurface is returned by SubmitPicture when the pool is exhausted. Release
	// handles or grow the pool and retry.
	ErrNoFreeSurface = errors.New("backend: no free surface")
	// ErrInvalidReference is returned when a reference handle was already released.
	ErrInvalidReference = errors.New("backend: invalid reference picture")
	// ErrUnsupportedFormat is returned by TryFormat for a format the stream cannot produce.
	ErrUnsupportedFormat = errors.New("backend: unsupported output format")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("backend: closed")
)

// Options configures a Backend.
type Options struct {
	// SupportsContextReuse lets a resolution change keep the current decode context. Codecs
	// whose contexts are resolution independent (VP9, AV1) set it.
	SupportsContextReuse bool
}

// Submission is one picture handed over by the codec state machine.
type Submission struct {
	// Parameters are the codec specific parameter buffers, in submission order.
	Parameters []ports.Buffer
	// References are the pictures this one predicts from. The codec keeps them alive.
	References []*picture.Handle
	SliceData  []byte
	Timestamp  uint64
}

// Backend composes the negotiator, the surface pool and picture handles.
type Backend struct {
	dev    ports.Device
	opts   Options
	state  negotiate.State
	pool   *surfacepool.Pool
	log    ports.Logger
	closed bool
}

// New creates a backend with a small placeholder pool; the first sequence replaces it.
func New(dev ports.Device, opts Options, log ports.Logger) *Backend {
	return &Backend{
		dev:  dev,
		opts: opts,
		pool: surfacepool.New(dev, video.ClassYUV420, ports.UsageHintDecoder, video.NewResolution(16, 16), log),
		log:  log,
	}
}

// NewSequence negotiates a new sequence. On failure the previous state is kept.
func (b *Backend) NewSequence(params ports.StreamParams) error {
	return b.open(params, nil)
}

// TryFormat renegotiates the current stream to produce format. It requires a parsed
// sequence; on failure the previous state is kept.
func (b *Backend) TryFormat(params ports.StreamParams, format video.DecodedFormat) error {
	formats, err := b.SupportedFormats()
	if err != nil {
		return err
	}
	for _, fm := range formats {
		if fm.Format == format {
			return b.open(params, &fm)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func (b *Backend) open(params ports.StreamParams, preferred *negotiate.FormatMap) error {
	if b.closed {
		return ErrClosed
	}

	state, pool, err := negotiate.Open(b.dev, params, preferred, b.state, b.pool, b.opts.SupportsContextReuse, b.log)
	if err != nil {
		return err
	}

	b.state.Release()
	if pool != b.pool {
		if err := b.pool.Close(); err != nil {
			b.log.Warn("Failed to close replaced surface pool: %v", err)
		}
	}
	b.state, b.pool = state, pool
	return nil
}

// SubmitPicture leases a surface, submits the picture to the hardware and returns a
// pending handle.
func (b *Backend) SubmitPicture(s Submission) (*picture.Handle, error) {
	if b.closed {
		return nil, ErrClosed
	}
	meta, err := b.state.Parsed()
	if err != nil {
		return nil, err
	}
	for i, ref := range s.References {
		if ref == nil {
			return nil, fmt.Errorf("%w: reference %d is nil", ErrInvalidReference, i)
		}
		if ref.Released() {
			return nil, fmt.Errorf("%w: reference %d (frame %d) was released", ErrInvalidReference, i, ref.Timestamp())
		}
	}

	lease, ok := b.pool.Lease()
	if !ok {
		return nil, ErrNoFreeSurface
	}

	buffers := append([]ports.Buffer(nil), s.Parameters...)
	if len(s.SliceData) > 0 {
		buffers = append(buffers, ports.Buffer{Type: ports.BufferSliceData, Data: s.SliceData})
	}
	return picture.Submit(meta.Session, lease, buffers, picture.ParamsFor(meta, s.Timestamp))
}

// EnsureSurfaces grows the pool until it manages at least n surfaces.
func (b *Backend) EnsureSurfaces(n int, descriptors []ports.MemoryDescriptor) error {
	if b.closed {
		return ErrClosed
	}
	missing := n - b.pool.NumManaged()
	if missing <= 0 {
		return nil
	}
	if len(descriptors) > missing {
		descriptors = descriptors[:missing]
	}
	return b.pool.AddSurfaces(missing, descriptors)
}

// FramePool exposes the surface pool for capacity queries.
func (b *Backend) FramePool() *surfacepool.Pool {
	return b.pool
}

// StreamInfo returns the negotiated stream info, once a sequence has been negotiated.
func (b *Backend) StreamInfo() (video.StreamInfo, bool) {
	meta, err := b.state.Parsed()
	if err != nil {
		return video.StreamInfo{}, false
	}
	return meta.StreamInfo, true
}

// SupportedFormats lists the output formats the current stream can be decoded into.
func (b *Backend) SupportedFormats() ([]negotiate.FormatMap, error) {
	meta, err := b.state.Parsed()
	if err != nil {
		return nil, err
	}
	return negotiate.SupportedFormats(b.dev, meta.Class, meta.Profile)
}

// Close drops the stream state and the pool. Outstanding handles keep their session alive
// and destroy their surfaces when released.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.state.Release()
	b.state = negotiate.State{}
	return b.pool.Close()
}
