package ports

import "github.com/user/vadecode/pkg/video"

// Frame is one decoded picture in its canonical layout.
type Frame struct {
	Index     int
	Timestamp uint64
	Format    video.DecodedFormat
	Size      video.Resolution
	Data      []byte
}

// FrameSink receives decoded frames from the playback loop.
type FrameSink interface {
	// Enabled reports whether frames written to the sink go anywhere.
	Enabled() bool

	// WriteFrame stores one frame. The sink must not keep Data after returning.
	WriteFrame(f Frame) error

	// Close flushes and releases the sink.
	Close() error
}
