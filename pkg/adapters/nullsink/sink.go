// Package nullsink provides a frame sink that discards everything.
package nullsink

import "github.com/user/vadecode/pkg/ports"

// Sink is a no-op implementation of ports.FrameSink.
type Sink struct{}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all frames.
func (s *Sink) Enabled() bool {
	return false
}

// WriteFrame does nothing.
func (s *Sink) WriteFrame(ports.Frame) error {
	return nil
}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}

var _ ports.FrameSink = (*Sink)(nil)
