package mocks

import (
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink. Written frames are copied.
type FrameSink struct {
	mu sync.RWMutex

	enabled bool

	WriteFrameFunc func(f ports.Frame) error

	Frames []ports.Frame
	Closed bool
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink(enabled bool) *FrameSink {
	return &FrameSink{enabled: enabled}
}

func (m *FrameSink) Enabled() bool {
	return m.enabled
}

func (m *FrameSink) WriteFrame(f ports.Frame) error {
	if m.WriteFrameFunc != nil {
		if err := m.WriteFrameFunc(f); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Data = append([]byte(nil), f.Data...)
	m.Frames = append(m.Frames, f)
	return nil
}

func (m *FrameSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Timestamps returns the timestamps of the written frames in order.
func (m *FrameSink) Timestamps() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts := make([]uint64, len(m.Frames))
	for i, f := range m.Frames {
		ts[i] = f.Timestamp
	}
	return ts
}

var _ ports.FrameSink = (*FrameSink)(nil)
