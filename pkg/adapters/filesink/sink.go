// Package filesink writes decoded frames to disk as raw canonical data and optional BMP previews.
package filesink

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/user/vadecode/pkg/ports"
)

// ErrClosed is returned by WriteFrame after Close.
var ErrClosed = errors.New("filesink: sink closed")

// Options controls where frames go.
type Options struct {
	// Path is the raw output file. Empty disables raw output.
	Path string
	// Multiple writes each frame to its own file, name_N.ext.
	Multiple bool
	// PreviewDir receives one BMP per frame. Empty disables previews.
	PreviewDir string
	// PreviewWidth scales previews to this width. Zero keeps the display width.
	PreviewWidth int
	// Caption draws the frame index and timestamp onto previews.
	Caption bool
}

// Sink writes frames through a ports.FileSystem.
type Sink struct {
	fs     ports.FileSystem
	opts   Options
	out    io.WriteCloser
	frames int
	closed bool
	log    ports.Logger
}

// New creates a file sink.
func New(fs ports.FileSystem, opts Options, log ports.Logger) *Sink {
	return &Sink{
		fs:   fs,
		opts: opts,
		log:  log.WithComponent("filesink"),
	}
}

// Enabled reports whether any output is configured.
func (s *Sink) Enabled() bool {
	return s.opts.Path != "" || s.opts.PreviewDir != ""
}

// Frames returns the number of frames written so far.
func (s *Sink) Frames() int {
	return s.frames
}

// WriteFrame implements ports.FrameSink.
func (s *Sink) WriteFrame(f ports.Frame) error {
	if s.closed {
		return ErrClosed
	}
	if s.opts.Path != "" {
		if err := s.writeRaw(f); err != nil {
			return err
		}
	}
	if s.opts.PreviewDir != "" {
		if err := s.writePreview(f); err != nil {
			return err
		}
	}
	s.frames++
	return nil
}

func (s *Sink) writeRaw(f ports.Frame) error {
	if s.opts.Multiple {
		path := FrameName(s.opts.Path, f.Index)
		if err := s.fs.WriteFile(path, f.Data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	if s.out == nil {
		out, err := s.fs.Create(s.opts.Path)
		if err != nil {
			return fmt.Errorf("create %s: %w", s.opts.Path, err)
		}
		s.out = out
	}
	if _, err := s.out.Write(f.Data); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Index, err)
	}
	return nil
}

func (s *Sink) writePreview(f ports.Frame) error {
	data, err := EncodePreview(f, s.opts.PreviewWidth, s.opts.Caption)
	if err != nil {
		return fmt.Errorf("preview of frame %d: %w", f.Index, err)
	}
	if err := s.fs.MkdirAll(s.opts.PreviewDir); err != nil {
		return err
	}
	path := filepath.Join(s.opts.PreviewDir, fmt.Sprintf("frame-%04d.bmp", f.Index))
	if err := s.fs.WriteFile(path, data); err != nil {
		return err
	}
	s.log.Debug("Wrote preview %s", path)
	return nil
}

// Close flushes the raw output file.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.out != nil {
		err = s.out.Close()
		s.out = nil
	}
	if s.opts.Path != "" {
		s.log.Info("Wrote %d frames to %s", s.frames, s.opts.Path)
	}
	return err
}

// FrameName inserts the frame index before the extension: out.yuv becomes out_3.yuv.
func FrameName(path string, index int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), index, ext)
}

var _ ports.FrameSink = (*Sink)(nil)
