// Package player drives a backend through a sequence of streams the way a codec state
// machine would: negotiate, size the pool, submit pictures that reference their
// predecessor, and hand completed frames to a sink in submission order.
package player

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/user/vadecode/pkg/backend"
	"github.com/user/vadecode/pkg/picture"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// MD5Mode selects checksum output.
type MD5Mode int

const (
	MD5None MD5Mode = iota
	MD5Frame
	MD5Stream
)

var md5ModeNames = []string{"none", "frame", "stream"}

func (m MD5Mode) String() string {
	if m < MD5None || m > MD5Stream {
		return "unknown"
	}
	return md5ModeNames[m]
}

// ParseMD5Mode parses "none", "frame" or "stream".
func ParseMD5Mode(s string) (MD5Mode, error) {
	for i, name := range md5ModeNames {
		if name == s {
			return MD5Mode(i), nil
		}
	}
	return MD5None, fmt.Errorf("player: unknown md5 mode %q", s)
}

// Segment is one sequence: its parameters and the number of pictures to decode with them.
type Segment struct {
	Params ports.StreamParams
	Frames int
}

// Config controls playback.
type Config struct {
	// Format requests an output format after each negotiation. Nil keeps the default.
	Format *video.DecodedFormat
	// Blocking syncs every picture right after submission. Otherwise pictures are output
	// as soon as the head of the queue reports ready.
	Blocking bool
	// ExtraSurfaces is added to the stream's minimum surface count.
	ExtraSurfaces int
	// GOP is the distance between pictures without references. Zero means only the first.
	GOP int
	MD5 MD5Mode
}

// Result summarizes a run.
type Result struct {
	Sequences int
	Frames    int
	FrameMD5  []string
	StreamMD5 string
}

// entry is a submitted picture; it is released once output and no longer referenced.
type entry struct {
	h          *picture.Handle
	emitted    bool
	referenced bool
}

func (e *entry) releaseIfDone() {
	if e.emitted && !e.referenced {
		e.h.Release()
	}
}

// Player feeds a backend and writes decoded frames to a sink.
type Player struct {
	backend *backend.Backend
	sink    ports.FrameSink
	cfg     Config
	log     ports.Logger

	queue  []*entry
	ref    *entry
	buf    []byte
	stream hash.Hash
	result Result
}

// New creates a player.
func New(b *backend.Backend, sink ports.FrameSink, cfg Config, log ports.Logger) *Player {
	return &Player{
		backend: b,
		sink:    sink,
		cfg:     cfg,
		log:     log.WithComponent("player"),
	}
}

// Run decodes every segment in order and returns what was output.
func (p *Player) Run(ctx context.Context, segments []Segment) (Result, error) {
	p.result = Result{}
	if p.cfg.MD5 == MD5Stream {
		p.stream = md5.New()
	}

	var timestamp uint64
	for i, seg := range segments {
		if err := p.startSequence(seg.Params); err != nil {
			p.abort()
			return p.result, fmt.Errorf("sequence %d: %w", i, err)
		}
		for n := 0; n < seg.Frames; n++ {
			if err := ctx.Err(); err != nil {
				p.abort()
				return p.result, err
			}
			if err := p.decode(i, n, timestamp); err != nil {
				p.abort()
				return p.result, fmt.Errorf("sequence %d frame %d: %w", i, n, err)
			}
			timestamp++
		}
		if err := p.flush(); err != nil {
			p.abort()
			return p.result, err
		}
		p.result.Sequences++
	}

	if p.stream != nil {
		p.result.StreamMD5 = hex.EncodeToString(p.stream.Sum(nil))
	}
	return p.result, nil
}

func (p *Player) startSequence(params ports.StreamParams) error {
	if err := p.backend.NewSequence(params); err != nil {
		return err
	}
	if p.cfg.Format != nil {
		if err := p.backend.TryFormat(params, *p.cfg.Format); err != nil {
			return err
		}
	}
	info, ok := p.backend.StreamInfo()
	if !ok {
		return errors.New("player: no stream info after negotiation")
	}
	if err := p.backend.EnsureSurfaces(info.MinNumFrames+p.cfg.ExtraSurfaces, nil); err != nil {
		return err
	}
	p.log.Debug("Decoding %s at %s with %d surfaces", info.Format, info.DisplayResolution, p.backend.FramePool().NumManaged())
	return nil
}

func (p *Player) decode(seq, n int, timestamp uint64) error {
	var refs []*picture.Handle
	keyframe := p.ref == nil || (p.cfg.GOP > 0 && n%p.cfg.GOP == 0)
	if !keyframe {
		refs = []*picture.Handle{p.ref.h}
	}
	sub := backend.Submission{
		Parameters: []ports.Buffer{{Type: ports.BufferPictureParameter, Data: PictureParameters(seq, n, keyframe)}},
		References: refs,
		SliceData:  SliceData(seq, n),
		Timestamp:  timestamp,
	}

	h, err := p.backend.SubmitPicture(sub)
	for errors.Is(err, backend.ErrNoFreeSurface) && len(p.queue) > 0 {
		if err := p.emitHead(); err != nil {
			return err
		}
		h, err = p.backend.SubmitPicture(sub)
	}
	if err != nil {
		return err
	}

	e := &entry{h: h, referenced: true}
	if p.ref != nil {
		p.ref.referenced = false
		p.ref.releaseIfDone()
	}
	p.ref = e

	if p.cfg.Blocking {
		return p.emit(e)
	}
	p.queue = append(p.queue, e)
	for len(p.queue) > 0 && p.queue[0].h.IsReady() {
		if err := p.emitHead(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) emitHead() error {
	e := p.queue[0]
	p.queue = p.queue[1:]
	return p.emit(e)
}

// emit outputs a picture. A picture that fails to output is released immediately.
func (p *Player) emit(e *entry) error {
	if err := p.output(e.h); err != nil {
		e.h.Release()
		return err
	}
	e.emitted = true
	e.releaseIfDone()
	return nil
}

func (p *Player) output(h *picture.Handle) error {
	if err := h.Sync(); err != nil {
		return err
	}

	if size := h.FrameSize(); len(p.buf) != size {
		p.buf = make([]byte, size)
	}
	if err := h.Read(p.buf); err != nil {
		return err
	}

	frame := ports.Frame{
		Index:     p.result.Frames,
		Timestamp: h.Timestamp(),
		Format:    h.Format(),
		Size:      h.DisplayResolution(),
		Data:      p.buf,
	}
	if err := p.sink.WriteFrame(frame); err != nil {
		return err
	}
	switch p.cfg.MD5 {
	case MD5Frame:
		sum := md5.Sum(p.buf)
		p.result.FrameMD5 = append(p.result.FrameMD5, hex.EncodeToString(sum[:]))
	case MD5Stream:
		p.stream.Write(p.buf)
	}
	p.result.Frames++
	return nil
}

// flush outputs every queued picture and drops the reference, so the next sequence starts
// from a keyframe.
func (p *Player) flush() error {
	for len(p.queue) > 0 {
		if err := p.emitHead(); err != nil {
			return err
		}
	}
	if p.ref != nil {
		p.ref.referenced = false
		p.ref.releaseIfDone()
		p.ref = nil
	}
	return nil
}

// abort releases every outstanding picture without output.
func (p *Player) abort() {
	for _, e := range p.queue {
		e.h.Release()
	}
	p.queue = nil
	if p.ref != nil {
		p.ref.h.Release()
		p.ref = nil
	}
}

// PictureParameters returns the synthetic picture parameter buffer for frame n of sequence seq.
func PictureParameters(seq, n int, keyframe bool) []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint32(buf[0:], uint32(seq))
	binary.LittleEndian.PutUint32(buf[4:], uint32(n))
	if keyframe {
		buf[8] = 1
	}
	return buf
}

// SliceData returns the synthetic slice payload for frame n of sequence seq.
func SliceData(seq, n int) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:], uint64(seq)<<32|uint64(n))
	binary.BigEndian.PutUint64(buf[8:], uint64(n)*0x9E3779B97F4A7C15)
	return buf
}
