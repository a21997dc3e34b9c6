package simdevice

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// decodeContext renders pictures into surfaces of its device.
type decodeContext struct {
	dev       *Device
	cfg       *config
	coded     video.Resolution
	target    *surface
	digest    hash.Hash32
	destroyed bool
}

func (c *decodeContext) BeginPicture(t ports.Surface) error {
	s, ok := t.(*surface)
	if !ok || s.dev != c.dev {
		return fmt.Errorf("%w: surface not created by this device", ErrInvalidOperation)
	}
	if c.destroyed {
		return fmt.Errorf("%w: context destroyed", ErrInvalidOperation)
	}
	if c.target != nil {
		return fmt.Errorf("%w: picture on surface %d not ended", ErrInvalidOperation, c.target.id)
	}
	if s.class != c.cfg.class {
		return fmt.Errorf("%w: %s surface for a %s context", ErrInvalidOperation, s.class, c.cfg.class)
	}
	if !s.size.CanContain(c.coded) {
		return fmt.Errorf("%w: surface %s smaller than context %s", ErrInvalidOperation, s.size, c.coded)
	}
	c.target = s
	c.digest = fnv.New32a()
	return nil
}

func (c *decodeContext) RenderPicture(buffers []ports.Buffer) error {
	if c.target == nil {
		return fmt.Errorf("%w: render without begin", ErrInvalidOperation)
	}
	var tag [4]byte
	for _, b := range buffers {
		binary.LittleEndian.PutUint32(tag[:], uint32(b.Type))
		c.digest.Write(tag[:])
		c.digest.Write(b.Data)
	}
	return nil
}

func (c *decodeContext) EndPicture() error {
	if c.target == nil {
		return fmt.Errorf("%w: end without begin", ErrInvalidOperation)
	}
	s := c.target
	c.target = nil

	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("%w: surface %d destroyed", ErrInvalidOperation, s.id)
	}
	s.render(c.digest.Sum32())
	s.pending = d.opts.Manual || d.opts.Latency > 0
	s.readyAt = d.now().Add(d.opts.Latency)
	d.stats.Pictures++
	return nil
}

func (c *decodeContext) Destroy() error {
	if c.destroyed {
		return fmt.Errorf("%w: context destroyed twice", ErrInvalidOperation)
	}
	c.destroyed = true
	return nil
}

var _ ports.Context = (*decodeContext)(nil)
