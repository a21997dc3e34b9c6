//go:build linux

package vaapi

import (
	"errors"
	"unsafe"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

type config struct {
	dev     *Device
	id      uint32
	profile video.Profile
	class   video.FormatClass
}

func (c *config) Profile() video.Profile         { return c.profile }
func (c *config) FormatClass() video.FormatClass { return c.class }

func (c *config) Destroy() error {
	return check("vaDestroyConfig", vaDestroyConfig(c.dev.dpy, c.id))
}

// decodeContext keeps the buffers of the current picture alive until EndPicture.
type decodeContext struct {
	dev     *Device
	id      uint32
	buffers []uint32
}

func (c *decodeContext) BeginPicture(target ports.Surface) error {
	s, ok := target.(*surface)
	if !ok || s.dev != c.dev {
		return ErrForeignObject
	}
	return check("vaBeginPicture", vaBeginPicture(c.dev.dpy, c.id, s.id))
}

func (c *decodeContext) RenderPicture(buffers []ports.Buffer) error {
	ids := make([]uint32, 0, len(buffers))
	for _, b := range buffers {
		id, err := c.createBuffer(b)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		c.buffers = append(c.buffers, id)
	}
	if len(ids) == 0 {
		return nil
	}
	return check("vaRenderPicture", vaRenderPicture(c.dev.dpy, c.id, &ids[0], int32(len(ids))))
}

func (c *decodeContext) createBuffer(b ports.Buffer) (uint32, error) {
	elements := max(b.NumElements, 1)
	size := len(b.Data) / elements
	var data unsafe.Pointer
	if len(b.Data) > 0 {
		data = unsafe.Pointer(&b.Data[0])
	}
	var id uint32
	status := vaCreateBuffer(c.dev.dpy, c.id, int32(b.Type), uint32(size), uint32(elements), data, &id)
	return id, check("vaCreateBuffer", status)
}

func (c *decodeContext) EndPicture() error {
	err := check("vaEndPicture", vaEndPicture(c.dev.dpy, c.id))
	for _, id := range c.buffers {
		vaDestroyBuffer(c.dev.dpy, id)
	}
	c.buffers = c.buffers[:0]
	return err
}

func (c *decodeContext) Destroy() error {
	return check("vaDestroyContext", vaDestroyContext(c.dev.dpy, c.id))
}

type surface struct {
	dev  *Device
	id   uint32
	size video.Resolution
}

func (s *surface) ID() ports.SurfaceID    { return ports.SurfaceID(s.id) }
func (s *surface) Size() video.Resolution { return s.size }

func (s *surface) Status() (ports.SurfaceStatus, error) {
	var status uint32
	if err := check("vaQuerySurfaceStatus", vaQuerySurfaceStatus(s.dev.dpy, s.id, &status)); err != nil {
		return 0, err
	}
	return ports.SurfaceStatus(status), nil
}

func (s *surface) Sync() error {
	return check("vaSyncSurface", vaSyncSurface(s.dev.dpy, s.id))
}

// CreateImage copies the display area of the surface into a new image of format and maps it.
func (s *surface) CreateImage(format ports.ImageFormat, coded, display video.Resolution) (ports.Image, error) {
	f, err := s.dev.lookupFormat(format.Fourcc)
	if err != nil {
		return nil, err
	}

	img := &mappedImage{dev: s.dev}
	if err := check("vaCreateImage", vaCreateImage(s.dev.dpy, &f, int32(coded.Width), int32(coded.Height), &img.va)); err != nil {
		return nil, err
	}
	status := vaGetImage(s.dev.dpy, s.id, 0, 0, display.Width, display.Height, img.va.ImageID)
	if err := check("vaGetImage", status); err != nil {
		vaDestroyImage(s.dev.dpy, img.va.ImageID)
		return nil, err
	}

	var ptr unsafe.Pointer
	if err := check("vaMapBuffer", vaMapBuffer(s.dev.dpy, img.va.Buf, &ptr)); err != nil {
		vaDestroyImage(s.dev.dpy, img.va.ImageID)
		return nil, err
	}
	img.data = unsafe.Slice((*byte)(ptr), img.va.DataSize)
	return img, nil
}

func (s *surface) Destroy() error {
	id := s.id
	return check("vaDestroySurfaces", vaDestroySurfaces(s.dev.dpy, &id, 1))
}

type mappedImage struct {
	dev    *Device
	va     vaImage
	data   []byte
	closed bool
}

func (m *mappedImage) Format() ports.ImageFormat { return m.va.Format.port() }
func (m *mappedImage) Layout() video.PlaneLayout { return m.va.layout() }
func (m *mappedImage) Data() []byte              { return m.data }

func (m *mappedImage) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	unmapErr := check("vaUnmapBuffer", vaUnmapBuffer(m.dev.dpy, m.va.Buf))
	destroyErr := check("vaDestroyImage", vaDestroyImage(m.dev.dpy, m.va.ImageID))
	return errors.Join(unmapErr, destroyErr)
}

var (
	_ ports.Config  = (*config)(nil)
	_ ports.Context = (*decodeContext)(nil)
	_ ports.Surface = (*surface)(nil)
	_ ports.Image   = (*mappedImage)(nil)
)
