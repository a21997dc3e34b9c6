package simdevice

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// Pattern is the sample value a picture rendered from seed has at (x, y) of plane, using
// the low bits of the result. Tests use it to predict decoded output.
func Pattern(seed uint32, plane, x, y, bits int) uint16 {
	v := seed*2654435761 ^ uint32(plane)*0x9e3779b9 ^ uint32(x)*73856093 ^ uint32(y)*19349663
	v ^= v >> 15
	v *= 0x2c1b3c6d
	v ^= v >> 12
	return uint16(v & (1<<bits - 1))
}

type surface struct {
	dev     *Device
	id      ports.SurfaceID
	class   video.FormatClass
	format  video.DecodedFormat
	size    video.Resolution
	planes  [3][]uint16
	user    []byte
	pending bool
	readyAt time.Time
	failure error

	destroyed bool
}

func newSurface(d *Device, id ports.SurfaceID, class video.FormatClass, format video.DecodedFormat, size video.Resolution, user []byte) *surface {
	w, h := int(size.Width), int(size.Height)
	cw, ch := video.ChromaSize(format, w, h)
	return &surface{
		dev:    d,
		id:     id,
		class:  class,
		format: format,
		size:   size,
		planes: [3][]uint16{make([]uint16, w*h), make([]uint16, cw*ch), make([]uint16, cw*ch)},
		user:   user,
	}
}

func (s *surface) ID() ports.SurfaceID { return s.id }

func (s *surface) Size() video.Resolution { return s.size }

// dims returns the dimensions of a plane.
func (s *surface) dims(plane int) (int, int) {
	w, h := int(s.size.Width), int(s.size.Height)
	if plane == 0 {
		return w, h
	}
	return video.ChromaSize(s.format, w, h)
}

// sample returns a plane sample, zero outside the plane.
func (s *surface) sample(plane, x, y int) uint16 {
	w, h := s.dims(plane)
	if x >= w || y >= h {
		return 0
	}
	return s.planes[plane][y*w+x]
}

// render fills the surface. Called with the device lock held.
func (s *surface) render(seed uint32) {
	bits := s.format.BitDepth()
	for p := range s.planes {
		w, _ := s.dims(p)
		for i := range s.planes[p] {
			s.planes[p][i] = Pattern(seed, p, i%w, i/w, bits)
		}
	}
	s.failure = nil

	if s.user == nil {
		return
	}
	out := s.user
	for p := range s.planes {
		for _, v := range s.planes[p] {
			if s.format.BytesPerSample() == 1 {
				out[0] = byte(v)
				out = out[1:]
				continue
			}
			binary.LittleEndian.PutUint16(out, v)
			out = out[2:]
		}
	}
}

func (s *surface) Status() (ports.SurfaceStatus, error) {
	d := s.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.destroyed {
		return 0, fmt.Errorf("%w: surface %d destroyed", ErrInvalidOperation, s.id)
	}
	if s.pending && !d.opts.Manual && !d.now().Before(s.readyAt) {
		s.pending = false
	}
	if s.pending {
		return ports.SurfaceRendering, nil
	}
	return ports.SurfaceReady, nil
}

func (s *surface) Sync() error {
	d := s.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		switch {
		case s.destroyed:
			return fmt.Errorf("%w: surface %d destroyed", ErrInvalidOperation, s.id)
		case s.failure != nil:
			return s.failure
		case !s.pending:
			return nil
		case d.closed:
			return fmt.Errorf("%w: device closed", ErrInvalidOperation)
		case d.opts.Manual:
			d.done.Wait()
		default:
			wait := s.readyAt.Sub(d.now())
			d.mu.Unlock()
			time.Sleep(wait)
			d.mu.Lock()
			s.pending = false
		}
	}
}

func (s *surface) Destroy() error {
	d := s.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.destroyed {
		return fmt.Errorf("%w: surface %d destroyed twice", ErrInvalidOperation, s.id)
	}
	s.destroyed = true
	delete(d.surfaces, s.id)
	d.stats.Live--
	d.done.Broadcast()
	return nil
}

// CreateImage packs the display area of the surface into the native layout of format.
// Pitches are aligned to 64 bytes and planes are laid out for the coded size.
func (s *surface) CreateImage(format ports.ImageFormat, coded, display video.Resolution) (ports.Image, error) {
	dec, ok := video.FormatForFourcc(format.Fourcc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIncompatibleImage, format.Fourcc)
	}
	sh, sv := s.format.Subsampling()
	ih, iv := dec.Subsampling()
	if sh != ih || sv != iv || s.format.BitDepth() != dec.BitDepth() {
		return nil, fmt.Errorf("%w: %s from %s surface", ErrIncompatibleImage, format.Fourcc, s.class)
	}
	if !display.IsZero() && !coded.CanContain(display) {
		return nil, fmt.Errorf("%w: display %s outside coded %s", ErrInvalidOperation, display, coded)
	}

	d := s.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.destroyed {
		return nil, fmt.Errorf("%w: surface %d destroyed", ErrInvalidOperation, s.id)
	}

	img := &mappedImage{format: format}
	pk := packer{s: s, w: int(coded.Width), h: int(coded.Height), dw: int(display.Width), dh: int(display.Height)}
	switch format.Fourcc {
	case video.FourccNV12:
		img.layout, img.data = pk.nv12()
	case video.FourccI420, video.Fourcc422H, video.Fourcc444P:
		img.layout, img.data = pk.planar8()
	case video.FourccP010, video.FourccP012:
		img.layout, img.data = pk.p01x(uint(16 - dec.BitDepth()))
	case video.FourccY210, video.FourccY212:
		img.layout, img.data = pk.y21x(uint(16 - dec.BitDepth()))
	case video.FourccY410:
		img.layout, img.data = pk.y410()
	case video.FourccY412:
		img.layout, img.data = pk.y412()
	default:
		return nil, fmt.Errorf("%w: %s", ErrIncompatibleImage, format.Fourcc)
	}
	return img, nil
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}

// packer writes surface samples inside the display area into native layouts sized for the
// coded area.
type packer struct {
	s      *surface
	w, h   int
	dw, dh int
}

func (p packer) chroma() (int, int) {
	return video.ChromaSize(p.s.format, p.dw, p.dh)
}

func (p packer) codedChroma() (int, int) {
	return video.ChromaSize(p.s.format, p.w, p.h)
}

func (p packer) nv12() (video.PlaneLayout, []byte) {
	cw, ch := p.chroma()
	_, cch := p.codedChroma()
	pitch := align(p.w+p.w%2, 64)
	l := video.PlaneLayout{Pitches: [3]int{pitch, pitch}, Offsets: [3]int{0, pitch * p.h}}
	data := make([]byte, l.Offsets[1]+pitch*cch)
	for y := 0; y < p.dh; y++ {
		for x := 0; x < p.dw; x++ {
			data[y*pitch+x] = byte(p.s.sample(0, x, y))
		}
	}
	for y := 0; y < ch; y++ {
		row := data[l.Offsets[1]+y*pitch:]
		for x := 0; x < cw; x++ {
			row[2*x] = byte(p.s.sample(1, x, y))
			row[2*x+1] = byte(p.s.sample(2, x, y))
		}
	}
	return l, data
}

func (p packer) planar8() (video.PlaneLayout, []byte) {
	cw, ch := p.chroma()
	ccw, cch := p.codedChroma()
	l := video.PlaneLayout{Pitches: [3]int{align(p.w, 64), align(ccw, 64), align(ccw, 64)}}
	l.Offsets[1] = l.Pitches[0] * p.h
	l.Offsets[2] = l.Offsets[1] + l.Pitches[1]*cch
	data := make([]byte, l.Offsets[2]+l.Pitches[2]*cch)
	for y := 0; y < p.dh; y++ {
		for x := 0; x < p.dw; x++ {
			data[y*l.Pitches[0]+x] = byte(p.s.sample(0, x, y))
		}
	}
	for plane := 1; plane < 3; plane++ {
		for y := 0; y < ch; y++ {
			for x := 0; x < cw; x++ {
				data[l.Offsets[plane]+y*l.Pitches[plane]+x] = byte(p.s.sample(plane, x, y))
			}
		}
	}
	return l, data
}

func (p packer) p01x(shift uint) (video.PlaneLayout, []byte) {
	cw, ch := p.chroma()
	_, cch := p.codedChroma()
	pitch := align(2*(p.w+p.w%2), 64)
	l := video.PlaneLayout{Pitches: [3]int{pitch, pitch}, Offsets: [3]int{0, pitch * p.h}}
	data := make([]byte, l.Offsets[1]+pitch*cch)
	for y := 0; y < p.dh; y++ {
		for x := 0; x < p.dw; x++ {
			binary.LittleEndian.PutUint16(data[y*pitch+2*x:], p.s.sample(0, x, y)<<shift)
		}
	}
	for y := 0; y < ch; y++ {
		row := data[l.Offsets[1]+y*pitch:]
		for x := 0; x < cw; x++ {
			binary.LittleEndian.PutUint16(row[4*x:], p.s.sample(1, x, y)<<shift)
			binary.LittleEndian.PutUint16(row[4*x+2:], p.s.sample(2, x, y)<<shift)
		}
	}
	return l, data
}

func (p packer) y21x(shift uint) (video.PlaneLayout, []byte) {
	cw, _ := p.chroma()
	pitch := align(4*(p.w+p.w%2), 64)
	l := video.PlaneLayout{Pitches: [3]int{pitch}}
	data := make([]byte, pitch*p.h)
	for y := 0; y < p.dh; y++ {
		row := data[y*pitch:]
		for x := 0; x < p.dw; x++ {
			binary.LittleEndian.PutUint16(row[4*x:], p.s.sample(0, x, y)<<shift)
		}
		for x := 0; x < cw; x++ {
			binary.LittleEndian.PutUint16(row[8*x+2:], p.s.sample(1, x, y)<<shift)
			binary.LittleEndian.PutUint16(row[8*x+6:], p.s.sample(2, x, y)<<shift)
		}
	}
	return l, data
}

func (p packer) y410() (video.PlaneLayout, []byte) {
	pitch := align(4*p.w, 64)
	l := video.PlaneLayout{Pitches: [3]int{pitch}}
	data := make([]byte, pitch*p.h)
	for y := 0; y < p.dh; y++ {
		for x := 0; x < p.dw; x++ {
			px := uint32(p.s.sample(1, x, y)) | uint32(p.s.sample(0, x, y))<<10 | uint32(p.s.sample(2, x, y))<<20 | 3<<30
			binary.LittleEndian.PutUint32(data[y*pitch+4*x:], px)
		}
	}
	return l, data
}

func (p packer) y412() (video.PlaneLayout, []byte) {
	pitch := align(8*p.w, 64)
	l := video.PlaneLayout{Pitches: [3]int{pitch}}
	data := make([]byte, pitch*p.h)
	for y := 0; y < p.dh; y++ {
		for x := 0; x < p.dw; x++ {
			px := data[y*pitch+8*x:]
			binary.LittleEndian.PutUint16(px[0:], p.s.sample(1, x, y)<<4)
			binary.LittleEndian.PutUint16(px[2:], p.s.sample(0, x, y)<<4)
			binary.LittleEndian.PutUint16(px[4:], p.s.sample(2, x, y)<<4)
			binary.LittleEndian.PutUint16(px[6:], 0xfff0)
		}
	}
	return l, data
}

type mappedImage struct {
	format ports.ImageFormat
	layout video.PlaneLayout
	data   []byte
	closed bool
}

func (i *mappedImage) Format() ports.ImageFormat { return i.format }

func (i *mappedImage) Layout() video.PlaneLayout { return i.layout }

func (i *mappedImage) Data() []byte { return i.data }

func (i *mappedImage) Close() error {
	if i.closed {
		return fmt.Errorf("%w: image closed twice", ErrInvalidOperation)
	}
	i.closed = true
	i.data = nil
	return nil
}

var (
	_ ports.Surface = (*surface)(nil)
	_ ports.Image   = (*mappedImage)(nil)
)
