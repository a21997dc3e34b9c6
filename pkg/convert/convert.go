// Package convert turns hardware-native pixel layouts into canonical planar frames.
//
// Sources are 16-bit little-endian words with the most significant bits valid, either biplanar
// or fully packed. Destinations are tightly packed planes (Y, then U, then V) with the least
// significant bits valid. Every converter validates the destination and source sizes before
// writing anything.
package convert

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/user/vadecode/pkg/video"
)

var (
	// ErrSizeMismatch is returned when the destination is not exactly the canonical frame size.
	ErrSizeMismatch = errors.New("convert: destination size mismatch")
	// ErrShortSource is returned when the mapped source cannot hold the declared geometry.
	ErrShortSource = errors.New("convert: source buffer too short")
	// ErrUnsupportedFourcc is returned for layouts with no converter.
	ErrUnsupportedFourcc = errors.New("convert: unsupported fourcc")
)

// Layout locates the planes of a mapped source image.
type Layout = video.PlaneLayout

// CanonicalSize returns the byte size of the canonical frame a fourcc converts into.
func CanonicalSize(fourcc video.Fourcc, width, height int) (int, error) {
	f, ok := video.FormatForFourcc(fourcc)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFourcc, fourcc)
	}
	return video.FrameSize(f, width, height), nil
}

// ToCanonical converts a mapped image in the given fourcc into its canonical format.
func ToCanonical(fourcc video.Fourcc, src, dst []byte, width, height int, layout Layout) error {
	switch fourcc {
	case video.FourccNV12:
		return NV12Copy(src, dst, width, height, layout)
	case video.FourccI420:
		return I4xxCopy(src, dst, width, height, layout, true, true)
	case video.Fourcc422H:
		return I4xxCopy(src, dst, width, height, layout, true, false)
	case video.Fourcc444P:
		return I4xxCopy(src, dst, width, height, layout, false, false)
	case video.FourccP010:
		return P01xToI01x(src, dst, 10, width, height, layout)
	case video.FourccP012:
		return P01xToI01x(src, dst, 12, width, height, layout)
	case video.FourccY210:
		return Y21xToI21x(src, dst, 10, width, height, layout)
	case video.FourccY212:
		return Y21xToI21x(src, dst, 12, width, height, layout)
	case video.FourccY410:
		return Y410ToI410(src, dst, width, height, layout)
	case video.FourccY412:
		return Y412ToI412(src, dst, width, height, layout)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFourcc, fourcc)
}

func checkDst(dst []byte, want int) error {
	if len(dst) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(dst), want)
	}
	return nil
}

// checkPlane verifies rows of rowBytes each, pitch apart, fit in src starting at offset.
func checkPlane(src []byte, plane int, layout Layout, rowBytes, rows int) error {
	if rows == 0 || rowBytes == 0 {
		return nil
	}
	pitch, offset := layout.Pitches[plane], layout.Offsets[plane]
	if pitch < rowBytes {
		return fmt.Errorf("%w: plane %d pitch %d below row size %d", ErrShortSource, plane, pitch, rowBytes)
	}
	if end := offset + pitch*(rows-1) + rowBytes; offset < 0 || end > len(src) {
		return fmt.Errorf("%w: plane %d needs %d bytes, have %d", ErrShortSource, plane, end, len(src))
	}
	return nil
}

func row(src []byte, plane int, layout Layout, y int) []byte {
	return src[layout.Offsets[plane]+y*layout.Pitches[plane]:]
}

func word(b []byte, i int) uint16 {
	return binary.LittleEndian.Uint16(b[2*i:])
}

func putWord(b []byte, i int, v uint16) {
	binary.LittleEndian.PutUint16(b[2*i:], v)
}

// NV12Copy copies an 8-bit biplanar frame into a tightly packed NV12 buffer.
func NV12Copy(src, dst []byte, width, height int, layout Layout) error {
	cw, ch := video.ChromaSize(video.FormatNV12, width, height)
	if err := checkDst(dst, video.FrameSize(video.FormatNV12, width, height)); err != nil {
		return err
	}
	if err := checkPlane(src, 0, layout, width, height); err != nil {
		return err
	}
	if err := checkPlane(src, 1, layout, 2*cw, ch); err != nil {
		return err
	}

	out := dst
	for y := 0; y < height; y++ {
		out = out[copy(out, row(src, 0, layout, y)[:width]):]
	}
	for y := 0; y < ch; y++ {
		out = out[copy(out, row(src, 1, layout, y)[:2*cw]):]
	}
	return nil
}

// I4xxCopy copies an 8-bit three-plane frame with the given chroma subsampling.
func I4xxCopy(src, dst []byte, width, height int, layout Layout, subH, subV bool) error {
	cw, ch := width, height
	if subH {
		cw = (width + 1) / 2
	}
	if subV {
		ch = (height + 1) / 2
	}
	if err := checkDst(dst, width*height+2*cw*ch); err != nil {
		return err
	}
	if err := checkPlane(src, 0, layout, width, height); err != nil {
		return err
	}
	for plane := 1; plane < 3; plane++ {
		if err := checkPlane(src, plane, layout, cw, ch); err != nil {
			return err
		}
	}

	out := dst
	for y := 0; y < height; y++ {
		out = out[copy(out, row(src, 0, layout, y)[:width]):]
	}
	for plane := 1; plane < 3; plane++ {
		for y := 0; y < ch; y++ {
			out = out[copy(out, row(src, plane, layout, y)[:cw]):]
		}
	}
	return nil
}

// P01xToI01x converts P010/P012 (luma plane plus interleaved UV plane) into I010/I012.
func P01xToI01x(src, dst []byte, bits int, width, height int, layout Layout) error {
	shift := uint(16 - bits)
	// Chroma covers the luma size rounded up to even, halved in both directions.
	cw := ((width + 1) &^ 1) / 2
	ch := ((height + 1) &^ 1) / 2
	if err := checkDst(dst, 2*(width*height+2*cw*ch)); err != nil {
		return err
	}
	if err := checkPlane(src, 0, layout, 2*width, height); err != nil {
		return err
	}
	if err := checkPlane(src, 1, layout, 4*cw, ch); err != nil {
		return err
	}

	dstY := dst[:2*width*height]
	dstU := dst[2*width*height : 2*(width*height+cw*ch)]
	dstV := dst[2*(width*height+cw*ch):]

	for y := 0; y < height; y++ {
		in := row(src, 0, layout, y)
		for x := 0; x < width; x++ {
			putWord(dstY, y*width+x, word(in, x)>>shift)
		}
	}
	for y := 0; y < ch; y++ {
		in := row(src, 1, layout, y)
		for x := 0; x < cw; x++ {
			putWord(dstU, y*cw+x, word(in, 2*x)>>shift)
			putWord(dstV, y*cw+x, word(in, 2*x+1)>>shift)
		}
	}
	return nil
}

// Y21xToI21x converts packed Y210/Y212 (Y0 U Y1 V words) into I210/I212.
func Y21xToI21x(src, dst []byte, bits int, width, height int, layout Layout) error {
	shift := uint(16 - bits)
	cw := (width + 1) / 2
	if err := checkDst(dst, 2*(width*height+2*cw*height)); err != nil {
		return err
	}
	if err := checkPlane(src, 0, layout, 8*cw, height); err != nil {
		return err
	}

	dstY := dst[:2*width*height]
	dstU := dst[2*width*height : 2*(width*height+cw*height)]
	dstV := dst[2*(width*height+cw*height):]

	for y := 0; y < height; y++ {
		in := row(src, 0, layout, y)
		for x := 0; x < width; x++ {
			putWord(dstY, y*width+x, word(in, 2*x)>>shift)
		}
		for x := 0; x < cw; x++ {
			putWord(dstU, y*cw+x, word(in, 4*x+1)>>shift)
			putWord(dstV, y*cw+x, word(in, 4*x+3)>>shift)
		}
	}
	return nil
}

// Y410ToI410 converts packed Y410 into I410. Each pixel is a 32-bit word holding U in bits
// 0-9, Y in 10-19, V in 20-29 and alpha in 30-31; alpha is dropped.
func Y410ToI410(src, dst []byte, width, height int, layout Layout) error {
	plane := width * height
	if err := checkDst(dst, 6*plane); err != nil {
		return err
	}
	if err := checkPlane(src, 0, layout, 4*width, height); err != nil {
		return err
	}

	dstY, dstU, dstV := dst[:2*plane], dst[2*plane:4*plane], dst[4*plane:]
	for y := 0; y < height; y++ {
		in := row(src, 0, layout, y)
		for x := 0; x < width; x++ {
			px := binary.LittleEndian.Uint32(in[4*x:])
			i := y*width + x
			putWord(dstU, i, uint16(px&0x3ff))
			putWord(dstY, i, uint16((px>>10)&0x3ff))
			putWord(dstV, i, uint16((px>>20)&0x3ff))
		}
	}
	return nil
}

// Y412ToI412 converts packed Y412 into I412. Each pixel is four 16-bit words U, Y, V, A with
// 12 significant bits in the high end of each word; alpha is dropped.
func Y412ToI412(src, dst []byte, width, height int, layout Layout) error {
	plane := width * height
	if err := checkDst(dst, 6*plane); err != nil {
		return err
	}
	if err := checkPlane(src, 0, layout, 8*width, height); err != nil {
		return err
	}

	dstY, dstU, dstV := dst[:2*plane], dst[2*plane:4*plane], dst[4*plane:]
	for y := 0; y < height; y++ {
		in := row(src, 0, layout, y)
		for x := 0; x < width; x++ {
			i := y*width + x
			putWord(dstU, i, word(in, 4*x)>>4)
			putWord(dstY, i, word(in, 4*x+1)>>4)
			putWord(dstV, i, word(in, 4*x+2)>>4)
		}
	}
	return nil
}
