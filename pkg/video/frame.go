package video

import (
	"errors"
	"image"
)

// PlaneLayout locates up to three planes inside a mapped buffer.
type PlaneLayout struct {
	Pitches [3]int
	Offsets [3]int
}

// ChromaSize returns the dimensions of one chroma plane of f for a width x height picture.
func ChromaSize(f DecodedFormat, width, height int) (int, int) {
	h, v := f.Subsampling()
	cw, ch := width, height
	if h {
		cw = (width + 1) / 2
	}
	if v {
		ch = (height + 1) / 2
	}
	return cw, ch
}

// FrameSize returns the byte size of a tightly packed width x height frame in f.
func FrameSize(f DecodedFormat, width, height int) int {
	cw, ch := ChromaSize(f, width, height)
	return (width*height + 2*cw*ch) * f.BytesPerSample()
}

// ErrFrameTooShort is returned when a canonical frame buffer is smaller than its geometry.
var ErrFrameTooShort = errors.New("video: frame buffer shorter than expected")

// ToYCbCr wraps an 8-bit canonical frame into an image.YCbCr for previews. High bit depth
// samples are reduced to their eight most significant bits.
func ToYCbCr(f DecodedFormat, data []byte, width, height int) (*image.YCbCr, error) {
	if len(data) < FrameSize(f, width, height) {
		return nil, ErrFrameTooShort
	}

	ratio := image.YCbCrSubsampleRatio444
	switch h, v := f.Subsampling(); {
	case h && v:
		ratio = image.YCbCrSubsampleRatio420
	case h:
		ratio = image.YCbCrSubsampleRatio422
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), ratio)
	cw, ch := ChromaSize(f, width, height)
	ySize := width * height
	cSize := cw * ch

	switch {
	case f == FormatNV12:
		copy(img.Y, data[:ySize])
		uv := data[ySize:]
		for i := 0; i < cSize; i++ {
			img.Cb[i] = uv[2*i]
			img.Cr[i] = uv[2*i+1]
		}
	case f.BytesPerSample() == 1:
		copy(img.Y, data[:ySize])
		copy(img.Cb, data[ySize:ySize+cSize])
		copy(img.Cr, data[ySize+cSize:ySize+2*cSize])
	default:
		shift := uint(f.BitDepth() - 8)
		narrow := func(dst []byte, src []byte) {
			for i := range dst {
				dst[i] = byte((uint16(src[2*i]) | uint16(src[2*i+1])<<8) >> shift)
			}
		}
		narrow(img.Y, data[:2*ySize])
		narrow(img.Cb, data[2*ySize:2*(ySize+cSize)])
		narrow(img.Cr, data[2*(ySize+cSize):2*(ySize+2*cSize)])
	}

	return img, nil
}
