package filesink

import (
	"bytes"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

const captionHeight = 16

// RenderPreview converts a canonical frame to RGBA, scaled to width (keeping the aspect ratio)
// when width is positive.
func RenderPreview(f ports.Frame, width int, caption bool) (*image.RGBA, error) {
	w, h := int(f.Size.Width), int(f.Size.Height)
	src, err := video.ToYCbCr(f.Format, f.Data, w, h)
	if err != nil {
		return nil, err
	}

	dw, dh := w, h
	if width > 0 && width != w {
		dw = width
		dh = max(1, h*width/w)
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	if dw == w && dh == h {
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	if caption && dh > captionHeight {
		dc := gg.NewContextForRGBA(dst)
		dc.SetRGBA(0, 0, 0, 0.6)
		dc.DrawRectangle(0, float64(dh-captionHeight), float64(dw), captionHeight)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		label := fmt.Sprintf("#%d  ts %d  %s", f.Index, f.Timestamp, f.Format)
		dc.DrawStringAnchored(label, 4, float64(dh)-captionHeight/2, 0, 0.35)
	}
	return dst, nil
}

// EncodePreview renders a frame and encodes it as BMP.
func EncodePreview(f ports.Frame, width int, caption bool) ([]byte, error) {
	img, err := RenderPreview(f, width, caption)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode BMP: %w", err)
	}
	return buf.Bytes(), nil
}
