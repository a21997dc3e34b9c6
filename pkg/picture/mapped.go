package picture

import (
	"github.com/user/vadecode/pkg/convert"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// Mapped is a CPU view of a ready picture in the negotiated layout.
type Mapped struct {
	image   ports.Image
	fourcc  video.Fourcc
	display video.Resolution
}

// Size returns the byte size of the canonical frame Read produces.
func (m *Mapped) Size() int {
	n, err := convert.CanonicalSize(m.fourcc, int(m.display.Width), int(m.display.Height))
	if err != nil {
		return 0
	}
	return n
}

// Read converts the mapped image into dst. A wrong-sized dst fails before anything is written.
func (m *Mapped) Read(dst []byte) error {
	return convert.ToCanonical(m.fourcc, m.image.Data(), dst, int(m.display.Width), int(m.display.Height), m.image.Layout())
}

// Close unmaps the image.
func (m *Mapped) Close() error {
	return m.image.Close()
}
