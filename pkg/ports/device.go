package ports

import (
	"image"

	"github.com/user/vadecode/pkg/video"
)

// SurfaceID identifies a surface on its device.
type SurfaceID uint32

// UsageHint tells the driver how a surface will be used. Values match VA_SURFACE_ATTRIB_USAGE_HINT_*.
type UsageHint uint32

const (
	UsageHintGeneric UsageHint = 0x00
	UsageHintDecoder UsageHint = 0x01
	UsageHintDisplay UsageHint = 0x10
	UsageHintExport  UsageHint = 0x20
)

// SurfaceStatus is the completion state reported by the device. Values match VASurfaceStatus.
type SurfaceStatus uint32

const (
	SurfaceRendering  SurfaceStatus = 1
	SurfaceDisplaying SurfaceStatus = 2
	SurfaceReady      SurfaceStatus = 4
	SurfaceSkipped    SurfaceStatus = 8
)

func (s SurfaceStatus) String() string {
	switch s {
	case SurfaceRendering:
		return "rendering"
	case SurfaceDisplaying:
		return "displaying"
	case SurfaceReady:
		return "ready"
	case SurfaceSkipped:
		return "skipped"
	}
	return "unknown"
}

// BufferType identifies the content of a submission buffer. Values match VABufferType.
type BufferType int32

const (
	BufferPictureParameter BufferType = 0
	BufferIQMatrix         BufferType = 1
	BufferSliceParameter   BufferType = 4
	BufferSliceData        BufferType = 5
	BufferHuffmanTable     BufferType = 9
	BufferProbability      BufferType = 13
)

// Buffer is one parameter or data buffer attached to a picture submission.
type Buffer struct {
	Type BufferType
	Data []byte
	// NumElements splits Data into equally sized elements; zero means one.
	NumElements int
}

// ImageFormat is a layout the driver can map surfaces into.
type ImageFormat struct {
	Fourcc       video.Fourcc
	ByteOrder    uint32
	BitsPerPixel uint32
}

// MemoryType names the backing of an external memory descriptor.
type MemoryType int

const (
	MemoryUserPtr MemoryType = iota
	MemoryDmabuf
)

// MemoryDescriptor describes caller-provided backing memory for one surface.
type MemoryDescriptor interface {
	MemoryType() MemoryType
}

// UserPtrFrame backs a surface with a caller-owned byte slice.
type UserPtrFrame struct {
	Data   []byte
	Layout video.PlaneLayout
}

// MemoryType implements MemoryDescriptor.
func (UserPtrFrame) MemoryType() MemoryType { return MemoryUserPtr }

// DmabufFrame backs a surface with an exported DMA-BUF.
type DmabufFrame struct {
	FD       int
	Size     int
	Modifier uint64
	Layout   video.PlaneLayout
}

// MemoryType implements MemoryDescriptor.
func (DmabufFrame) MemoryType() MemoryType { return MemoryDmabuf }

// SurfaceAllocator creates surfaces. Pools only need this part of a Device.
type SurfaceAllocator interface {
	// CreateSurfaces allocates count surfaces. descriptors is either empty or has count entries.
	CreateSurfaces(class video.FormatClass, size video.Resolution, hint UsageHint, count int, descriptors []MemoryDescriptor) ([]Surface, error)
}

// Device is a hardware acceleration device.
type Device interface {
	SurfaceAllocator

	// Vendor returns a human readable driver description.
	Vendor() string

	// Profiles lists the profiles the driver knows.
	Profiles() ([]video.Profile, error)

	// QueryImageFormats lists the layouts surfaces can be mapped into.
	QueryImageFormats() ([]ImageFormat, error)

	// SupportedFormatClasses returns the mask of format classes the decode entrypoint of
	// profile accepts.
	SupportedFormatClasses(profile video.Profile) (video.FormatClass, error)

	// CreateConfig creates a decode configuration.
	CreateConfig(profile video.Profile, class video.FormatClass) (Config, error)

	// CreateContext creates a decode context operating at coded.
	CreateContext(cfg Config, coded video.Resolution) (Context, error)

	// Close releases the device.
	Close() error
}

// Config is a decode configuration.
type Config interface {
	Profile() video.Profile
	FormatClass() video.FormatClass
	Destroy() error
}

// Context executes picture submissions.
type Context interface {
	BeginPicture(target Surface) error
	RenderPicture(buffers []Buffer) error
	EndPicture() error
	Destroy() error
}

// Surface is a hardware buffer usable as a decode target.
type Surface interface {
	ID() SurfaceID
	Size() video.Resolution

	// Status polls completion without blocking.
	Status() (SurfaceStatus, error)

	// Sync blocks until all pending work on the surface has completed.
	Sync() error

	// CreateImage maps the display area of the surface into format. The image must be
	// closed before the surface is reused.
	CreateImage(format ImageFormat, coded, display video.Resolution) (Image, error)

	Destroy() error
}

// Image is a CPU mapping of a surface.
type Image interface {
	Format() ImageFormat
	Layout() video.PlaneLayout
	Data() []byte
	Close() error
}

// StreamParams is what the codec state machine knows about a sequence.
type StreamParams interface {
	Profile() (video.Profile, error)
	FormatClass() (video.FormatClass, error)
	MinNumSurfaces() int
	CodedSize() video.Resolution
	VisibleRect() image.Rectangle
}
