// Package vaapi implements ports.Device on top of libva.
//
// libva and libva-drm are loaded at runtime through purego, so the package builds without
// cgo and without VA-API development headers. Only Linux is supported; elsewhere Open
// returns ErrPlatformNotSupported.
package vaapi

import (
	"errors"
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

var (
	// ErrPlatformNotSupported is returned by Open outside Linux.
	ErrPlatformNotSupported = errors.New("vaapi: platform not supported")
	// ErrLibraryNotFound is returned when libva cannot be loaded.
	ErrLibraryNotFound = errors.New("vaapi: libva not found")
	// ErrExternalMemory is returned when surfaces are requested with external memory descriptors.
	ErrExternalMemory = errors.New("vaapi: external memory descriptors are not supported")
	// ErrForeignObject is returned for configs and surfaces created by another device.
	ErrForeignObject = errors.New("vaapi: object not created by this device")
)

// VAStatus values.
const (
	statusSuccess                int32 = 0x00
	statusOperationFailed        int32 = 0x01
	statusAllocationFailed       int32 = 0x02
	statusInvalidDisplay         int32 = 0x03
	statusInvalidConfig          int32 = 0x04
	statusInvalidContext         int32 = 0x05
	statusInvalidSurface         int32 = 0x06
	statusInvalidBuffer          int32 = 0x07
	statusInvalidImage           int32 = 0x08
	statusAttrNotSupported       int32 = 0x09
	statusUnsupportedProfile     int32 = 0x0c
	statusUnsupportedEntrypoint  int32 = 0x0d
	statusUnsupportedRTFormat    int32 = 0x0e
	statusUnsupportedBufferType  int32 = 0x0f
	statusSurfaceBusy            int32 = 0x10
	statusMaxNumExceeded         int32 = 0x11
	statusInvalidParameter       int32 = 0x12
	statusResolutionNotSupported int32 = 0x13
	statusUnimplemented          int32 = 0x14
	statusSurfaceInDisplaying    int32 = 0x15
	statusInvalidImageFormat     int32 = 0x16
	statusDecodingError          int32 = 0x17
	statusHWBusy                 int32 = 0x22
	statusUnsupportedMemoryType  int32 = 0x24
)

var statusNames = map[int32]string{
	statusOperationFailed:        "operation failed",
	statusAllocationFailed:       "resource allocation failed",
	statusInvalidDisplay:         "invalid VADisplay",
	statusInvalidConfig:          "invalid VAConfigID",
	statusInvalidContext:         "invalid VAContextID",
	statusInvalidSurface:         "invalid VASurfaceID",
	statusInvalidBuffer:          "invalid VABufferID",
	statusInvalidImage:           "invalid VAImageID",
	statusAttrNotSupported:       "attribute not supported",
	statusUnsupportedProfile:     "unsupported profile",
	statusUnsupportedEntrypoint:  "unsupported entrypoint",
	statusUnsupportedRTFormat:    "unsupported RT format",
	statusUnsupportedBufferType:  "unsupported buffer type",
	statusSurfaceBusy:            "surface is in use",
	statusMaxNumExceeded:         "maximum number exceeded",
	statusInvalidParameter:       "invalid parameter",
	statusResolutionNotSupported: "resolution not supported",
	statusUnimplemented:          "function not implemented",
	statusSurfaceInDisplaying:    "surface is in displaying",
	statusInvalidImageFormat:     "invalid image format",
	statusDecodingError:          "decoding error",
	statusHWBusy:                 "hardware busy",
	statusUnsupportedMemoryType:  "unsupported memory type",
}

// StatusError is a failed libva call.
type StatusError struct {
	Op     string
	Status int32
}

func (e *StatusError) Error() string {
	name, ok := statusNames[e.Status]
	if !ok {
		name = "unknown error"
	}
	return fmt.Sprintf("vaapi: %s: %s (0x%x)", e.Op, name, e.Status)
}

// Unsupported reports whether the driver rejected a capability rather than failing.
func (e *StatusError) Unsupported() bool {
	switch e.Status {
	case statusUnsupportedProfile, statusUnsupportedEntrypoint, statusUnsupportedRTFormat,
		statusResolutionNotSupported, statusInvalidImageFormat, statusUnsupportedMemoryType,
		statusAttrNotSupported:
		return true
	}
	return false
}

func check(op string, status int32) error {
	if status == statusSuccess {
		return nil
	}
	return &StatusError{Op: op, Status: status}
}

const (
	entrypointVLD        int32  = 1
	configAttribRTFormat int32  = 0
	attribNotSupported   uint32 = 0x80000000
	progressive          int32  = 0x1

	surfaceAttribUsageHint int32  = 8
	surfaceAttribSettable  uint32 = 0x2
	genericValueInteger    int32  = 1
)

// configAttrib mirrors VAConfigAttrib.
type configAttrib struct {
	Type  int32
	Value uint32
}

// surfaceAttrib mirrors VASurfaceAttrib with an integer VAGenericValue on a 64-bit ABI.
type surfaceAttrib struct {
	Type      int32
	Flags     uint32
	ValueType int32
	_         int32
	Value     int64
}

// imageFormat mirrors VAImageFormat.
type imageFormat struct {
	Fourcc       uint32
	ByteOrder    uint32
	BitsPerPixel uint32
	Depth        uint32
	RedMask      uint32
	GreenMask    uint32
	BlueMask     uint32
	AlphaMask    uint32
	_            [4]uint32
}

// vaImage mirrors VAImage.
type vaImage struct {
	ImageID           uint32
	Format            imageFormat
	Buf               uint32
	Width             uint16
	Height            uint16
	DataSize          uint32
	NumPlanes         uint32
	Pitches           [3]uint32
	Offsets           [3]uint32
	NumPaletteEntries int32
	EntryBytes        int32
	ComponentOrder    [4]int8
	_                 [4]uint32
}

func usageAttribs(hint ports.UsageHint) []surfaceAttrib {
	if hint == ports.UsageHintGeneric {
		return nil
	}
	return []surfaceAttrib{{
		Type:      surfaceAttribUsageHint,
		Flags:     surfaceAttribSettable,
		ValueType: genericValueInteger,
		Value:     int64(hint),
	}}
}

func (f imageFormat) port() ports.ImageFormat {
	return ports.ImageFormat{
		Fourcc:       video.Fourcc(f.Fourcc),
		ByteOrder:    f.ByteOrder,
		BitsPerPixel: f.BitsPerPixel,
	}
}

func (img *vaImage) layout() video.PlaneLayout {
	var l video.PlaneLayout
	for i := 0; i < int(min(img.NumPlanes, 3)); i++ {
		l.Pitches[i] = int(img.Pitches[i])
		l.Offsets[i] = int(img.Offsets[i])
	}
	return l
}

// rtFormatMask keeps the classes the core knows about from a VA_RT_FORMAT_* mask.
func rtFormatMask(value uint32) (video.FormatClass, bool) {
	if value&attribNotSupported != 0 {
		return 0, false
	}
	var mask video.FormatClass
	for _, c := range video.AllClasses {
		if video.FormatClass(value).Has(c) {
			mask |= c
		}
	}
	return mask, true
}

func checkAllocation(size video.Resolution, count int, descriptors []ports.MemoryDescriptor) error {
	if len(descriptors) != 0 {
		return fmt.Errorf("%w: %d descriptors", ErrExternalMemory, len(descriptors))
	}
	if count <= 0 {
		return fmt.Errorf("vaapi: invalid surface count %d", count)
	}
	if size.IsZero() {
		return fmt.Errorf("vaapi: empty surface size")
	}
	return nil
}
