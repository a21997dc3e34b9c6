//go:build linux

package vaapi

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	libOnce sync.Once
	libErr  error
)

// libva entry points.
var (
	vaGetDisplayDRM func(fd int32) uintptr

	vaInitialize          func(dpy uintptr, major, minor *int32) int32
	vaTerminate           func(dpy uintptr) int32
	vaQueryVendorString   func(dpy uintptr) string
	vaMaxNumProfiles      func(dpy uintptr) int32
	vaQueryConfigProfiles func(dpy uintptr, profiles *int32, num *int32) int32
	vaMaxNumEntrypoints   func(dpy uintptr) int32
	vaQueryEntrypoints    func(dpy uintptr, profile int32, entrypoints *int32, num *int32) int32
	vaGetConfigAttributes func(dpy uintptr, profile, entrypoint int32, attribs *configAttrib, num int32) int32
	vaMaxNumImageFormats  func(dpy uintptr) int32
	vaQueryImageFormats   func(dpy uintptr, formats *imageFormat, num *int32) int32

	vaCreateConfig   func(dpy uintptr, profile, entrypoint int32, attribs *configAttrib, num int32, id *uint32) int32
	vaDestroyConfig  func(dpy uintptr, id uint32) int32
	vaCreateContext  func(dpy uintptr, config uint32, width, height, flag int32, targets *uint32, numTargets int32, id *uint32) int32
	vaDestroyContext func(dpy uintptr, id uint32) int32

	vaCreateSurfaces     func(dpy uintptr, format, width, height uint32, surfaces *uint32, num uint32, attribs *surfaceAttrib, numAttribs uint32) int32
	vaDestroySurfaces    func(dpy uintptr, surfaces *uint32, num int32) int32
	vaQuerySurfaceStatus func(dpy uintptr, surface uint32, status *uint32) int32
	vaSyncSurface        func(dpy uintptr, surface uint32) int32

	vaCreateBuffer  func(dpy uintptr, context uint32, typ int32, size, numElements uint32, data unsafe.Pointer, id *uint32) int32
	vaDestroyBuffer func(dpy uintptr, id uint32) int32
	vaBeginPicture  func(dpy uintptr, context, target uint32) int32
	vaRenderPicture func(dpy uintptr, context uint32, buffers *uint32, num int32) int32
	vaEndPicture    func(dpy uintptr, context uint32) int32

	vaCreateImage  func(dpy uintptr, format *imageFormat, width, height int32, image *vaImage) int32
	vaGetImage     func(dpy uintptr, surface uint32, x, y int32, width, height uint32, image uint32) int32
	vaDestroyImage func(dpy uintptr, image uint32) int32
	vaMapBuffer    func(dpy uintptr, buf uint32, data *unsafe.Pointer) int32
	vaUnmapBuffer  func(dpy uintptr, buf uint32) int32
)

func loadLibrary() error {
	libOnce.Do(func() {
		libErr = loadLibva()
	})
	return libErr
}

func loadLibva() error {
	va, err := dlopenFirst(envOr("VADECODE_LIBVA", "libva.so.2"), "libva.so")
	if err != nil {
		return err
	}
	drm, err := dlopenFirst(envOr("VADECODE_LIBVA_DRM", "libva-drm.so.2"), "libva-drm.so")
	if err != nil {
		purego.Dlclose(va)
		return err
	}

	purego.RegisterLibFunc(&vaGetDisplayDRM, drm, "vaGetDisplayDRM")

	purego.RegisterLibFunc(&vaInitialize, va, "vaInitialize")
	purego.RegisterLibFunc(&vaTerminate, va, "vaTerminate")
	purego.RegisterLibFunc(&vaQueryVendorString, va, "vaQueryVendorString")
	purego.RegisterLibFunc(&vaMaxNumProfiles, va, "vaMaxNumProfiles")
	purego.RegisterLibFunc(&vaQueryConfigProfiles, va, "vaQueryConfigProfiles")
	purego.RegisterLibFunc(&vaMaxNumEntrypoints, va, "vaMaxNumEntrypoints")
	purego.RegisterLibFunc(&vaQueryEntrypoints, va, "vaQueryConfigEntrypoints")
	purego.RegisterLibFunc(&vaGetConfigAttributes, va, "vaGetConfigAttributes")
	purego.RegisterLibFunc(&vaMaxNumImageFormats, va, "vaMaxNumImageFormats")
	purego.RegisterLibFunc(&vaQueryImageFormats, va, "vaQueryImageFormats")

	purego.RegisterLibFunc(&vaCreateConfig, va, "vaCreateConfig")
	purego.RegisterLibFunc(&vaDestroyConfig, va, "vaDestroyConfig")
	purego.RegisterLibFunc(&vaCreateContext, va, "vaCreateContext")
	purego.RegisterLibFunc(&vaDestroyContext, va, "vaDestroyContext")

	purego.RegisterLibFunc(&vaCreateSurfaces, va, "vaCreateSurfaces")
	purego.RegisterLibFunc(&vaDestroySurfaces, va, "vaDestroySurfaces")
	purego.RegisterLibFunc(&vaQuerySurfaceStatus, va, "vaQuerySurfaceStatus")
	purego.RegisterLibFunc(&vaSyncSurface, va, "vaSyncSurface")

	purego.RegisterLibFunc(&vaCreateBuffer, va, "vaCreateBuffer")
	purego.RegisterLibFunc(&vaDestroyBuffer, va, "vaDestroyBuffer")
	purego.RegisterLibFunc(&vaBeginPicture, va, "vaBeginPicture")
	purego.RegisterLibFunc(&vaRenderPicture, va, "vaRenderPicture")
	purego.RegisterLibFunc(&vaEndPicture, va, "vaEndPicture")

	purego.RegisterLibFunc(&vaCreateImage, va, "vaCreateImage")
	purego.RegisterLibFunc(&vaGetImage, va, "vaGetImage")
	purego.RegisterLibFunc(&vaDestroyImage, va, "vaDestroyImage")
	purego.RegisterLibFunc(&vaMapBuffer, va, "vaMapBuffer")
	purego.RegisterLibFunc(&vaUnmapBuffer, va, "vaUnmapBuffer")
	return nil
}

func dlopenFirst(names ...string) (uintptr, error) {
	var lastErr error
	for _, name := range names {
		handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: %v", ErrLibraryNotFound, lastErr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
