//go:build !linux

package vaapi

import "github.com/user/vadecode/pkg/ports"

// DefaultRenderNode is the DRM node opened when no path is given.
const DefaultRenderNode = "/dev/dri/renderD128"

// Device is unavailable on this platform.
type Device struct {
	ports.Device
}

// Open always fails outside Linux.
func Open(path string, log ports.Logger) (*Device, error) {
	return nil, ErrPlatformNotSupported
}
