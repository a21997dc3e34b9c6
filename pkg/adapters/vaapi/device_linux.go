//go:build linux

package vaapi

import (
	"fmt"
	"os"
	"sync"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// DefaultRenderNode is the DRM node opened when no path is given.
const DefaultRenderNode = "/dev/dri/renderD128"

// Device is an initialized VA display on a DRM render node.
type Device struct {
	mu      sync.Mutex
	node    *os.File
	dpy     uintptr
	formats map[video.Fourcc]imageFormat
	closed  bool
	log     ports.Logger
}

// Open loads libva, opens the render node and initializes a display on it.
func Open(path string, log ports.Logger) (*Device, error) {
	if err := loadLibrary(); err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultRenderNode
	}

	node, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open render node: %w", err)
	}
	dpy := vaGetDisplayDRM(int32(node.Fd()))
	if dpy == 0 {
		node.Close()
		return nil, fmt.Errorf("vaapi: no display for %s", path)
	}

	var major, minor int32
	if err := check("vaInitialize", vaInitialize(dpy, &major, &minor)); err != nil {
		node.Close()
		return nil, err
	}

	d := &Device{
		node: node,
		dpy:  dpy,
		log:  log.WithComponent("vaapi"),
	}
	d.log.Info("Opened %s on %s", fmt.Sprintf("VA-API %d.%d (%s)", major, minor, d.Vendor()), path)
	return d, nil
}

// Vendor implements ports.Device.
func (d *Device) Vendor() string {
	return vaQueryVendorString(d.dpy)
}

// Profiles implements ports.Device. Only profiles with a decode entrypoint are listed.
func (d *Device) Profiles() ([]video.Profile, error) {
	n := vaMaxNumProfiles(d.dpy)
	if n <= 0 {
		return nil, nil
	}
	raw := make([]int32, n)
	if err := check("vaQueryConfigProfiles", vaQueryConfigProfiles(d.dpy, &raw[0], &n)); err != nil {
		return nil, err
	}

	known := make(map[video.Profile]bool)
	for _, p := range video.KnownProfiles() {
		known[p] = true
	}
	var profiles []video.Profile
	for _, p := range raw[:n] {
		if known[video.Profile(p)] && d.hasDecode(p) {
			profiles = append(profiles, video.Profile(p))
		}
	}
	return profiles, nil
}

func (d *Device) hasDecode(profile int32) bool {
	n := vaMaxNumEntrypoints(d.dpy)
	if n <= 0 {
		return false
	}
	entrypoints := make([]int32, n)
	if vaQueryEntrypoints(d.dpy, profile, &entrypoints[0], &n) != statusSuccess {
		return false
	}
	for _, e := range entrypoints[:n] {
		if e == entrypointVLD {
			return true
		}
	}
	return false
}

// QueryImageFormats implements ports.Device.
func (d *Device) QueryImageFormats() ([]ports.ImageFormat, error) {
	formats, err := d.imageFormats()
	if err != nil {
		return nil, err
	}
	out := make([]ports.ImageFormat, 0, len(formats))
	for _, f := range formats {
		out = append(out, f.port())
	}
	return out, nil
}

func (d *Device) imageFormats() ([]imageFormat, error) {
	n := vaMaxNumImageFormats(d.dpy)
	if n <= 0 {
		return nil, nil
	}
	formats := make([]imageFormat, n)
	if err := check("vaQueryImageFormats", vaQueryImageFormats(d.dpy, &formats[0], &n)); err != nil {
		return nil, err
	}
	formats = formats[:n]

	d.mu.Lock()
	d.formats = make(map[video.Fourcc]imageFormat, len(formats))
	for _, f := range formats {
		d.formats[video.Fourcc(f.Fourcc)] = f
	}
	d.mu.Unlock()
	return formats, nil
}

func (d *Device) lookupFormat(fourcc video.Fourcc) (imageFormat, error) {
	d.mu.Lock()
	f, ok := d.formats[fourcc]
	d.mu.Unlock()
	if ok {
		return f, nil
	}
	if _, err := d.imageFormats(); err != nil {
		return imageFormat{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.formats[fourcc]; ok {
		return f, nil
	}
	return imageFormat{}, &StatusError{Op: "vaCreateImage " + fourcc.String(), Status: statusInvalidImageFormat}
}

// SupportedFormatClasses implements ports.Device.
func (d *Device) SupportedFormatClasses(profile video.Profile) (video.FormatClass, error) {
	attribs := []configAttrib{{Type: configAttribRTFormat}}
	status := vaGetConfigAttributes(d.dpy, int32(profile), entrypointVLD, &attribs[0], 1)
	if err := check("vaGetConfigAttributes", status); err != nil {
		return 0, err
	}
	mask, ok := rtFormatMask(attribs[0].Value)
	if !ok {
		return 0, &StatusError{Op: "vaGetConfigAttributes " + profile.String(), Status: statusAttrNotSupported}
	}
	return mask, nil
}

// CreateConfig implements ports.Device.
func (d *Device) CreateConfig(profile video.Profile, class video.FormatClass) (ports.Config, error) {
	attribs := []configAttrib{{Type: configAttribRTFormat, Value: uint32(class)}}
	var id uint32
	if err := check("vaCreateConfig", vaCreateConfig(d.dpy, int32(profile), entrypointVLD, &attribs[0], 1, &id)); err != nil {
		return nil, err
	}
	return &config{dev: d, id: id, profile: profile, class: class}, nil
}

// CreateContext implements ports.Device.
func (d *Device) CreateContext(cfg ports.Config, coded video.Resolution) (ports.Context, error) {
	c, ok := cfg.(*config)
	if !ok || c.dev != d {
		return nil, ErrForeignObject
	}
	var id uint32
	status := vaCreateContext(d.dpy, c.id, int32(coded.Width), int32(coded.Height), progressive, nil, 0, &id)
	if err := check("vaCreateContext", status); err != nil {
		return nil, err
	}
	return &decodeContext{dev: d, id: id}, nil
}

// CreateSurfaces implements ports.SurfaceAllocator. External memory is not supported.
func (d *Device) CreateSurfaces(class video.FormatClass, size video.Resolution, hint ports.UsageHint, count int, descriptors []ports.MemoryDescriptor) ([]ports.Surface, error) {
	if err := checkAllocation(size, count, descriptors); err != nil {
		return nil, err
	}

	ids := make([]uint32, count)
	attribs := usageAttribs(hint)
	var attribPtr *surfaceAttrib
	if len(attribs) > 0 {
		attribPtr = &attribs[0]
	}
	status := vaCreateSurfaces(d.dpy, uint32(class), size.Width, size.Height, &ids[0], uint32(count), attribPtr, uint32(len(attribs)))
	if err := check("vaCreateSurfaces", status); err != nil {
		return nil, err
	}

	surfaces := make([]ports.Surface, count)
	for i, id := range ids {
		surfaces[i] = &surface{dev: d, id: id, size: size}
	}
	d.log.Debug("Created %d %s surfaces at %s (hint 0x%x)", count, class, size, uint32(hint))
	return surfaces, nil
}

// Close terminates the display and closes the render node.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	err := check("vaTerminate", vaTerminate(d.dpy))
	if err != nil {
		d.log.Warn("Failed to terminate display: %v", err)
	}
	if cerr := d.node.Close(); err == nil {
		err = cerr
	}
	d.log.Debug("Device closed")
	return err
}

var _ ports.Device = (*Device)(nil)
