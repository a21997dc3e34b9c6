// Package simdevice is a software stand-in for a hardware decode device.
//
// Surfaces hold planar samples. Ending a picture fills its target with a deterministic
// pattern derived from the slice data, and completion is either timed or driven by the
// caller. Images are packed into the same native layouts a VA-API driver produces, so the
// conversion path is exercised exactly as with real hardware.
package simdevice

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

var (
	// ErrUnsupportedProfile is returned for profiles missing from Options.Profiles.
	ErrUnsupportedProfile = errors.New("simdevice: unsupported profile")
	// ErrUnsupportedClass is returned when a config asks for a class its profile lacks.
	ErrUnsupportedClass = errors.New("simdevice: unsupported format class")
	// ErrUnsupportedMemory is returned for DMA-BUF descriptors.
	ErrUnsupportedMemory = errors.New("simdevice: unsupported memory type")
	// ErrIncompatibleImage is returned when mapping into a layout of another class.
	ErrIncompatibleImage = errors.New("simdevice: image format incompatible with surface")
	// ErrInvalidOperation is returned for calls out of sequence.
	ErrInvalidOperation = errors.New("simdevice: invalid operation")
	// ErrDecodeFailed is reported by Sync for surfaces marked with Fail.
	ErrDecodeFailed = errors.New("simdevice: decode failed")
)

// DefaultProfiles returns the profile table of a typical driver.
func DefaultProfiles() map[video.Profile]video.FormatClass {
	return map[video.Profile]video.FormatClass{
		video.ProfileH264Main:                video.ClassYUV420,
		video.ProfileH264High:                video.ClassYUV420,
		video.ProfileH264ConstrainedBaseline: video.ClassYUV420,
		video.ProfileVP8:                     video.ClassYUV420,
		video.ProfileHEVCMain:                video.ClassYUV420,
		video.ProfileHEVCMain10:              video.ClassYUV420 | video.ClassYUV420_10,
		video.ProfileHEVCMain12:              video.ClassYUV420_12,
		video.ProfileHEVCMain422_10:          video.ClassYUV422_10,
		video.ProfileHEVCMain422_12:          video.ClassYUV422_12,
		video.ProfileHEVCMain444:             video.ClassYUV444,
		video.ProfileHEVCMain444_10:          video.ClassYUV444_10,
		video.ProfileHEVCMain444_12:          video.ClassYUV444_12,
		video.ProfileVP9Profile0:             video.ClassYUV420,
		video.ProfileVP9Profile1:             video.ClassYUV422 | video.ClassYUV444,
		video.ProfileVP9Profile2:             video.ClassYUV420_10 | video.ClassYUV420_12,
		video.ProfileVP9Profile3:             video.ClassYUV422_10 | video.ClassYUV444_10 | video.ClassYUV422_12 | video.ClassYUV444_12,
		video.ProfileAV1Profile0:             video.ClassYUV420 | video.ClassYUV420_10,
		video.ProfileAV1Profile1:             video.ClassYUV444 | video.ClassYUV444_10,
	}
}

// DefaultImageFormats lists every layout the device can map into.
func DefaultImageFormats() []video.Fourcc {
	return []video.Fourcc{
		video.FourccNV12, video.FourccI420, video.Fourcc422H, video.Fourcc444P,
		video.FourccP010, video.FourccP012, video.FourccY210, video.FourccY212,
		video.FourccY410, video.FourccY412,
	}
}

// Options configures the simulated device.
type Options struct {
	// Profiles maps each supported profile to the classes its decode entrypoint accepts.
	// Nil means DefaultProfiles.
	Profiles map[video.Profile]video.FormatClass
	// ImageFormats lists the mappable layouts. Nil means DefaultImageFormats.
	ImageFormats []video.Fourcc
	// Latency is how long a picture takes to complete after EndPicture.
	Latency time.Duration
	// Manual leaves pictures rendering until Complete or CompleteAll is called.
	Manual bool
}

// Stats counts hardware objects created by the device.
type Stats struct {
	Configs  int
	Contexts int
	Surfaces int
	Live     int
	Pictures int
}

// Device is the simulated device.
type Device struct {
	mu       sync.Mutex
	done     *sync.Cond
	opts     Options
	nextID   ports.SurfaceID
	surfaces map[ports.SurfaceID]*surface
	stats    Stats
	closed   bool
	log      ports.Logger
	now      func() time.Time
}

// New creates a simulated device.
func New(opts Options, log ports.Logger) *Device {
	if opts.Profiles == nil {
		opts.Profiles = DefaultProfiles()
	}
	if opts.ImageFormats == nil {
		opts.ImageFormats = DefaultImageFormats()
	}
	d := &Device{
		opts:     opts,
		nextID:   1,
		surfaces: make(map[ports.SurfaceID]*surface),
		log:      log.WithComponent("simdevice"),
		now:      time.Now,
	}
	d.done = sync.NewCond(&d.mu)
	return d
}

// Vendor implements ports.Device.
func (d *Device) Vendor() string {
	if d.opts.Manual {
		return "simulated device (manual completion)"
	}
	return fmt.Sprintf("simulated device (%s latency)", d.opts.Latency)
}

// Profiles implements ports.Device.
func (d *Device) Profiles() ([]video.Profile, error) {
	var profiles []video.Profile
	for _, p := range video.KnownProfiles() {
		if _, ok := d.opts.Profiles[p]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

// QueryImageFormats implements ports.Device.
func (d *Device) QueryImageFormats() ([]ports.ImageFormat, error) {
	formats := make([]ports.ImageFormat, 0, len(d.opts.ImageFormats))
	for _, f := range d.opts.ImageFormats {
		dec, ok := video.FormatForFourcc(f)
		if !ok {
			continue
		}
		formats = append(formats, ports.ImageFormat{
			Fourcc:       f,
			ByteOrder:    1,
			BitsPerPixel: uint32(dec.BytesPerSample() * 8),
		})
	}
	return formats, nil
}

// SupportedFormatClasses implements ports.Device.
func (d *Device) SupportedFormatClasses(profile video.Profile) (video.FormatClass, error) {
	mask, ok := d.opts.Profiles[profile]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedProfile, profile)
	}
	return mask, nil
}

// CreateConfig implements ports.Device.
func (d *Device) CreateConfig(profile video.Profile, class video.FormatClass) (ports.Config, error) {
	mask, err := d.SupportedFormatClasses(profile)
	if err != nil {
		return nil, err
	}
	if !mask.Has(class) {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedClass, class, profile)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Configs++
	return &config{profile: profile, class: class}, nil
}

// CreateContext implements ports.Device.
func (d *Device) CreateContext(cfg ports.Config, coded video.Resolution) (ports.Context, error) {
	c, ok := cfg.(*config)
	if !ok || c.destroyed {
		return nil, fmt.Errorf("%w: config not created by this device", ErrInvalidOperation)
	}
	if coded.IsZero() {
		return nil, fmt.Errorf("%w: empty coded size", ErrInvalidOperation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Contexts++
	return &decodeContext{dev: d, cfg: c, coded: coded}, nil
}

// CreateSurfaces implements ports.SurfaceAllocator. User pointer descriptors must be large
// enough for a packed canonical frame; completed pictures are mirrored into them.
func (d *Device) CreateSurfaces(class video.FormatClass, size video.Resolution, hint ports.UsageHint, count int, descriptors []ports.MemoryDescriptor) ([]ports.Surface, error) {
	format, ok := class.DecodedFormat()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedClass, class)
	}
	if size.IsZero() {
		return nil, fmt.Errorf("%w: empty surface size", ErrInvalidOperation)
	}
	if len(descriptors) != 0 && len(descriptors) != count {
		return nil, fmt.Errorf("%w: %d descriptors for %d surfaces", ErrInvalidOperation, len(descriptors), count)
	}

	frameSize := video.FrameSize(format, int(size.Width), int(size.Height))
	backing := make([][]byte, count)
	for i, desc := range descriptors {
		mem, ok := desc.(ports.UserPtrFrame)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedMemory, desc)
		}
		if len(mem.Data) < frameSize {
			return nil, fmt.Errorf("%w: user memory of %d bytes for a %d byte frame", ErrInvalidOperation, len(mem.Data), frameSize)
		}
		backing[i] = mem.Data
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("%w: device closed", ErrInvalidOperation)
	}

	surfaces := make([]ports.Surface, count)
	for i := range surfaces {
		s := newSurface(d, d.nextID, class, format, size, backing[i])
		d.surfaces[s.id] = s
		d.nextID++
		surfaces[i] = s
	}
	d.stats.Surfaces += count
	d.stats.Live += count
	d.log.Debug("Created %d %s surfaces at %s (hint 0x%x)", count, class, size, uint32(hint))
	return surfaces, nil
}

// Close implements ports.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.done.Broadcast()
	return nil
}

// Stats returns the creation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Complete marks a rendering surface as finished.
func (d *Device) Complete(id ports.SurfaceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.surfaces[id]; ok && s.pending {
		s.pending = false
		d.done.Broadcast()
	}
}

// CompleteAll finishes every rendering surface.
func (d *Device) CompleteAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.surfaces {
		s.pending = false
	}
	d.done.Broadcast()
}

// Fail makes the current picture on a surface fail when synced.
func (d *Device) Fail(id ports.SurfaceID, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.surfaces[id]; ok {
		s.failure = fmt.Errorf("%w: %w", ErrDecodeFailed, err)
		s.pending = false
		d.done.Broadcast()
	}
}

type config struct {
	profile   video.Profile
	class     video.FormatClass
	destroyed bool
}

func (c *config) Profile() video.Profile         { return c.profile }
func (c *config) FormatClass() video.FormatClass { return c.class }

func (c *config) Destroy() error {
	if c.destroyed {
		return fmt.Errorf("%w: config destroyed twice", ErrInvalidOperation)
	}
	c.destroyed = true
	return nil
}

var (
	_ ports.Device = (*Device)(nil)
	_ ports.Config = (*config)(nil)
)
