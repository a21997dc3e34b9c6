package mocks

import (
	"errors"
	"sync"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// Device is a mock implementation of ports.Device. Without hooks it accepts every profile
// and class, can map into every known fourcc and hands out Surface mocks with increasing IDs.
type Device struct {
	mu     sync.Mutex
	nextID ports.SurfaceID

	QueryImageFormatsFunc      func() ([]ports.ImageFormat, error)
	SupportedFormatClassesFunc func(profile video.Profile) (video.FormatClass, error)
	CreateConfigFunc           func(profile video.Profile, class video.FormatClass) (ports.Config, error)
	CreateContextFunc          func(cfg ports.Config, coded video.Resolution) (ports.Context, error)
	CreateSurfacesFunc         func(class video.FormatClass, size video.Resolution, hint ports.UsageHint, count int, descriptors []ports.MemoryDescriptor) ([]ports.Surface, error)

	// Recorded calls for verification
	Configs  []*Config
	Contexts []*Context
	Surfaces []*Surface
	Closed   bool
}

// NewDevice creates a new mock Device.
func NewDevice() *Device {
	return &Device{nextID: 1}
}

func (m *Device) Vendor() string {
	return "mock device"
}

func (m *Device) Profiles() ([]video.Profile, error) {
	return video.KnownProfiles(), nil
}

func (m *Device) QueryImageFormats() ([]ports.ImageFormat, error) {
	if m.QueryImageFormatsFunc != nil {
		return m.QueryImageFormatsFunc()
	}
	var formats []ports.ImageFormat
	for _, f := range []video.Fourcc{
		video.FourccNV12, video.FourccI420, video.Fourcc422H, video.Fourcc444P,
		video.FourccP010, video.FourccP012, video.FourccY210, video.FourccY212,
		video.FourccY410, video.FourccY412,
	} {
		formats = append(formats, ports.ImageFormat{Fourcc: f})
	}
	return formats, nil
}

func (m *Device) SupportedFormatClasses(profile video.Profile) (video.FormatClass, error) {
	if m.SupportedFormatClassesFunc != nil {
		return m.SupportedFormatClassesFunc(profile)
	}
	var mask video.FormatClass
	for _, c := range video.AllClasses {
		mask |= c
	}
	return mask, nil
}

func (m *Device) CreateConfig(profile video.Profile, class video.FormatClass) (ports.Config, error) {
	if m.CreateConfigFunc != nil {
		return m.CreateConfigFunc(profile, class)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := &Config{profile: profile, class: class}
	m.Configs = append(m.Configs, cfg)
	return cfg, nil
}

func (m *Device) CreateContext(cfg ports.Config, coded video.Resolution) (ports.Context, error) {
	if m.CreateContextFunc != nil {
		return m.CreateContextFunc(cfg, coded)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx := &Context{Coded: coded}
	m.Contexts = append(m.Contexts, ctx)
	return ctx, nil
}

func (m *Device) CreateSurfaces(class video.FormatClass, size video.Resolution, hint ports.UsageHint, count int, descriptors []ports.MemoryDescriptor) ([]ports.Surface, error) {
	if m.CreateSurfacesFunc != nil {
		return m.CreateSurfacesFunc(class, size, hint, count, descriptors)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	surfaces := make([]ports.Surface, 0, count)
	for i := 0; i < count; i++ {
		s := NewSurface(m.nextID, size)
		m.nextID++
		m.Surfaces = append(m.Surfaces, s)
		surfaces = append(surfaces, s)
	}
	return surfaces, nil
}

func (m *Device) Close() error {
	m.Closed = true
	return nil
}

// NumDestroyedSurfaces counts surfaces that have been destroyed (for test verification).
func (m *Device) NumDestroyedSurfaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Surfaces {
		if s.IsDestroyed() {
			n++
		}
	}
	return n
}

// Config is a mock implementation of ports.Config.
type Config struct {
	profile   video.Profile
	class     video.FormatClass
	Destroyed bool
}

// NewConfig creates a config mock for hooks that need one.
func NewConfig(profile video.Profile, class video.FormatClass) *Config {
	return &Config{profile: profile, class: class}
}

func (c *Config) Profile() video.Profile         { return c.profile }
func (c *Config) FormatClass() video.FormatClass { return c.class }

func (c *Config) Destroy() error {
	c.Destroyed = true
	return nil
}

// Context is a mock implementation of ports.Context.
type Context struct {
	Coded video.Resolution

	BeginPictureFunc  func(target ports.Surface) error
	RenderPictureFunc func(buffers []ports.Buffer) error
	EndPictureFunc    func() error

	// Recorded calls for verification
	Targets   []ports.SurfaceID
	Rendered  [][]ports.Buffer
	Ended     int
	Destroyed bool
}

func (c *Context) BeginPicture(target ports.Surface) error {
	c.Targets = append(c.Targets, target.ID())
	if c.BeginPictureFunc != nil {
		return c.BeginPictureFunc(target)
	}
	return nil
}

func (c *Context) RenderPicture(buffers []ports.Buffer) error {
	c.Rendered = append(c.Rendered, buffers)
	if c.RenderPictureFunc != nil {
		return c.RenderPictureFunc(buffers)
	}
	return nil
}

func (c *Context) EndPicture() error {
	c.Ended++
	if c.EndPictureFunc != nil {
		return c.EndPictureFunc()
	}
	return nil
}

func (c *Context) Destroy() error {
	c.Destroyed = true
	return nil
}

// ErrDestroyed is returned by a Surface mock used after Destroy.
var ErrDestroyed = errors.New("mocks: surface destroyed")

// Surface is a mock implementation of ports.Surface. It starts in the ready state.
type Surface struct {
	mu        sync.Mutex
	id        ports.SurfaceID
	size      video.Resolution
	status    ports.SurfaceStatus
	destroyed bool

	StatusFunc      func() (ports.SurfaceStatus, error)
	SyncFunc        func() error
	CreateImageFunc func(format ports.ImageFormat, coded, display video.Resolution) (ports.Image, error)

	// Recorded calls for verification
	SyncCalls int
}

// NewSurface creates a ready surface.
func NewSurface(id ports.SurfaceID, size video.Resolution) *Surface {
	return &Surface{id: id, size: size, status: ports.SurfaceReady}
}

func (s *Surface) ID() ports.SurfaceID    { return s.id }
func (s *Surface) Size() video.Resolution { return s.size }

// SetStatus changes the status reported by Status and lets Sync complete.
func (s *Surface) SetStatus(status ports.SurfaceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Surface) Status() (ports.SurfaceStatus, error) {
	if s.StatusFunc != nil {
		return s.StatusFunc()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, nil
}

func (s *Surface) Sync() error {
	s.mu.Lock()
	s.SyncCalls++
	s.mu.Unlock()
	if s.SyncFunc != nil {
		return s.SyncFunc()
	}
	s.SetStatus(ports.SurfaceReady)
	return nil
}

func (s *Surface) CreateImage(format ports.ImageFormat, coded, display video.Resolution) (ports.Image, error) {
	if s.CreateImageFunc != nil {
		return s.CreateImageFunc(format, coded, display)
	}
	return nil, errors.New("mocks: no image configured")
}

func (s *Surface) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.destroyed = true
	return nil
}

// IsDestroyed reports whether Destroy has been called (for test verification).
func (s *Surface) IsDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Image is a mock implementation of ports.Image backed by a byte slice.
type Image struct {
	ImageFormat ports.ImageFormat
	PlaneLayout video.PlaneLayout
	Bytes       []byte
	Closed      bool
}

func (i *Image) Format() ports.ImageFormat { return i.ImageFormat }
func (i *Image) Layout() video.PlaneLayout { return i.PlaneLayout }
func (i *Image) Data() []byte              { return i.Bytes }

func (i *Image) Close() error {
	i.Closed = true
	return nil
}

var (
	_ ports.Device  = (*Device)(nil)
	_ ports.Config  = (*Config)(nil)
	_ ports.Context = (*Context)(nil)
	_ ports.Surface = (*Surface)(nil)
	_ ports.Image   = (*Image)(nil)
)
