// Package surfacepool keeps reusable hardware surfaces sized to a target coded resolution.
//
// Surfaces are handed out as leases. A lease only holds a weak reference to its pool, so a
// pool that has been dropped by its owner is never kept alive by outstanding pictures.
package surfacepool

import (
	"errors"
	"fmt"
	"sync"
	"weak"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

var (
	// ErrSurfaceTooSmall is returned when adopting a surface that cannot hold the target resolution.
	ErrSurfaceTooSmall = errors.New("surfacepool: surface smaller than coded resolution")
	// ErrDescriptorCount is returned when external descriptors do not match the requested count.
	ErrDescriptorCount = errors.New("surfacepool: descriptor count mismatch")
	// ErrAllocation wraps device failures while growing the pool.
	ErrAllocation = errors.New("surfacepool: surface allocation failed")
)

// Pool owns a set of surfaces. It tracks every managed surface by ID and keeps the idle ones
// in a FIFO free list.
type Pool struct {
	mu      sync.Mutex
	dev     ports.SurfaceAllocator
	class   video.FormatClass
	hint    ports.UsageHint
	coded   video.Resolution
	free    []ports.Surface
	managed map[ports.SurfaceID]video.Resolution
	log     ports.Logger
}

// New creates an empty pool. Call AddSurfaces to populate it.
func New(dev ports.SurfaceAllocator, class video.FormatClass, hint ports.UsageHint, coded video.Resolution, log ports.Logger) *Pool {
	return &Pool{
		dev:     dev,
		class:   class,
		hint:    hint,
		coded:   coded,
		managed: make(map[ports.SurfaceID]video.Resolution),
		log:     log.WithComponent("surfacepool"),
	}
}

// FormatClass returns the format class surfaces are allocated with.
func (p *Pool) FormatClass() video.FormatClass {
	return p.class
}

// CodedResolution returns the current target resolution.
func (p *Pool) CodedResolution() video.Resolution {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coded
}

// AddSurfaces allocates n surfaces at the current target resolution. descriptors is either
// empty or holds one entry per surface. On failure the pool is unchanged.
func (p *Pool) AddSurfaces(n int, descriptors []ports.MemoryDescriptor) error {
	if n <= 0 {
		return nil
	}
	if len(descriptors) != 0 && len(descriptors) != n {
		return fmt.Errorf("%w: %d descriptors for %d surfaces", ErrDescriptorCount, len(descriptors), n)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	surfaces, err := p.dev.CreateSurfaces(p.class, p.coded, p.hint, n, descriptors)
	if err != nil {
		return fmt.Errorf("%w: %d x %s %s: %w", ErrAllocation, n, p.coded, p.class, err)
	}
	for _, s := range surfaces {
		p.managed[s.ID()] = s.Size()
		p.free = append(p.free, s)
	}
	p.log.Debug("Added %d surfaces at %s (%d managed)", len(surfaces), p.coded, len(p.managed))
	return nil
}

// AddSurface adopts an existing surface, typically one detached from another pool.
func (p *Pool) AddSurface(s ports.Surface) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !s.Size().CanContain(p.coded) {
		return fmt.Errorf("%w: %s < %s", ErrSurfaceTooSmall, s.Size(), p.coded)
	}
	p.managed[s.ID()] = s.Size()
	p.free = append(p.free, s)
	return nil
}

// Lease takes the oldest free surface. It returns false when the pool is exhausted; growing
// the pool is up to the caller.
func (p *Pool) Lease() (*Lease, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, false
	}
	s := p.free[0]
	p.free[0] = nil
	p.free = p.free[1:]
	return &Lease{surface: s, pool: weak.Make(p), log: p.log}, true
}

// SetCodedResolution changes the target resolution and drops every surface that cannot
// contain it. Dropped free surfaces are destroyed; dropped leased surfaces are destroyed
// when their lease is released.
func (p *Pool) SetCodedResolution(r video.Resolution) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.coded = r
	for id, size := range p.managed {
		if !size.CanContain(r) {
			delete(p.managed, id)
		}
	}

	kept := p.free[:0]
	purged := 0
	for _, s := range p.free {
		if s.Size().CanContain(r) {
			kept = append(kept, s)
			continue
		}
		p.destroy(s)
		purged++
	}
	clear(p.free[len(kept):])
	p.free = kept

	p.log.Debug("Coded resolution set to %s, purged %d free surfaces (%d managed)", r, purged, len(p.managed))
}

// NumFree returns the number of surfaces ready to be leased.
func (p *Pool) NumFree() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// NumManaged returns the number of surfaces the pool owns, leased or not.
func (p *Pool) NumManaged() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.managed)
}

// Clear forgets every surface. Free surfaces are destroyed; outstanding leases destroy
// theirs on release.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.free {
		p.destroy(s)
	}
	p.free = nil
	clear(p.managed)
}

// Close is Clear for a pool that is going away.
func (p *Pool) Close() error {
	p.Clear()
	return nil
}

// put is called by a lease giving its surface back.
func (p *Pool) put(s ports.Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.managed[s.ID()]; !ok {
		p.destroy(s)
		return
	}
	p.free = append(p.free, s)
}

// forget removes a surface from the registry without destroying it.
func (p *Pool) forget(s ports.Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.managed, s.ID())
}

func (p *Pool) destroy(s ports.Surface) {
	if err := s.Destroy(); err != nil {
		p.log.Warn("Failed to destroy surface %d: %v", s.ID(), err)
	}
}
