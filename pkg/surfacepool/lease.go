package surfacepool

import (
	"sync"
	"weak"

	"github.com/user/vadecode/pkg/ports"
)

// Lease is scoped ownership of one pooled surface.
type Lease struct {
	once    sync.Once
	surface ports.Surface
	pool    weak.Pointer[Pool]
	log     ports.Logger
}

// Surface returns the leased surface. It stays valid until Release or Detach.
func (l *Lease) Surface() ports.Surface {
	return l.surface
}

// Release gives the surface back. If the pool no longer manages it, or the pool itself is
// gone, the surface is destroyed instead. Calling Release more than once is harmless.
func (l *Lease) Release() {
	l.once.Do(func() {
		if p := l.pool.Value(); p != nil {
			p.put(l.surface)
			return
		}
		// Nobody owns the surface any more.
		if err := l.surface.Destroy(); err != nil {
			l.log.Warn("Failed to destroy surface %d: %v", l.surface.ID(), err)
		}
	})
}

// Detach takes the surface out of the pool for good. The caller becomes responsible for
// destroying it, or for adopting it into another pool with AddSurface.
func (l *Lease) Detach() ports.Surface {
	var s ports.Surface
	l.once.Do(func() {
		if p := l.pool.Value(); p != nil {
			p.forget(l.surface)
		}
		s = l.surface
	})
	return s
}
