package negotiate

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/user/vadecode/pkg/ports"
)

// Session is a hardware config and decode context shared by every picture of one
// negotiation epoch. It is reference counted: the stream metadata holds one reference and
// every picture handle holds another, and the hardware objects are destroyed with the last.
type Session struct {
	id      uuid.UUID
	config  ports.Config
	context ports.Context
	refs    atomic.Int32
	log     ports.Logger
}

func newSession(cfg ports.Config, ctx ports.Context, log ports.Logger) *Session {
	s := &Session{
		id:      uuid.New(),
		config:  cfg,
		context: ctx,
		log:     log,
	}
	s.refs.Store(1)
	return s
}

// ID identifies the epoch in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Config returns the hardware config.
func (s *Session) Config() ports.Config { return s.config }

// Context returns the decode context.
func (s *Session) Context() ports.Context { return s.context }

// Refs returns the current reference count.
func (s *Session) Refs() int { return int(s.refs.Load()) }

// Retain adds a reference and returns s.
func (s *Session) Retain() *Session {
	if s.refs.Add(1) <= 1 {
		panic("negotiate: retain of a destroyed session")
	}
	return s
}

// Release drops a reference, destroying the context and then the config with the last one.
func (s *Session) Release() {
	switch n := s.refs.Add(-1); {
	case n > 0:
		return
	case n < 0:
		panic("negotiate: session released more times than retained")
	}

	if err := s.context.Destroy(); err != nil {
		s.log.Warn("Failed to destroy context of session %s: %v", s.id, err)
	}
	if err := s.config.Destroy(); err != nil {
		s.log.Warn("Failed to destroy config of session %s: %v", s.id, err)
	}
	s.log.Debug("Session %s destroyed", s.id)
}
