package negotiate

import (
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/video"
)

// Metadata is everything negotiated for the current sequence.
type Metadata struct {
	Session     *Session
	Profile     video.Profile
	Class       video.FormatClass
	FormatMap   FormatMap
	ImageFormat ports.ImageFormat
	StreamInfo  video.StreamInfo
}

// State is the stream metadata state. The zero value is unparsed.
type State struct {
	parsed *Metadata
}

// IsParsed reports whether a sequence has been negotiated.
func (s State) IsParsed() bool {
	return s.parsed != nil
}

// Parsed returns the negotiated metadata, or ErrUnparsed.
func (s State) Parsed() (*Metadata, error) {
	if s.parsed == nil {
		return nil, ErrUnparsed
	}
	return s.parsed, nil
}

// Release drops the state's session reference. The state must not be used afterwards.
func (s State) Release() {
	if s.parsed != nil {
		s.parsed.Session.Release()
	}
}
