// Package negotiate decides, for every new sequence, whether the current hardware session can
// be reused or must be rebuilt, and keeps the surface pool sized for the stream.
package negotiate

import (
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/surfacepool"
	"github.com/user/vadecode/pkg/video"
)

// Open negotiates a sequence described by params.
//
// preferred selects the output layout; nil picks the default for the stream's format class.
// prev and prevPool are the current state and pool; they are only read, so on error the
// caller still owns them unchanged. On success the returned state holds its own session
// reference and the caller should Release prev once it switches over. The returned pool is
// either prevPool, resized if needed, or a new pool for a new session.
func Open(dev ports.Device, params ports.StreamParams, preferred *FormatMap, prev State, prevPool *surfacepool.Pool, supportsContextReuse bool, log ports.Logger) (State, *surfacepool.Pool, error) {
	log = log.WithComponent("negotiate")

	profile, err := params.Profile()
	if err != nil {
		return State{}, nil, &NegotiationError{Capability: "profile", Err: err}
	}
	class, err := params.FormatClass()
	if err != nil {
		return State{}, nil, &NegotiationError{Capability: "format class", Err: err}
	}
	coded := params.CodedSize().RoundEven()
	if coded.IsZero() {
		return State{}, nil, &NegotiationError{Capability: "coded size " + coded.String()}
	}

	mask, err := dev.SupportedFormatClasses(profile)
	if err != nil {
		return State{}, nil, &NegotiationError{Capability: "profile " + profile.String(), Err: err}
	}
	if !mask.Has(class) {
		return State{}, nil, &NegotiationError{Capability: "format class " + class.String() + " for " + profile.String()}
	}

	var fm FormatMap
	if preferred != nil {
		if preferred.Class != class {
			return State{}, nil, &NegotiationError{Capability: "output format " + preferred.Format.String() + " for " + class.String()}
		}
		fm = *preferred
	} else {
		var ok bool
		if fm, ok = defaultFormat(class); !ok {
			return State{}, nil, &NegotiationError{Capability: "format class " + class.String()}
		}
	}

	images, err := dev.QueryImageFormats()
	if err != nil {
		return State{}, nil, &HardwareError{Op: "query image formats", Err: err}
	}
	image, ok := findImageFormat(images, fm.Fourcc)
	if !ok {
		return State{}, nil, &NegotiationError{Capability: "fourcc " + fm.Fourcc.String()}
	}

	info := video.StreamInfo{
		Format:            fm.Format,
		CodedResolution:   coded,
		DisplayResolution: video.RectResolution(params.VisibleRect()),
		MinNumFrames:      params.MinNumSurfaces(),
	}

	var (
		session *Session
		pool    = prevPool
	)
	if old, err := prev.Parsed(); err == nil && old.Class == class && old.Profile == profile {
		switch {
		case old.StreamInfo.CodedResolution == coded:
			log.Debug("Reusing session %s, stream parameters unchanged", old.Session.ID())
			session = old.Session
		case supportsContextReuse:
			log.Debug("Reusing session %s across resolution change %s -> %s", old.Session.ID(), old.StreamInfo.CodedResolution, coded)
			session = old.Session
		}
	}

	if session != nil {
		session.Retain()
		if pool == nil {
			pool = surfacepool.New(dev, class, ports.UsageHintDecoder, coded, log)
		}
	} else {
		cfg, err := dev.CreateConfig(profile, class)
		if err != nil {
			return State{}, nil, &HardwareError{Op: "create config", Err: err}
		}
		ctx, err := dev.CreateContext(cfg, coded)
		if err != nil {
			if derr := cfg.Destroy(); derr != nil {
				log.Warn("Failed to destroy config: %v", derr)
			}
			return State{}, nil, &HardwareError{Op: "create context", Err: err}
		}
		session = newSession(cfg, ctx, log)
		pool = surfacepool.New(dev, class, ports.UsageHintDecoder, coded, log)
		log.Debug("Created session %s for %s %s at %s", session.ID(), profile, class, coded)
	}

	if !pool.CodedResolution().CanContain(coded) {
		// The pool only ever grows.
		pool.SetCodedResolution(coded)
	}

	log.Info("Negotiated %s %s at %s, output %s via %s", profile, class, coded, fm.Format, fm.Fourcc)

	return State{parsed: &Metadata{
		Session:     session,
		Profile:     profile,
		Class:       class,
		FormatMap:   fm,
		ImageFormat: image,
		StreamInfo:  info,
	}}, pool, nil
}
