package negotiate

import "errors"

var (
	// ErrUnsupported matches every *NegotiationError.
	ErrUnsupported = errors.New("negotiate: unsupported")
	// ErrHardwareRejected matches every *HardwareError.
	ErrHardwareRejected = errors.New("negotiate: hardware rejected request")
	// ErrUnparsed is returned when stream metadata is needed before the first sequence.
	ErrUnparsed = errors.New("negotiate: stream metadata not parsed yet")
)

// NegotiationError reports a capability the device or the format table cannot provide.
// Asking for a different output format may succeed.
type NegotiationError struct {
	Capability string
	Err        error
}

func (e *NegotiationError) Error() string {
	if e.Err != nil {
		return "negotiate: unsupported " + e.Capability + ": " + e.Err.Error()
	}
	return "negotiate: unsupported " + e.Capability
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnsupported) hold.
func (e *NegotiationError) Is(target error) bool { return target == ErrUnsupported }

// HardwareError reports a device refusing to create a config, context or surface.
// State from before the failed call is left untouched.
type HardwareError struct {
	Op  string
	Err error
}

func (e *HardwareError) Error() string {
	return "negotiate: " + e.Op + ": " + e.Err.Error()
}

func (e *HardwareError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrHardwareRejected) hold.
func (e *HardwareError) Is(target error) bool { return target == ErrHardwareRejected }
