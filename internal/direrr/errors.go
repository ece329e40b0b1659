// Package direrr holds the sentinel error values shared across the codec,
// synth adapter, and device engines. The teacher's C ancestry returns
// errno-like integers from nearly every function; here the same shapes
// become errors.Is-compatible sentinels (or, where a value must travel with
// the error, a small wrapped struct).
package direrr

import "errors"

var (
	// ErrInvalidArgument covers null/misshaped inputs: a nil event, a status
	// byte where none is legal, an ioctl operand out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDomain is returned when SysEx payload bytes carry the high bit.
	ErrDomain = errors.New("domain error")

	// ErrBusy is returned when a second write races a write already in
	// flight on the same handle.
	ErrBusy = errors.New("device busy")

	// ErrUnsupported marks a message class the backend declines to handle
	// (real-time bytes reaching the synth). Callers may ignore it.
	ErrUnsupported = errors.New("unsupported")

	// ErrIO marks a backend or downstream-device failure.
	ErrIO = errors.New("i/o error")

	// ErrFatalInit marks a server-startup failure severe enough to abort
	// the process.
	ErrFatalInit = errors.New("fatal initialization error")
)

// ErrBufferTooSmall is returned by Serialize when the destination buffer
// cannot hold the encoded event. Needed carries the required length so the
// caller can grow its buffer and retry, mirroring the teacher's pattern of
// probing a C function with a zero-length buffer to learn a required size.
type ErrBufferTooSmall struct {
	Needed int
}

func (e *ErrBufferTooSmall) Error() string {
	return "buffer too small"
}

// NeededSize reports the minimum buffer length required, if err is (or
// wraps) an *ErrBufferTooSmall.
func NeededSize(err error) (int, bool) {
	var e *ErrBufferTooSmall
	if errors.As(err, &e) {
		return e.Needed, true
	}
	return 0, false
}
