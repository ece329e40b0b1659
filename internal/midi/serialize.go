package midi

import "github.com/kpeeters/cusemidid/internal/direrr"

// Serialize encodes evt into buf, returning the number of bytes written.
// If buf is too small, it returns *direrr.ErrBufferTooSmall carrying the
// required length, so callers can grow buf and retry without duplicating
// the length calculation (use direrr.NeededSize to extract it).
//
// Invalid inputs — a nil event, a SysEx with a missing or zero-length
// payload, or a bare 0xF7 — return direrr.ErrInvalidArgument. Data bytes
// are masked with 0x7F before writing; callers that need strict validation
// of SysEx payloads should call ValidateSysEx first.
func Serialize(evt *Event, buf []byte) (int, error) {
	if evt == nil {
		return 0, direrr.ErrInvalidArgument
	}

	if evt.Type == SysExEnd {
		return 0, direrr.ErrInvalidArgument
	}

	if evt.Type == SysEx {
		if len(evt.ExData) == 0 {
			return 0, direrr.ErrInvalidArgument
		}
		needed := len(evt.ExData) + 2
		if len(buf) < needed {
			return 0, &direrr.ErrBufferTooSmall{Needed: needed}
		}
		buf[0] = byte(SysEx)
		for i, b := range evt.ExData {
			buf[1+i] = b & 0x7F
		}
		buf[needed-1] = byte(SysExEnd)
		return needed, nil
	}

	var needed int
	if evt.IsChannelMessage() {
		needed = 1 + dataBytesRequired(evt.Type)
	} else {
		needed = 1 + systemOrRealtimeLen(evt.Type)
	}

	if len(buf) < needed {
		return 0, &direrr.ErrBufferTooSmall{Needed: needed}
	}

	switch {
	case evt.IsChannelMessage():
		buf[0] = byte(evt.Type) | evt.Channel&0x0F
	default:
		buf[0] = byte(evt.Type)
	}

	switch evt.Type {
	case NoteOff, NoteOn, PolyPressure, ControlChange:
		buf[1] = byte(evt.P1) & 0x7F
		buf[2] = byte(evt.P2) & 0x7F
	case ProgramChange, ChannelPressure, MTC, SongSelect:
		buf[1] = byte(evt.P1) & 0x7F
	case PitchBend, SongPosition:
		buf[1] = byte(evt.P1) & 0x7F
		buf[2] = byte(evt.P1>>7) & 0x7F
	}

	return needed, nil
}

// systemOrRealtimeLen returns the payload length (bytes after the status
// byte) for system and real-time message types, per the fixed table in
// spec.md §4.1.
func systemOrRealtimeLen(t EventType) int {
	switch t {
	case MTC, SongSelect:
		return 1
	case SongPosition:
		return 2
	default: // TuneRequest, real-time (>=0xF8), and the undefined 0xF4/0xF5
		return 0
	}
}

// ValidateSysEx verifies that every byte of a SysEx payload has its top bit
// clear, returning direrr.ErrDomain on the first violation. Parsed SysEx
// payloads are always 7-bit clean by construction (they can only contain
// bytes that failed IsStatusByte); this helper exists for payloads
// assembled from other sources, such as sequencer records, that carry no
// such guarantee.
func ValidateSysEx(payload []byte) error {
	for _, b := range payload {
		if b > 0x7F {
			return direrr.ErrDomain
		}
	}
	return nil
}
