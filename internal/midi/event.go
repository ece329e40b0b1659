// Package midi implements a byte-level MIDI event parser and serializer
// with a running-status state machine, generalized from the framing
// state machine in the teacher's src/kiss_frame.go (KISS/SLIP byte
// framing) to the MIDI 1.0 wire protocol's status-byte/data-byte
// framing and SysEx accumulation.
package midi

// EventType identifies the status-byte class of a parsed or to-be-serialized
// event. For channel messages it is the status byte with the channel
// nibble masked off (e.g. 0x90 for note-on on any channel).
type EventType byte

const (
	NoteOff         EventType = 0x80
	NoteOn          EventType = 0x90
	PolyPressure    EventType = 0xA0
	ControlChange   EventType = 0xB0
	ProgramChange   EventType = 0xC0
	ChannelPressure EventType = 0xD0
	PitchBend       EventType = 0xE0
	SysEx           EventType = 0xF0
	MTC             EventType = 0xF1
	SongPosition    EventType = 0xF2
	SongSelect      EventType = 0xF3
	TuneRequest     EventType = 0xF6
	SysExEnd        EventType = 0xF7 // never surfaces as its own event
	SystemReset     EventType = 0xFF
)

// SysExMax is the accumulator capacity for SysEx and channel-message
// payload bytes (SYSEX_MAX_MSG_SIZE in spec.md §6).
const SysExMax = 1024

// IsStatusByte reports whether c is a MIDI status byte (top bit set).
func IsStatusByte(c byte) bool { return c&0x80 != 0 }

// IsRealTime reports whether c is a MIDI real-time status byte (0xF8..0xFF).
// Real-time bytes may be interleaved inside any other message without
// disturbing it.
func IsRealTime(c byte) bool { return c >= 0xF8 }

// IsChannelStatus reports whether c is a channel-message status byte
// (0x80..0xEF).
func IsChannelStatus(c byte) bool { return c >= 0x80 && c <= 0xEF }

// dataBytesRequired returns how many data bytes follow a channel-message
// status byte (1 or 2), per the fixed table in spec.md §4.1.
func dataBytesRequired(eventType EventType) int {
	switch eventType {
	case NoteOff, NoteOn, PolyPressure, ControlChange, PitchBend:
		return 2
	case ProgramChange, ChannelPressure:
		return 1
	default:
		return 0
	}
}

// systemDataBytesRequired returns the data-byte count for 0xF1..0xF6 system
// messages (0 for the zero-length ones, which the caller emits immediately).
func systemDataBytesRequired(c byte) int {
	switch c {
	case byte(MTC), byte(SongSelect):
		return 1
	case byte(SongPosition):
		return 2
	default: // 0xF4, 0xF5, 0xF6 — zero-length or undefined
		return 0
	}
}

// Event is a parsed or to-be-serialized MIDI message. ExData borrows from
// the parser's accumulator (see ParserState) or the caller's own buffer; it
// is never owned by the Event and is only valid until the next Parse call
// on the same ParserState, or for the duration of a single dispatch when
// produced by the sequencer engine.
type Event struct {
	Type    EventType
	Channel uint8 // 0-15; zero for system messages
	P1      int32 // small integer, or a 14-bit value for pitch-bend/song-position
	P2      int32
	ExData  []byte // SysEx payload; len(ExData) == int(P1) when Type == SysEx
}

// IsChannelMessage reports whether e addresses a specific channel.
func (e *Event) IsChannelMessage() bool {
	return e.Type >= NoteOff && e.Type <= PitchBend
}
