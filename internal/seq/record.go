// Package seq implements the legacy OSS /dev/sequencer-compatible
// character device: a fixed-size record parser multiplexing constructed
// MIDI events onto any number of downstream raw MIDI device nodes, plus a
// tempo/tick timer. Grounded on src/kiss_frame.go's fixed small-record
// parsing and opcode dispatch table (kiss_rec_byte / kiss_process_msg),
// generalized from "KISS frames over a serial/pty byte stream" to "OSS
// sequencer records over a character-device write buffer".
package seq

import (
	"encoding/binary"

	"github.com/kpeeters/cusemidid/internal/midi"
)

// Record opcodes, spec.md §4.4.
const (
	opMIDIPUTC  = 0x05
	opTIMING    = 0x81
	opCHNCommon = 0x92
	opCHNVoice  = 0x93
	opSYSEX     = 0x94
	opFULLSIZE  = 0xFD
)

// recordLen reports the fixed size of the record beginning with op: 4
// bytes if op < 128, else 8.
func recordLen(op byte) int {
	if op < 128 {
		return 4
	}
	return 8
}

type decodedKind int

const (
	decodeNone       decodedKind = iota
	decodeRawByte                // MIDIPUTC: one raw byte to devs[dev]
	decodeEvent                  // CHN_COMMON / CHN_VOICE / SYSEX: a constructed midi.Event
	decodeTimer                  // TIMING: a timer sub-operation
	decodeDrainChunk              // FULLSIZE
)

// decoded is the result of interpreting one fixed-size record.
type decoded struct {
	kind     decodedKind
	dev      int
	rawByte  byte
	event    *midi.Event
	timerSub int
	timerArg uint32
}

// decodeRecord interprets one fixed-size record (already sliced to its
// exact length by the caller) and reports what it means. Opcodes outside
// the supported set, and CHN_COMMON/CHN_VOICE records whose mtype is not
// recognized, report ok=false — "record rejected" per spec.md §4.4. The
// caller still consumes the record's bytes regardless; decodeRecord makes
// no judgement about consumption, that is the caller's loop invariant.
func decodeRecord(rec []byte) (decoded, bool) {
	switch rec[0] {
	case opMIDIPUTC:
		return decoded{kind: decodeRawByte, dev: int(rec[2]), rawByte: rec[1]}, true

	case opTIMING:
		return decoded{
			kind:     decodeTimer,
			timerSub: int(rec[1]),
			timerArg: binary.LittleEndian.Uint32(rec[4:8]),
		}, true

	case opCHNCommon:
		ev := decodeChnCommon(rec)
		if ev == nil {
			return decoded{}, false
		}
		return decoded{kind: decodeEvent, dev: int(rec[1]), event: ev}, true

	case opCHNVoice:
		ev := decodeChnVoice(rec)
		if ev == nil {
			return decoded{}, false
		}
		return decoded{kind: decodeEvent, dev: int(rec[1]), event: ev}, true

	case opSYSEX:
		return decoded{kind: decodeEvent, dev: int(rec[1]), event: decodeSysex(rec)}, true

	case opFULLSIZE:
		return decoded{kind: decodeDrainChunk}, true

	default:
		return decoded{}, false
	}
}

// decodeChnCommon builds the event a CHN_COMMON record describes, per
// spec.md §4.4's "Event construction (CHN_COMMON)" table. Returns nil for
// an mtype the table does not list ("record rejected").
func decodeChnCommon(rec []byte) *midi.Event {
	mtype := midi.EventType(rec[2])
	chanNum := rec[3]
	p1 := int32(rec[4])
	w14 := int32(binary.LittleEndian.Uint16(rec[6:8]))

	switch mtype {
	case midi.ControlChange:
		return &midi.Event{Type: midi.ControlChange, Channel: chanNum, P1: p1, P2: w14}
	case midi.ProgramChange, midi.ChannelPressure:
		return &midi.Event{Type: mtype, Channel: chanNum, P1: p1}
	case midi.PitchBend:
		return &midi.Event{Type: midi.PitchBend, Channel: chanNum, P1: w14}
	default:
		return nil
	}
}

// decodeChnVoice builds the event a CHN_VOICE record describes. Only
// NoteOff, NoteOn, and PolyPressure are recognized.
func decodeChnVoice(rec []byte) *midi.Event {
	mtype := midi.EventType(rec[2])
	chanNum := rec[3]
	p1 := int32(rec[4])
	p2 := int32(rec[5])

	switch mtype {
	case midi.NoteOff, midi.NoteOn, midi.PolyPressure:
		return &midi.Event{Type: mtype, Channel: chanNum, P1: p1, P2: p2}
	default:
		return nil
	}
}

// decodeSysex walks up to 6 payload bytes (rec[2:8]) looking for a 0xFF
// sentinel; the bytes before it are the SysEx payload.
func decodeSysex(rec []byte) *midi.Event {
	payload := rec[2:8]
	n := 0
	for n < len(payload) && payload[n] != 0xFF {
		n++
	}
	return &midi.Event{Type: midi.SysEx, P1: int32(n), ExData: append([]byte(nil), payload[:n]...)}
}
