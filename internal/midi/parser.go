package midi

// parserState is the tagged state of the running-status machine, following
// design notes §9: {Idle, AwaitingData{type,need,got}, AwaitingSysEx{got}}
// rather than the reference implementation's `type == 0` / `data_required
// == SysExMax` sentinel encoding.
type parserState int

const (
	stateIdle parserState = iota
	stateAwaitingData
	stateAwaitingSysEx
)

// ParserState holds one byte stream's running status, channel, and SysEx
// accumulator. The zero value is a valid, idle parser. A ParserState must
// not be shared across goroutines without external synchronization — the
// same constraint the teacher places on kiss_frame_t.
type ParserState struct {
	state    parserState
	curType  EventType
	channel  uint8
	accum    [SysExMax]byte
	used     int
	required int
}

// Reset returns the parser to the idle state, discarding any in-progress
// message. Called when a handle is closed, or when a caller wants to
// resynchronize after detecting a stream error.
func (p *ParserState) Reset() {
	*p = ParserState{}
}

// Parse feeds one byte from a MIDI stream into p and returns the event it
// completes, if any. The returned Event's ExData (when non-nil) borrows
// directly from p's accumulator and is valid only until the next call to
// Parse on the same ParserState — see Event's doc comment.
//
// Rules are applied in the order spec'd: real-time bytes first (and, per
// design notes Open Question 1, without disturbing running status or the
// accumulator), then other status bytes, then data bytes.
func (p *ParserState) Parse(c byte) (*Event, bool) {
	switch {
	case IsRealTime(c):
		return &Event{Type: EventType(c)}, true

	case IsStatusByte(c):
		return p.parseStatus(c)

	default:
		return p.parseData(c)
	}
}

func (p *ParserState) parseStatus(c byte) (*Event, bool) {
	var staged *Event

	if p.state == stateAwaitingSysEx && p.used > 0 {
		// Any status byte terminates an in-progress SysEx, including but
		// not limited to the explicit 0xF7 end marker.
		staged = &Event{Type: SysEx, P1: int32(p.used), ExData: p.accum[:p.used]}
	}
	p.used = 0

	switch {
	case IsChannelStatus(c):
		p.state = stateAwaitingData
		p.curType = EventType(c & 0xF0)
		p.channel = c & 0x0F
		p.required = dataBytesRequired(p.curType)

	case c == byte(SysEx):
		p.state = stateAwaitingSysEx
		p.curType = SysEx
		p.channel = 0
		p.required = SysExMax

	case c == byte(SysExEnd):
		// Already handled as a terminator above; 0xF7 never surfaces on
		// its own.
		p.state = stateIdle
		p.curType = 0

	case c == byte(MTC), c == byte(SongPosition), c == byte(SongSelect):
		p.state = stateAwaitingData
		p.curType = EventType(c)
		p.channel = 0
		p.required = systemDataBytesRequired(c)

	case c == byte(TuneRequest):
		// Zero-length: emit immediately rather than waiting for data.
		p.state = stateIdle
		p.curType = 0
		if staged != nil {
			return staged, true
		}
		return &Event{Type: EventType(c)}, true

	default:
		// 0xF4, 0xF5: undefined, ignored. (0xF9, 0xFD never reach here —
		// IsRealTime already intercepted every byte >= 0xF8.)
		p.state = stateIdle
		p.curType = 0
	}

	return staged, staged != nil
}

func (p *ParserState) parseData(c byte) (*Event, bool) {
	switch p.state {
	case stateIdle:
		return nil, false

	case stateAwaitingSysEx:
		if p.used >= SysExMax {
			// Over-long SysEx: drop the whole message and desynchronize
			// until the next status byte, per spec.md §7 ("the codec is
			// total: it never aborts").
			p.state = stateIdle
			p.curType = 0
			p.used = 0
			return nil, false
		}
		p.accum[p.used] = c
		p.used++
		return nil, false

	case stateAwaitingData:
		p.accum[p.used] = c
		p.used++
		if p.used < p.required {
			return nil, false
		}
		ev := p.buildChannelOrSystemEvent()
		p.used = 0 // running status: stay in AwaitingData for the next message
		return ev, true

	default:
		return nil, false
	}
}

func (p *ParserState) buildChannelOrSystemEvent() *Event {
	ev := &Event{Type: p.curType, Channel: p.channel}

	switch p.curType {
	case NoteOff, NoteOn, PolyPressure, ControlChange:
		ev.P1 = int32(p.accum[0])
		ev.P2 = int32(p.accum[1])
	case ProgramChange, ChannelPressure, MTC, SongSelect:
		ev.P1 = int32(p.accum[0])
	case PitchBend, SongPosition:
		ev.P1 = int32(p.accum[0]) | int32(p.accum[1])<<7
	}

	return ev
}
