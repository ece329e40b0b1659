package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRunningStatus(t *testing.T) {
	var p ParserState

	ev, ok := p.Parse(0x90)
	assert.False(t, ok)
	ev, ok = p.Parse(60)
	assert.False(t, ok)
	ev, ok = p.Parse(64)
	assert.True(t, ok)
	assert.Equal(t, NoteOn, ev.Type)
	assert.EqualValues(t, 0, ev.Channel)
	assert.EqualValues(t, 60, ev.P1)
	assert.EqualValues(t, 64, ev.P2)

	// Further data bytes, with no new status byte, continue to produce
	// note-on events of the same type/channel.
	ev, ok = p.Parse(62)
	assert.False(t, ok)
	ev, ok = p.Parse(64)
	assert.True(t, ok)
	assert.Equal(t, NoteOn, ev.Type)
	assert.EqualValues(t, 0, ev.Channel)
	assert.EqualValues(t, 62, ev.P1)
	assert.EqualValues(t, 64, ev.P2)
}

func TestSysExBoundaryExactly1024(t *testing.T) {
	var p ParserState

	p.Parse(0xF0)
	for i := 0; i < SysExMax; i++ {
		_, ok := p.Parse(0x01)
		assert.False(t, ok)
	}

	// No terminator yet; a following status byte surfaces the event.
	ev, ok := p.Parse(0x90)
	assert.True(t, ok)
	assert.Equal(t, SysEx, ev.Type)
	assert.EqualValues(t, SysExMax, ev.P1)
	assert.Len(t, ev.ExData, SysExMax)
}

func TestSysExOverflowDrops(t *testing.T) {
	var p ParserState

	p.Parse(0xF0)
	for i := 0; i < SysExMax; i++ {
		p.Parse(0x01)
	}
	// The 1025th byte overflows and drops the message.
	_, ok := p.Parse(0x01)
	assert.False(t, ok)

	// Parser is back to idle: a following status byte starts fresh, and a
	// stray data byte before it is discarded.
	_, ok = p.Parse(60)
	assert.False(t, ok)
	_, ok = p.Parse(0x90)
	assert.False(t, ok)
	_, ok = p.Parse(60)
	assert.False(t, ok)
	ev, ok := p.Parse(64)
	assert.True(t, ok)
	assert.Equal(t, NoteOn, ev.Type)
}

func TestAnyStatusTerminatesSysEx(t *testing.T) {
	var p ParserState
	var events []*Event

	for _, c := range []byte{0xF0, 0x01, 0x02, 0x03, 0x90, 60, 64} {
		if ev, ok := p.Parse(c); ok {
			events = append(events, ev)
		}
	}

	if assert.Len(t, events, 2) {
		assert.Equal(t, SysEx, events[0].Type)
		assert.EqualValues(t, 3, events[0].P1)
		assert.Equal(t, NoteOn, events[1].Type)
		assert.EqualValues(t, 60, events[1].P1)
		assert.EqualValues(t, 64, events[1].P2)
	}
}

func TestRealTimeInterleavingPreservesRunningStatus(t *testing.T) {
	var p ParserState
	var events []*Event

	for _, c := range []byte{0x90, 0xF8, 60, 64} {
		if ev, ok := p.Parse(c); ok {
			events = append(events, ev)
		}
	}

	if assert.Len(t, events, 2) {
		assert.Equal(t, EventType(0xF8), events[0].Type)
		assert.Equal(t, NoteOn, events[1].Type)
		assert.EqualValues(t, 60, events[1].P1)
		assert.EqualValues(t, 64, events[1].P2)
	}

	// Running status must still be intact after the real-time interleave:
	// feeding more data bytes with no new status byte keeps producing
	// note-on events.
	_, ok := p.Parse(10)
	assert.False(t, ok)
	ev, ok := p.Parse(20)
	assert.True(t, ok)
	assert.Equal(t, NoteOn, ev.Type)
	assert.EqualValues(t, 10, ev.P1)
}

func TestPitchBendEncoding(t *testing.T) {
	var p ParserState

	ev, ok := p.Parse(0xE2)
	assert.False(t, ok)
	_, ok = p.Parse(0x40)
	assert.False(t, ok)
	ev, ok = p.Parse(0x40)
	assert.True(t, ok)
	assert.EqualValues(t, 0x2040, ev.P1)

	var buf [3]byte
	n, err := Serialize(&Event{Type: PitchBend, Channel: 2, P1: 0x2040}, buf[:])
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0xE2, 0x40, 0x40}, buf[:n])
}

// TestRoundTrip checks parse(serialize(e)) == e for arbitrary valid
// channel-message events, mirroring the rapid.Check idiom used in the
// teacher's src/fx25_send_test.go.
func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		evType := rapid.SampledFrom([]EventType{
			NoteOff, NoteOn, PolyPressure, ControlChange,
			ProgramChange, ChannelPressure, PitchBend,
		}).Draw(t, "type")
		channel := rapid.IntRange(0, 15).Draw(t, "channel")

		var p1, p2 int32
		switch evType {
		case PitchBend:
			p1 = int32(rapid.IntRange(0, 0x3FFF).Draw(t, "p1"))
		default:
			p1 = int32(rapid.IntRange(0, 0x7F).Draw(t, "p1"))
			p2 = int32(rapid.IntRange(0, 0x7F).Draw(t, "p2"))
		}

		in := &Event{Type: evType, Channel: uint8(channel), P1: p1, P2: p2}

		var buf [3]byte
		n, err := Serialize(in, buf[:])
		assert.NoError(t, err)

		var parser ParserState
		var out *Event
		for _, b := range buf[:n] {
			if ev, ok := parser.Parse(b); ok {
				out = ev
			}
		}

		if assert.NotNil(t, out) {
			assert.Equal(t, in.Type, out.Type)
			assert.Equal(t, in.Channel, out.Channel)
			assert.Equal(t, in.P1, out.P1)
			assert.Equal(t, in.P2, out.P2)
		}
	})
}
