// Package synth adapts the MIDI codec's Event type to a software
// synthesizer, a thin capability interface treating the synthesizer as an
// opaque collaborator per spec.md §4.2. It is grounded on
// zurustar-son-et/pkg/vm/audio/soundfont.go (SoundFont loading) and
// zurustar-son-et/pkg/engine/midi_player.go's MIDIBridge (dispatch shape),
// both of which wrap github.com/sinshu/go-meltysynth/meltysynth.
package synth

import (
	"fmt"
	"os"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/midi"
)

// Options configures a synth + audio driver pair, mirroring spec.md §4.2's
// "options record {driver, device, soundfont}".
type Options struct {
	Driver     string // "oto", "portaudio", or "" for the platform default
	Device     string // output device name; "" for the driver's default
	SoundFont  string // path to a .sf2 file; "" plays silence
	SampleRate int     // default 44100
}

func (o Options) sampleRate() int {
	if o.SampleRate > 0 {
		return o.SampleRate
	}
	return 44100
}

// Backend wraps a meltysynth.Synthesizer, mapping MIDI events onto its
// entry points.
type Backend struct {
	opts Options
	synt *meltysynth.Synthesizer
}

// ConstructSettings validates and normalizes an Options record. Named to
// mirror spec.md §4.2's "construct settings from an options record" step;
// in this adapter Options doubles as its own settings record, so
// ConstructSettings exists to give that step a name and a validation point.
func ConstructSettings(o Options) (Options, error) {
	if o.Driver != "" && o.Driver != "oto" && o.Driver != "portaudio" {
		return o, fmt.Errorf("%w: unknown driver %q", direrr.ErrInvalidArgument, o.Driver)
	}
	return o, nil
}

// OutputDeviceName reports the currently configured output device name,
// falling back to "default" when unset.
func (o Options) OutputDeviceName() string {
	if o.Device != "" {
		return o.Device
	}
	return "default"
}

// ConstructSynth builds a Backend bound to opts, loading the soundfont (if
// any). An empty SoundFont path yields a Backend with no instrument data
// loaded — every note dispatch then fails with direrr.ErrIO, since
// meltysynth requires a soundfont to render anything.
func ConstructSynth(opts Options) (*Backend, error) {
	if opts.SoundFont == "" {
		return &Backend{opts: opts}, nil
	}

	f, err := os.Open(opts.SoundFont)
	if err != nil {
		return nil, fmt.Errorf("%w: opening soundfont: %v", direrr.ErrFatalInit, err)
	}
	defer f.Close()

	sf, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing soundfont: %v", direrr.ErrFatalInit, err)
	}

	settings := meltysynth.NewSynthesizerSettings(int32(opts.sampleRate()))

	s, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing synthesizer: %v", direrr.ErrFatalInit, err)
	}

	return &Backend{opts: opts, synt: s}, nil
}

// Dispose releases the Backend's resources. meltysynth.Synthesizer owns no
// external handles, so this is a no-op kept for symmetry with
// ConstructAudioDriver's Dispose and the teacher's open/close pairing
// convention.
func (b *Backend) Dispose() {}

// Render renders one audio block through the underlying synthesizer,
// forwarded to the audio driver layer (audio_oto.go / audio_portaudio.go).
func (b *Backend) Render(left, right []float32) {
	if b.synt == nil {
		for i := range left {
			left[i] = 0
			right[i] = 0
		}
		return
	}
	b.synt.Render(left, right)
}

// Handle dispatches a parsed MIDI event to the synthesizer, per the
// dispatch table in spec.md §4.2.
func (b *Backend) Handle(evt *midi.Event) error {
	if evt == nil {
		return direrr.ErrInvalidArgument
	}

	if evt.Type >= 0xF8 {
		// Real-time messages: the caller may ignore this.
		return direrr.ErrUnsupported
	}

	switch evt.Type {
	case midi.NoteOff, midi.NoteOn, midi.PolyPressure, midi.ControlChange,
		midi.ProgramChange, midi.ChannelPressure, midi.PitchBend,
		midi.SysEx, midi.SystemReset:
	default:
		return direrr.ErrDomain
	}

	if b.synt == nil {
		return direrr.ErrIO
	}

	switch evt.Type {
	case midi.NoteOff:
		b.synt.NoteOff(int32(evt.Channel), evt.P1)
	case midi.NoteOn:
		b.synt.NoteOn(int32(evt.Channel), evt.P1, evt.P2)
	case midi.PolyPressure, midi.ControlChange, midi.ProgramChange,
		midi.ChannelPressure, midi.PitchBend:
		b.synt.ProcessMidiMessage(int32(evt.Channel), int32(evt.Type), evt.P1, evt.P2)
	case midi.SysEx:
		// meltysynth has no SysEx entry point of its own, so every SysEx
		// event, GM/GS reset messages included, is declined. Only the
		// 0xFF system reset (below) resets the synthesizer.
		return direrr.ErrUnsupported
	case midi.SystemReset:
		b.synt.Reset()
	default:
		return direrr.ErrDomain
	}

	return nil
}
