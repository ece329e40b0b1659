package seq

import (
	"errors"

	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/midi"
	"github.com/kpeeters/cusemidid/internal/synth"
)

// LocalSynthUnit describes an in-process software synth that a sequencer
// handle exposes as one of its numbered downstream units, per
// SPEC_FULL.md §6 ("-c/--config-file for soundfont/driver selection of any
// locally-owned synth unit") — the same synth.Backend internal/mididev
// drives, multiplexed onto here instead of sitting behind its own
// character-device node.
type LocalSynthUnit struct {
	Name    string
	Options synth.Options
}

// newAudioDriverForLocalUnit is a package-level indirection over
// synth.NewAudioDriver, the same seam internal/mididev uses, so tests can
// substitute a driver that needs no real audio hardware.
var newAudioDriverForLocalUnit = synth.NewAudioDriver

// localSynthWriter adapts a synth.Backend to the io.Writer/io.Closer shape
// downstream needs, feeding the byte stream it receives through a MIDI
// parser exactly as internal/mididev's Write loop does, since both are
// driving the same kind of backend from the same kind of byte stream.
type localSynthWriter struct {
	backend *synth.Backend
	driver  synth.AudioDriver
	parser  midi.ParserState
}

func (w *localSynthWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		evt, ok := w.parser.Parse(b)
		if !ok {
			continue
		}
		if err := w.backend.Handle(evt); err != nil && !errors.Is(err, direrr.ErrUnsupported) {
			return len(p), err
		}
	}
	return len(p), nil
}

func (w *localSynthWriter) Close() error {
	if w.driver != nil {
		w.driver.Dispose()
	}
	w.backend.Dispose()
	return nil
}

// newLocalSynthDownstream constructs a fresh backend + audio driver pair
// for unit and wraps it as a downstream. Each handle gets its own backend
// instance, matching internal/mididev's per-handle (never shared) synth.
func newLocalSynthDownstream(unit LocalSynthUnit) (downstream, error) {
	backend, err := synth.ConstructSynth(unit.Options)
	if err != nil {
		return downstream{}, err
	}

	driver, err := newAudioDriverForLocalUnit(backend)
	if err != nil {
		backend.Dispose()
		return downstream{}, err
	}

	w := &localSynthWriter{backend: backend, driver: driver}
	return downstream{f: w, closer: w, name: unit.Name}, nil
}
