package mididev

import "github.com/kpeeters/cusemidid/internal/synth"

// synthOptionsNoSoundFont returns Options with no soundfont loaded, so the
// resulting Backend's synt is nil and every dispatch of a known non-real-time
// event reaches direrr.ErrIO without needing a real .sf2 file on the test
// runner.
func synthOptionsNoSoundFont() synth.Options {
	return synth.Options{}
}

// fakeAudioDriver satisfies synth.AudioDriver without opening a real audio
// device, so Device.Open is exercisable on a test runner with no sound
// hardware.
type fakeAudioDriver struct{}

func (fakeAudioDriver) Dispose() {}

func init() {
	newAudioDriver = func(*synth.Backend) (synth.AudioDriver, error) {
		return fakeAudioDriver{}, nil
	}
}
