package seq

import (
	"os"
	"testing"

	"github.com/kpeeters/cusemidid/internal/synth"
)

type fakeAudioDriver struct{}

func (fakeAudioDriver) Dispose() {}

func init() {
	newAudioDriverForLocalUnit = func(*synth.Backend) (synth.AudioDriver, error) {
		return fakeAudioDriver{}, nil
	}
}

// newPipeDownstream returns a downstream backed by an os.Pipe so tests can
// observe what a handle writes to it without any real MIDI hardware. The
// read end is returned separately for the test to drain.
func newPipeDownstream(t *testing.T, name string) (downstream, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		w.Close()
		r.Close()
	})
	return downstream{f: w, closer: w, name: name}, r
}
