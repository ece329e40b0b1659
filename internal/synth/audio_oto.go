package synth

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/kpeeters/cusemidid/internal/direrr"
)

// otoDriver streams a Backend's rendered audio through oto, following the
// pattern in other_examples/c3375187_kazukazu123123-meltysynth-test-midi__main.go.go:
// a custom io.Reader pulls blocks from the synthesizer and converts them to
// interleaved little-endian float32 samples.
type otoDriver struct {
	ctx    *oto.Context
	player oto.Player
	backend *Backend
}

const otoBlockFrames = 256

// otoReader adapts Backend.Render to an io.Reader of interleaved stereo
// float32 PCM, the shape oto.NewPlayer expects.
type otoReader struct {
	backend *Backend
	left    []float32
	right   []float32
}

func (r *otoReader) Read(p []byte) (int, error) {
	frames := len(p) / 8 // 2 channels * 4 bytes
	if frames > otoBlockFrames {
		frames = otoBlockFrames
	}
	if frames == 0 {
		return 0, nil
	}

	r.backend.Render(r.left[:frames], r.right[:frames])

	n := 0
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(r.left[i]))
		n += 4
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(r.right[i]))
		n += 4
	}
	return n, nil
}

// ConstructAudioDriver opens an oto playback context bound to backend,
// implementing spec.md §4.2's "construct an audio driver binding a synth
// to those settings" for Options.Driver == "oto" (the default).
func ConstructAudioDriver(backend *Backend) (*otoDriver, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   backend.opts.sampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening audio device %q: %v", direrr.ErrFatalInit, backend.opts.OutputDeviceName(), err)
	}

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("%w: audio device %q never became ready", direrr.ErrFatalInit, backend.opts.OutputDeviceName())
	}

	reader := &otoReader{
		backend: backend,
		left:    make([]float32, otoBlockFrames),
		right:   make([]float32, otoBlockFrames),
	}

	player := ctx.NewPlayer(reader)
	player.Play()

	return &otoDriver{ctx: ctx, player: player, backend: backend}, nil
}

// Dispose stops playback and releases the audio driver.
func (d *otoDriver) Dispose() {
	if d.player != nil {
		d.player.Close()
	}
}
