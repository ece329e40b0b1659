// Package mididev implements the synthesized MIDI output device: one
// shared Device record per configured output, any number of open handles
// each owning its own parser, synth backend, and audio driver. Grounded on
// src/kissserial.go's per-open mutex-guarded transmit state and
// src/server.go's worker-driven callback dispatch, generalized from "one
// KISS TNC connection" to "one open file on a software MIDI synth".
package mididev

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kpeeters/cusemidid/internal/cusert"
	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/midi"
	"github.com/kpeeters/cusemidid/internal/ossctl"
	"github.com/kpeeters/cusemidid/internal/synth"
)

// writeChunk bounds how many bytes of a single write are copied and parsed
// before the handle mutex is released, per spec.md §4.3/§5.
const writeChunk = 4096

// newAudioDriver is a package-level indirection over synth.NewAudioDriver
// so tests can substitute a driver that does not require a real audio
// device, the same seam the teacher's own socket tests use to swap a real
// net.Conn for a pipe.
var newAudioDriver = synth.NewAudioDriver

// Device is the shared record backing every handle opened on one MIDI
// device node. It holds nothing but the settings needed to construct a
// fresh synth + audio driver pair per open, and a reference count of
// currently-open handles.
type Device struct {
	mu       sync.Mutex
	refcount int

	Settings synth.Options
}

// New validates settings and returns a Device ready to be passed to
// cusert.Run.
func New(settings synth.Options) (*Device, error) {
	settings, err := synth.ConstructSettings(settings)
	if err != nil {
		return nil, err
	}
	return &Device{Settings: settings}, nil
}

// handle is the per-open state spec.md §4.3/§5 describes: a mutex guarding
// the parser, tx_busy, and open_flags, plus the handle's own synth backend
// and audio driver (never shared with other handles on the same device).
type handle struct {
	mu sync.Mutex

	dev       *Device
	backend   *synth.Backend
	driver    synth.AudioDriver
	parser    midi.ParserState
	openFlags int
	txBusy    bool
}

// Open allocates per-handle state: a synth backend and audio driver built
// from the device's shared settings. Any sub-step failure releases
// whatever was already allocated and fails closed.
func (d *Device) Open(flags int) (cusert.Handle, error) {
	backend, err := synth.ConstructSynth(d.Settings)
	if err != nil {
		return nil, err
	}

	driver, err := newAudioDriver(backend)
	if err != nil {
		backend.Dispose()
		return nil, err
	}

	h := &handle{
		dev:       d,
		backend:   backend,
		driver:    driver,
		openFlags: flags,
	}

	d.mu.Lock()
	d.refcount++
	d.mu.Unlock()

	return h, nil
}

// Close tears down a handle's audio driver, synth, and parser (by simply
// discarding the handle) and releases the device's reference.
func (d *Device) Close(h cusert.Handle) error {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return direrr.ErrInvalidArgument
	}

	hh.mu.Lock()
	hh.driver.Dispose()
	hh.backend.Dispose()
	hh.parser.Reset()
	hh.mu.Unlock()

	d.mu.Lock()
	d.refcount--
	d.mu.Unlock()

	return nil
}

// Read always fails: this device has no input direction.
func (d *Device) Read(h cusert.Handle, buf []byte) (int, error) {
	return 0, direrr.ErrInvalidArgument
}

// Write serializes access via the handle's mutex, rejecting a concurrent
// write with ErrBusy, then feeds the buffer to the parser in writeChunk-
// sized pieces, dispatching each completed event to the synth backend.
func (d *Device) Write(h cusert.Handle, buf []byte) (int, error) {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return 0, direrr.ErrInvalidArgument
	}

	hh.mu.Lock()
	if hh.txBusy {
		hh.mu.Unlock()
		return 0, direrr.ErrBusy
	}
	hh.txBusy = true
	hh.mu.Unlock()

	defer func() {
		hh.mu.Lock()
		hh.txBusy = false
		hh.mu.Unlock()
	}()

	total := 0
	for total < len(buf) {
		end := total + writeChunk
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[total:end]

		hh.mu.Lock()
		for _, c := range chunk {
			evt, ok := hh.parser.Parse(c)
			if !ok {
				continue
			}
			if err := hh.backend.Handle(evt); err != nil && !errors.Is(err, direrr.ErrUnsupported) {
				hh.mu.Unlock()
				return total, direrr.ErrInvalidArgument
			}
		}
		hh.mu.Unlock()

		total = end
	}

	return total, nil
}

// Ioctl handles the MIDI-device subset of §6: FIOASYNC/FIONBIO (silently
// accepted), FIONREAD (always 0), FIONWRITE (writeChunk), and
// SNDCTL_MIDI_INFO for unit 0.
func (d *Device) Ioctl(h cusert.Handle, cmd uint32, arg []byte) ([]byte, error) {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return nil, direrr.ErrInvalidArgument
	}

	switch cmd {
	case ossctl.FIOASYNC, ossctl.FIONBIO:
		return nil, nil

	case ossctl.FIONREAD:
		return ossctl.PutInt32(0), nil

	case ossctl.FIONWRITE:
		return ossctl.PutInt32(writeChunk), nil

	case ossctl.SNDCTL_MIDI_INFO:
		hh.mu.Lock()
		name := fmt.Sprintf("Soft MIDI: %s", hh.dev.Settings.OutputDeviceName())
		hh.mu.Unlock()
		return ossctl.EncodeMidiInfo(ossctl.MidiInfo{
			Device:  0,
			Name:    name,
			DevType: ossctl.DevTypeMIDI,
		}), nil

	default:
		return nil, direrr.ErrInvalidArgument
	}
}

// Poll reports writable iff no write is currently in flight, and never
// readable — this device has no input direction.
func (d *Device) Poll(h cusert.Handle) (cusert.PollMask, error) {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return 0, direrr.ErrInvalidArgument
	}

	hh.mu.Lock()
	busy := hh.txBusy
	hh.mu.Unlock()

	if busy {
		return 0, nil
	}
	return cusert.PollOut, nil
}

var _ cusert.Device = (*Device)(nil)
