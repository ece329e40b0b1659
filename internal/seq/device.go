package seq

import (
	"fmt"
	"io"
	"sync"

	"github.com/kpeeters/cusemidid/internal/cusert"
	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/midi"
	"github.com/kpeeters/cusemidid/internal/ossctl"
)

// writeChunk bounds how many bytes of a single write are parsed before the
// handle mutex is released, per spec.md §4.3/§5 (shared shape with
// internal/mididev).
const writeChunk = 4096

// scanDownstreams is a package-level indirection over openDownstreams so
// tests can substitute an in-memory downstream list instead of scanning
// real udev devices, the same seam internal/mididev uses for its audio
// driver.
var scanDownstreams = openDownstreams

// Device is the shared record behind every handle opened on the
// sequencer's character-device node: just the configured name-prefix list
// used to rediscover downstream MIDI devices on each open, plus a
// reference count.
type Device struct {
	mu       sync.Mutex
	refcount int

	Prefixes []string

	// LocalUnits are in-process synth units appended after the scanned
	// hardware devices on every open, per SPEC_FULL.md §6.
	LocalUnits []LocalSynthUnit
}

// New returns a Device that will scan for downstream devices whose
// basename starts with one of prefixes on every open, plus one local
// in-process synth unit per entry in localUnits. An empty prefixes list
// uses the default prefixes "midi" and "umidi".
func New(prefixes []string, localUnits []LocalSynthUnit) *Device {
	if len(prefixes) == 0 {
		prefixes = append([]string(nil), defaultPrefixes()...)
	}
	return &Device{Prefixes: prefixes, LocalUnits: localUnits}
}

func defaultPrefixes() []string {
	return []string{"midi", "umidi"}
}

// handle is the per-open state spec.md §5 describes: a mutex guarding the
// record parser's implicit state (none persists across writes, see
// record.go), the timer, and the downstream device list scanned at open.
type handle struct {
	mu sync.Mutex

	dev    *Device
	devs   []downstream
	tm     *timer
	txBusy bool
}

// Open scans for downstream MIDI device nodes and constructs a fresh
// timer. Fails closed (closing anything already opened) if the scan
// itself errors; a downstream node that merely fails to open is skipped,
// not fatal (see openDownstreams).
func (d *Device) Open(flags int) (cusert.Handle, error) {
	devs, err := scanDownstreams(d.Prefixes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", direrr.ErrFatalInit, err)
	}

	for _, unit := range d.LocalUnits {
		ld, err := newLocalSynthDownstream(unit)
		if err != nil {
			closeDownstreams(devs)
			return nil, fmt.Errorf("%w: %v", direrr.ErrFatalInit, err)
		}
		devs = append(devs, ld)
	}

	h := &handle{dev: d, devs: devs, tm: newTimer()}

	d.mu.Lock()
	d.refcount++
	d.mu.Unlock()

	return h, nil
}

// Close closes every downstream device and releases the device's
// reference.
func (d *Device) Close(h cusert.Handle) error {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return direrr.ErrInvalidArgument
	}

	hh.mu.Lock()
	closeDownstreams(hh.devs)
	hh.devs = nil
	hh.mu.Unlock()

	d.mu.Lock()
	d.refcount--
	d.mu.Unlock()

	return nil
}

// Read always fails: the sequencer device has no input direction.
func (d *Device) Read(h cusert.Handle, buf []byte) (int, error) {
	return 0, direrr.ErrInvalidArgument
}

// Write invokes the record parser on buf in writeChunk-sized pieces under
// the handle mutex; each iteration advances by the record's full size,
// even when the record is rejected, per spec.md §4.4 "write". A second
// concurrent write on the same handle is rejected immediately with
// direrr.ErrBusy, per spec.md §5's tx_busy contract (mirroring
// internal/mididev).
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
		consumed, err := hh.processChunk(chunk)
		hh.mu.Unlock()

		total += consumed
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// processChunk parses and dispatches as many complete records as fit in
// chunk, dropping any trailing partial record (its bytes are still
// counted as consumed, so the producer never stalls). Returns the number
// of bytes consumed and the first hard error encountered, if any.
func (h *handle) processChunk(chunk []byte) (int, error) {
	pos := 0
	for pos < len(chunk) {
		op := chunk[pos]
		n := recordLen(op)

		if pos+n > len(chunk) {
			// Partial record at chunk end: drop it, consume the rest of
			// the chunk.
			return len(chunk), nil
		}

		rec := chunk[pos : pos+n]
		pos += n

		d, ok := decodeRecord(rec)
		if !ok {
			continue
		}

		switch d.kind {
		case decodeRawByte:
			if err := h.writeRaw(d.dev, []byte{d.rawByte}); err != nil {
				return pos, err
			}

		case decodeEvent:
			if err := h.emit(d.dev, d.event); err != nil {
				return pos, err
			}

		case decodeTimer:
			if d.timerSub == subWaitRel || d.timerSub == subWaitAbs {
				// Waits block: release the handle mutex around the sleep.
				h.mu.Unlock()
				h.tm.applySubOp(d.timerSub, d.timerArg)
				h.mu.Lock()
			} else {
				h.tm.applySubOp(d.timerSub, d.timerArg)
			}

		case decodeDrainChunk:
			return len(chunk), nil
		}
	}

	return pos, nil
}

// emit serializes ev and writes it to devs[dev], per spec.md §4.4 "Event
// emission to downstream". A dev index out of range is silently dropped.
func (h *handle) emit(dev int, ev *midi.Event) error {
	buf := make([]byte, midi.SysExMax+2)
	n, err := midi.Serialize(ev, buf)
	if err != nil {
		return nil //nolint:nilerr // malformed constructed event: drop, not fatal to the handle
	}
	return h.writeRaw(dev, buf[:n])
}

// emitAll writes ev to every open downstream, used by RESET/PANIC.
func (h *handle) emitAll(ev *midi.Event) error {
	buf := make([]byte, midi.SysExMax+2)
	n, err := midi.Serialize(ev, buf)
	if err != nil {
		return nil //nolint:nilerr
	}
	for i := range h.devs {
		if err := h.writeRawLoop(h.devs[i].f, buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

// writeRaw writes data to devs[dev], silently dropping addressed devices
// out of range, per spec.md §4.4.
func (h *handle) writeRaw(dev int, data []byte) error {
	if dev < 0 || dev >= len(h.devs) {
		return nil
	}
	return h.writeRawLoop(h.devs[dev].f, data)
}

// writeRawLoop writes data to f in a loop that handles short writes, per
// spec.md §4.4 "Event emission to downstream".
func (h *handle) writeRawLoop(f io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := f.Write(data)
		if err != nil {
			return fmt.Errorf("%w: %v", direrr.ErrIO, err)
		}
		data = data[n:]
	}
	return nil
}

// Ioctl translates the sequencer subset of §6: timer controls are applied
// as the matching TIMING sub-operation on the handle's timer, RESET/PANIC emits
// a system reset to every downstream, info/count queries return per-unit
// or aggregate data, and patch-manager/4-op controls are rejected.
func (d *Device) Ioctl(h cusert.Handle, cmd uint32, arg []byte) ([]byte, error) {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return nil, direrr.ErrInvalidArgument
	}

	hh.mu.Lock()
	defer hh.mu.Unlock()

	switch cmd {
	case ossctl.FIOASYNC, ossctl.FIONBIO, ossctl.SNDCTL_SEQ_SYNC,
		ossctl.SNDCTL_TMR_SOURCE, ossctl.SNDCTL_TMR_METRONOME, ossctl.SNDCTL_TMR_SELECT:
		return nil, nil

	case ossctl.FIONREAD:
		return ossctl.PutInt32(0), nil

	case ossctl.FIONWRITE:
		return ossctl.PutInt32(writeChunk), nil

	case ossctl.SNDCTL_TMR_TIMEBASE:
		hh.tm.applySubOp(subTimerbase, uint32(ossctl.Int32(arg)))
		return nil, nil
	case ossctl.SNDCTL_TMR_START:
		hh.tm.applySubOp(subStart, 0)
		return nil, nil
	case ossctl.SNDCTL_TMR_STOP:
		hh.tm.applySubOp(subStop, 0)
		return nil, nil
	case ossctl.SNDCTL_TMR_CONTINUE:
		hh.tm.applySubOp(subContinue, 0)
		return nil, nil
	case ossctl.SNDCTL_TMR_TEMPO:
		hh.tm.applySubOp(subTempo, uint32(ossctl.Int32(arg)))
		return nil, nil

	case ossctl.SNDCTL_SEQ_RESET, ossctl.SNDCTL_SEQ_PANIC:
		if err := hh.emitAll(&midi.Event{Type: midi.SystemReset}); err != nil {
			return nil, err
		}
		return nil, nil

	case ossctl.SNDCTL_SYNTH_INFO:
		unit := int(ossctl.Int32(arg))
		name, ok := hh.unitName(unit)
		if !ok {
			return nil, direrr.ErrInvalidArgument
		}
		return ossctl.EncodeSynthInfo(ossctl.SynthInfo{
			Name:      name,
			Device:    int32(unit),
			SynthType: ossctl.SynthTypeMIDI,
		}), nil

	case ossctl.SNDCTL_MIDI_INFO_SEQ:
		unit := int(ossctl.Int32(arg))
		name, ok := hh.unitName(unit)
		if !ok {
			return nil, direrr.ErrInvalidArgument
		}
		return ossctl.EncodeMidiInfo(ossctl.MidiInfo{
			Device:  int32(unit),
			Name:    name,
			DevType: ossctl.DevTypeMIDI,
		}), nil

	case ossctl.SNDCTL_SEQ_NRSYNTHS, ossctl.SNDCTL_SEQ_NRMIDIS:
		return ossctl.PutInt32(int32(len(hh.devs))), nil

	case ossctl.SNDCTL_SEQ_CTRLRATE:
		return ossctl.PutInt32(int32(hh.tm.base)), nil

	case ossctl.SNDCTL_SEQ_GETTIME:
		return ossctl.PutInt32(hh.tm.elapsedTicks()), nil

	case ossctl.SNDCTL_SEQ_OUTOFBAND:
		if len(arg) < 4 {
			return nil, direrr.ErrInvalidArgument
		}
		n := recordLen(arg[0])
		if len(arg) < n {
			return nil, direrr.ErrInvalidArgument
		}
		if _, err := hh.processChunk(arg[:n]); err != nil {
			return nil, err
		}
		return nil, nil

	case ossctl.SNDCTL_FM_4OP_ENABLE, ossctl.SNDCTL_PMGR_IFACE, ossctl.SNDCTL_PMGR_ACCESS:
		return nil, direrr.ErrUnsupported

	default:
		return nil, direrr.ErrInvalidArgument
	}
}

func (h *handle) unitName(unit int) (string, bool) {
	if unit < 0 || unit >= len(h.devs) {
		return "", false
	}
	return h.devs[unit].name, true
}

// Poll reports writable only when no write is currently in flight on this
// handle, and never readable.
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
