package mididev

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpeeters/cusemidid/internal/cusert"
	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/ossctl"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := New(synthOptionsNoSoundFont())
	require.NoError(t, err)
	return dev
}

func TestOpenCloseRefcount(t *testing.T) {
	dev := newTestDevice(t)

	h1, err := dev.Open(0)
	require.NoError(t, err)
	h2, err := dev.Open(0)
	require.NoError(t, err)

	assert.Equal(t, 2, dev.refcount)

	require.NoError(t, dev.Close(h1))
	assert.Equal(t, 1, dev.refcount)
	require.NoError(t, dev.Close(h2))
	assert.Equal(t, 0, dev.refcount)
}

func TestReadAlwaysFails(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	n, err := dev.Read(h, make([]byte, 16))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, direrr.ErrInvalidArgument)
}

func TestWriteWithoutSoundFontFailsWithInvalid(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	// NoteOn dispatched to a synth with no soundfont loaded fails with
	// direrr.ErrIO inside Backend.Handle, which Write maps to invalid.
	_, err = dev.Write(h, []byte{0x90, 60, 100})
	assert.ErrorIs(t, err, direrr.ErrInvalidArgument)
}

func TestWriteRealTimeBytesAreIgnoredNotFatal(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	n, err := dev.Write(h, []byte{0xF8, 0xFA, 0xFC})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestConcurrentWriteReturnsBusy(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	hh := h.(*handle)
	hh.mu.Lock()
	hh.txBusy = true
	hh.mu.Unlock()

	_, err = dev.Write(h, []byte{0xF8})
	assert.True(t, errors.Is(err, direrr.ErrBusy))
}

func TestPollReflectsTxBusy(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	mask, err := dev.Poll(h)
	require.NoError(t, err)
	assert.Equal(t, cusert.PollOut, mask)

	hh := h.(*handle)
	hh.mu.Lock()
	hh.txBusy = true
	hh.mu.Unlock()

	mask, err = dev.Poll(h)
	require.NoError(t, err)
	assert.Zero(t, mask)
}

func TestIoctlFionreadAlwaysZero(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	out, err := dev.Ioctl(h, ossctl.FIONREAD, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), ossctl.Int32(out))
}

func TestIoctlFionwriteIsChunkSize(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	out, err := dev.Ioctl(h, ossctl.FIONWRITE, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(writeChunk), ossctl.Int32(out))
}

func TestIoctlUnknownCommandIsInvalid(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	_, err = dev.Ioctl(h, 0xDEADBEEF, nil)
	assert.ErrorIs(t, err, direrr.ErrInvalidArgument)
}
