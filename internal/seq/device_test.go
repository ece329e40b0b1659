package seq

import (
	"bufio"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpeeters/cusemidid/internal/cusert"
	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/midi"
	"github.com/kpeeters/cusemidid/internal/ossctl"
)

func withFakeDownstreams(t *testing.T, n int) (*Device, []*bufReader) {
	t.Helper()

	var devs []downstream
	var readers []*bufReader

	for i := 0; i < n; i++ {
		d, r := newPipeDownstream(t, "fake")
		devs = append(devs, d)
		readers = append(readers, &bufReader{r: bufio.NewReader(r)})
	}

	prevScan := scanDownstreams
	scanDownstreams = func(prefixes []string) ([]downstream, error) {
		return devs, nil
	}
	t.Cleanup(func() { scanDownstreams = prevScan })

	return New(nil, nil), readers
}

type bufReader struct {
	r *bufio.Reader
}

func (b *bufReader) readN(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := readFull(b.r, buf); err != nil {
		t.Fatalf("reading %d bytes: %v", n, err)
	}
	return buf
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestOpenScansDownstreamsAndRefcounts(t *testing.T) {
	dev, readers := withFakeDownstreams(t, 2)
	_ = readers

	h, err := dev.Open(0)
	require.NoError(t, err)
	assert.Equal(t, 1, dev.refcount)

	require.NoError(t, dev.Close(h))
	assert.Equal(t, 0, dev.refcount)
}

func TestWriteMidiputcForwardsRawByte(t *testing.T) {
	dev, readers := withFakeDownstreams(t, 1)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	rec := []byte{opMIDIPUTC, 0xFE, 0, 0}
	n, err := dev.Write(h, rec)
	require.NoError(t, err)
	assert.Equal(t, len(rec), n)

	got := readers[0].readN(t, 1)
	assert.Equal(t, []byte{0xFE}, got)
}

func TestWriteChnVoiceEmitsSerializedEvent(t *testing.T) {
	dev, readers := withFakeDownstreams(t, 1)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	rec := []byte{opCHNVoice, 0, byte(midi.NoteOn), 0, 60, 100, 0, 0}
	_, err = dev.Write(h, rec)
	require.NoError(t, err)

	got := readers[0].readN(t, 3)
	assert.Equal(t, []byte{0x90, 60, 100}, got)
}

func TestWriteDropsRecordAddressingOutOfRangeDevice(t *testing.T) {
	dev, readers := withFakeDownstreams(t, 1)
	_ = readers
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	rec := []byte{opCHNVoice, 5, byte(midi.NoteOn), 0, 60, 100, 0, 0}
	n, err := dev.Write(h, rec)
	require.NoError(t, err)
	assert.Equal(t, len(rec), n) // bytes still consumed
}

func TestWritePartialTrailingRecordIsDropped(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 1)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	// A TIMING record needs 8 bytes; give it only 5.
	rec := []byte{opTIMING, subStart, 0, 0, 0}
	n, err := dev.Write(h, rec)
	require.NoError(t, err)
	assert.Equal(t, len(rec), n) // still counted as consumed
}

func TestWriteTimingStartsTimer(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 0)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	rec := []byte{opTIMING, subStart, 0, 0, 0, 0, 0, 0}
	_, err = dev.Write(h, rec)
	require.NoError(t, err)

	assert.True(t, h.(*handle).tm.running)
}

func TestIoctlResetEmitsSystemResetToAllDownstreams(t *testing.T) {
	dev, readers := withFakeDownstreams(t, 2)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	_, err = dev.Ioctl(h, ossctl.SNDCTL_SEQ_RESET, nil)
	require.NoError(t, err)

	for _, r := range readers {
		got := r.readN(t, 1)
		assert.Equal(t, []byte{0xFF}, got)
	}
}

func TestIoctlNrmidisReturnsDevsCount(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 3)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	out, err := dev.Ioctl(h, ossctl.SNDCTL_SEQ_NRMIDIS, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, ossctl.Int32(out))
}

func TestIoctlUnknownCommandIsInvalid(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 0)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	_, err = dev.Ioctl(h, 0xDEADBEEF, nil)
	assert.ErrorIs(t, err, direrr.ErrInvalidArgument)
}

func TestPollWritableWhenNotBusy(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 0)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	mask, err := dev.Poll(h)
	require.NoError(t, err)
	assert.Equal(t, cusert.PollOut, mask)
}

func TestPollReflectsTxBusy(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 0)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	hh := h.(*handle)
	hh.mu.Lock()
	hh.txBusy = true
	hh.mu.Unlock()

	mask, err := dev.Poll(h)
	require.NoError(t, err)
	assert.Zero(t, mask)
}

func TestConcurrentWriteReturnsBusy(t *testing.T) {
	dev, _ := withFakeDownstreams(t, 0)
	h, err := dev.Open(0)
	require.NoError(t, err)
	defer dev.Close(h)

	hh := h.(*handle)
	hh.mu.Lock()
	hh.txBusy = true
	hh.mu.Unlock()

	_, err = dev.Write(h, []byte{opMIDIPUTC, 0xFE, 0, 0})
	assert.True(t, errors.Is(err, direrr.ErrBusy))
}
