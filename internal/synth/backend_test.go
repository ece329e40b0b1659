package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kpeeters/cusemidid/internal/direrr"
	"github.com/kpeeters/cusemidid/internal/midi"
)

func TestHandleRealTimeIsUnsupported(t *testing.T) {
	b := &Backend{}
	err := b.Handle(&midi.Event{Type: 0xF8})
	assert.ErrorIs(t, err, direrr.ErrUnsupported)
}

func TestHandleUnknownTypeIsDomainError(t *testing.T) {
	b := &Backend{}
	err := b.Handle(&midi.Event{Type: midi.SysExEnd})
	assert.ErrorIs(t, err, direrr.ErrDomain)
}

func TestHandleNilEvent(t *testing.T) {
	b := &Backend{}
	assert.ErrorIs(t, b.Handle(nil), direrr.ErrInvalidArgument)
}

func TestHandleWithoutSoundFontIsIO(t *testing.T) {
	// A Backend constructed with no SoundFont path has no underlying
	// synthesizer, so any dispatch that would reach it surfaces as EIO.
	b := &Backend{}
	err := b.Handle(&midi.Event{Type: midi.NoteOn, Channel: 0, P1: 60, P2: 64})
	assert.ErrorIs(t, err, direrr.ErrIO)
}

func TestConstructSettingsRejectsUnknownDriver(t *testing.T) {
	_, err := ConstructSettings(Options{Driver: "laser-harp"})
	assert.ErrorIs(t, err, direrr.ErrInvalidArgument)
}

func TestOutputDeviceNameDefault(t *testing.T) {
	assert.Equal(t, "default", Options{}.OutputDeviceName())
	assert.Equal(t, "hw:1,0", Options{Device: "hw:1,0"}.OutputDeviceName())
}
