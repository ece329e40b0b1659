// Package ossctl names the ioctl operation codes and wire structures both
// device engines honor (spec.md §6). Values mirror the real OSS
// <sys/soundcard.h> _IOR/_IOWR encodings closely enough to be recognized,
// but spec.md's Non-goals explicitly exclude bit-for-bit legacy ioctl
// emulation beyond what drives the timer and enumerates units, so exact
// numeric parity with a given kernel's soundcard.h is not a goal here.
package ossctl

// Generic file-descriptor ioctls, honored identically by both devices.
const (
	FIOASYNC  uint32 = 0x5452
	FIONBIO   uint32 = 0x5421
	FIONREAD  uint32 = 0x541B
	FIONWRITE uint32 = 0x5460 // not a real Linux ioctl number; local convention
)

// MIDI device ioctls.
const (
	SNDCTL_MIDI_INFO uint32 = 0xC074_4D03
)

// Sequencer device ioctls.
const (
	SNDCTL_SEQ_RESET     uint32 = 0x5100
	SNDCTL_SEQ_SYNC      uint32 = 0x5101
	SNDCTL_SYNTH_INFO    uint32 = 0xC0A8_5102
	SNDCTL_SEQ_CTRLRATE  uint32 = 0xC004_5103
	SNDCTL_SEQ_GETOUTCOUNT uint32 = 0x8004_5104
	SNDCTL_SEQ_GETINCOUNT  uint32 = 0x8004_5105
	SNDCTL_SEQ_PANIC     uint32 = 0x5107
	SNDCTL_SEQ_OUTOFBAND uint32 = 0x4008_5108
	SNDCTL_SEQ_GETTIME   uint32 = 0x8004_5109
	SNDCTL_SEQ_NRSYNTHS  uint32 = 0x8004_510A
	SNDCTL_SEQ_NRMIDIS   uint32 = 0x8004_510B
	SNDCTL_MIDI_INFO_SEQ uint32 = 0xC074_510C // MIDI_INFO as seen through /dev/sequencer

	SNDCTL_TMR_TIMEBASE  uint32 = 0xC004_5201
	SNDCTL_TMR_START     uint32 = 0x5202
	SNDCTL_TMR_STOP      uint32 = 0x5203
	SNDCTL_TMR_CONTINUE  uint32 = 0x5204
	SNDCTL_TMR_TEMPO     uint32 = 0xC004_5205
	SNDCTL_TMR_SOURCE    uint32 = 0xC004_5206
	SNDCTL_TMR_METRONOME uint32 = 0x5207
	SNDCTL_TMR_SELECT    uint32 = 0xC004_5208

	SNDCTL_FM_4OP_ENABLE uint32 = 0x5301
	SNDCTL_PMGR_IFACE    uint32 = 0xC1045401
	SNDCTL_PMGR_ACCESS   uint32 = 0xC1045402
)

// MidiInfo is the per-unit descriptor returned by SNDCTL_MIDI_INFO.
type MidiInfo struct {
	Device  int32
	Name    string
	DevType int32
}

// SynthInfo is the per-unit descriptor returned by SNDCTL_SYNTH_INFO.
type SynthInfo struct {
	Name       string
	Device     int32
	SynthType  int32
	SynthSubtype int32
}

// Synth-type / dev-type constants used by the info records above.
const (
	SynthTypeMIDI int32 = 0x01
	DevTypeMIDI   int32 = 0x01
)
