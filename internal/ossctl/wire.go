package ossctl

import "encoding/binary"

// nameFieldLen mirrors the 30-byte name field the real struct midi_info /
// synth_info carry in <sys/soundcard.h>.
const nameFieldLen = 30

// PutInt32 and Int32 encode/decode the scalar ioctl results (FIONREAD,
// FIONWRITE, CTRLRATE, GETTIME, NRSYNTHS, NRMIDIS) as 4-byte little-endian,
// the host kernel-proxy's native int representation on every platform this
// runs on.
func PutInt32(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func Int32(buf []byte) int32 {
	if len(buf) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(buf))
}

// EncodeMidiInfo lays out a MidiInfo the way struct midi_info does: a
// 4-byte device number, a fixed-width name field, and a 4-byte dev_type.
func EncodeMidiInfo(info MidiInfo) []byte {
	buf := make([]byte, 4+nameFieldLen+4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(info.Device))
	copy(buf[4:4+nameFieldLen], info.Name)
	binary.LittleEndian.PutUint32(buf[4+nameFieldLen:], uint32(info.DevType))
	return buf
}

// EncodeSynthInfo lays out a SynthInfo analogously to EncodeMidiInfo.
func EncodeSynthInfo(info SynthInfo) []byte {
	buf := make([]byte, nameFieldLen+4+4+4)
	copy(buf[0:nameFieldLen], info.Name)
	off := nameFieldLen
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(info.Device))
	binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(info.SynthType))
	binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(info.SynthSubtype))
	return buf
}
