package seq

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/kpeeters/cusemidid/internal/ossctl"
	"github.com/kpeeters/cusemidid/internal/udevscan"
)

// downstream is one device a handle multiplexes onto: either a raw MIDI
// device node opened by openDownstreams, or an in-process synth unit built
// by newLocalSynthDownstream. closer is non-nil whenever the downstream
// owns a resource that must be released on close.
type downstream struct {
	f      io.Writer
	closer io.Closer
	name   string
}

// openDownstreams scans for device nodes matching prefixes and opens each
// read-write, per spec.md §4.4 "open". A node that fails to open is
// skipped rather than aborting the whole scan — one dead device node
// should not prevent the sequencer from using the others.
func openDownstreams(prefixes []string) ([]downstream, error) {
	entries, err := udevscan.Scan(prefixes)
	if err != nil {
		return nil, err
	}

	devs := make([]downstream, 0, len(entries))
	for _, e := range entries {
		f, err := os.OpenFile(e.Path, os.O_RDWR, 0)
		if err != nil {
			continue
		}
		devs = append(devs, downstream{f: f, closer: f, name: queryDisplayName(f, e.Name)})
	}

	return devs, nil
}

func closeDownstreams(devs []downstream) {
	for _, d := range devs {
		if d.closer != nil {
			d.closer.Close()
		}
	}
}

// queryDisplayName asks the device itself for its name via a MIDI-info
// control, falling back to a synthesized name on any failure — no ioctl
// wrapper for this legacy struct exists in golang.org/x/sys/unix (unlike
// src/cm108.go's unix.IoctlHIDGetRawInfo for HIDIOCGRAWINFO), so the
// request is placed directly via unix.Syscall, the same raw-syscall
// fallback the x/sys/unix package itself uses to implement its typed
// wrappers.
func queryDisplayName(f *os.File, basename string) string {
	buf := make([]byte, 4+30+4)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(ossctl.SNDCTL_MIDI_INFO), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return fmt.Sprintf("H/W MIDI: %s", basename)
	}

	name := buf[4 : 4+30]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if strings.TrimSpace(string(name)) == "" {
		return fmt.Sprintf("H/W MIDI: %s", basename)
	}
	return string(name)
}
