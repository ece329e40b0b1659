// Package devtty provides a development/test Runtime that exposes a
// cusert.Device over a pseudo-terminal pair instead of a real CUSE node,
// generalizing the teacher's "kisspt_init" pseudo-terminal KISS TNC
// emulation (src/kissserial.go's companion pty mode) from "KISS over a
// pty" to "any cusert.Device over a pty". It needs no root privilege and
// no FUSE kernel module, at the cost of not exercising ioctl or poll —
// only open, write, and close reach the Device.
package devtty

import (
	"context"
	"io"
	"os"

	"github.com/creack/pty"

	"github.com/kpeeters/cusemidid/internal/cusert"
)

// Runtime drives one cusert.Device over a pty pair. SlaveName reports the
// path a client application should open in place of the real device node
// (e.g. "/dev/pts/7").
type Runtime struct {
	master *os.File
	slave  *os.File
	handle cusert.Handle

	SlaveName string
}

const writeChunk = 4096

// Open allocates the pty pair. It does not call Device.Open — that happens
// lazily on the first WaitAndProcess call, before any byte is read.
func (r *Runtime) Open() error {
	master, slave, err := pty.Open()
	if err != nil {
		return err
	}
	r.master, r.slave = master, slave
	r.SlaveName = slave.Name()
	return nil
}

// Close releases both ends of the pty.
func (r *Runtime) Close() error {
	var firstErr error
	if r.master != nil {
		firstErr = r.master.Close()
	}
	if r.slave != nil {
		if err := r.slave.Close(); firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WaitAndProcess blocks on one read from the pty master, opens the device
// handle on first use, and feeds the bytes read to dev.Write. It
// implements cusert.Runtime.
func (r *Runtime) WaitAndProcess(ctx context.Context, dev cusert.Device) error {
	if r.handle == nil {
		h, err := dev.Open(0)
		if err != nil {
			return err
		}
		r.handle = h
	}

	if ctx.Err() != nil {
		if r.handle != nil {
			_ = dev.Close(r.handle)
			r.handle = nil
		}
		return cusert.ErrShutdown
	}

	buf := make([]byte, writeChunk)
	n, err := r.master.Read(buf)
	if err != nil {
		if err == io.EOF {
			return cusert.ErrShutdown
		}
		return nil // transient read error; retry on the next iteration
	}
	if n == 0 {
		return nil
	}

	_, err = dev.Write(r.handle, buf[:n])
	return err
}

var _ cusert.Runtime = (*Runtime)(nil)
