// Package cusert defines the character-device boundary the MIDI device
// engine (internal/mididev) and sequencer engine (internal/seq) present to
// a host kernel-proxy runtime, and drives it with a fixed worker pool —
// the concurrency shape spec.md §5 describes ("a pool of worker threads...
// drives the kernel-proxy event loop cooperatively"), generalized from the
// teacher's per-connection goroutine dispatch in src/server.go.
//
// The actual CUSE wire protocol is out of scope per spec.md §1 ("any
// bit-for-bit emulation of legacy OSS ioctls beyond those required...");
// this package only fixes the shape of the boundary and provides two
// concrete Runtimes: a Linux CUSE binding (fuse_runtime.go) and a
// pseudo-terminal development runtime (internal/devtty).
package cusert

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Handle is an opaque per-open-file token returned by Device.Open and
// threaded through every later call on that file descriptor.
type Handle interface{}

// PollMask reports which directions a handle is currently ready for.
type PollMask uint32

const (
	PollIn PollMask = 1 << iota
	PollOut
)

// Device is the five-method character-device contract spec.md §4.3 and
// §4.4 both implement against. Ioctl's cmd/arg shapes are runtime-specific
// (encoded the way the host kernel-proxy encodes them); callers translate
// to/from their own ioctl numbering.
type Device interface {
	Open(flags int) (Handle, error)
	Close(h Handle) error
	Read(h Handle, buf []byte) (int, error)
	Write(h Handle, buf []byte) (int, error)
	Ioctl(h Handle, cmd uint32, arg []byte) ([]byte, error)
	Poll(h Handle) (PollMask, error)
}

// Runtime is the host kernel-proxy's blocking "wait and process" entry
// point: one call services at most one pending operation against dev,
// blocking until there is one or ctx is cancelled.
type Runtime interface {
	WaitAndProcess(ctx context.Context, dev Device) error
}

// ErrShutdown is returned by a Runtime's WaitAndProcess when ctx was
// cancelled and no further work will be dispatched.
var ErrShutdown = errors.New("cusert: shutting down")

// DefaultWorkerCount returns 2x the online CPU count, the teacher's
// default thread count for its socket/server loops (spec.md §5).
func DefaultWorkerCount() int {
	return 2 * runtime.NumCPU()
}

// Run starts workers goroutines, each looping on rt.WaitAndProcess(ctx,
// dev) until ctx is cancelled or the runtime reports ErrShutdown. It
// returns once every worker has exited. Per spec.md §5, multiple callbacks
// for the same handle may run concurrently on different workers; Device
// implementations are responsible for their own per-handle serialization
// (see internal/mididev and internal/seq, both of which hold a per-handle
// mutex around mutable state).
func Run(ctx context.Context, rt Runtime, dev Device, workers int) {
	if workers <= 0 {
		workers = DefaultWorkerCount()
	}

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				err := rt.WaitAndProcess(ctx, dev)
				if err != nil {
					if errors.Is(err, ErrShutdown) || ctx.Err() != nil {
						return
					}
					// Transient runtime error (e.g. EINTR during a
					// syscall); the teacher's worker loops simply retry
					// on the next iteration.
					continue
				}
				if ctx.Err() != nil {
					return
				}
			}
		}()
	}

	wg.Wait()
}
