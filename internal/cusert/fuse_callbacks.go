//go:build linux

package cusert

/*
#cgo pkg-config: fuse3
#include <fuse3/cuse_lowlevel.h>
#include <string.h>
*/
import "C"

import "unsafe"

// The functions below are the Go halves of the extern declarations in
// fuse_runtime.go's cgo preamble — libfuse invokes them directly as the
// cuse_lowlevel_ops table's open/release/read/write/ioctl/poll members.
// Each looks up its session's Device via fuseDevices (cgo export functions
// cannot be methods, so Go-side state is threaded through that map rather
// than a receiver).

func sessionOf(req C.fuse_req_t) *C.struct_fuse_session {
	return C.fuse_req_session(req)
}

//export goCuseOpen
func goCuseOpen(req C.fuse_req_t, fi *C.struct_fuse_file_info) {
	sess := sessionOf(req)

	fuseMu.Lock()
	dev := fuseDevices[sess]
	fuseNextFH++
	fh := fuseNextFH
	fuseMu.Unlock()

	h, err := dev.Open(int(fi.flags))
	if err != nil {
		C.fuse_reply_err(req, C.ENOMEM)
		return
	}

	fuseMu.Lock()
	fuseHandles[sess][fh] = h
	fuseMu.Unlock()

	fi.fh = C.uint64_t(fh)
	C.fuse_reply_open(req, fi)
}

//export goCuseRelease
func goCuseRelease(req C.fuse_req_t, fi *C.struct_fuse_file_info) {
	sess := sessionOf(req)

	fuseMu.Lock()
	dev := fuseDevices[sess]
	h, ok := fuseHandles[sess][uint64(fi.fh)]
	delete(fuseHandles[sess], uint64(fi.fh))
	fuseMu.Unlock()

	if !ok {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}

	if err := dev.Close(h); err != nil {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}
	C.fuse_reply_err(req, 0)
}

//export goCuseRead
func goCuseRead(req C.fuse_req_t, size C.size_t, off C.off_t, fi *C.struct_fuse_file_info) {
	// spec.md §4.3: read always fails.
	_ = size
	_ = off
	_ = fi
	C.fuse_reply_err(req, C.EINVAL)
}

//export goCuseWrite
func goCuseWrite(req C.fuse_req_t, buf *C.char, size C.size_t, off C.off_t, fi *C.struct_fuse_file_info) {
	sess := sessionOf(req)

	fuseMu.Lock()
	dev := fuseDevices[sess]
	h, ok := fuseHandles[sess][uint64(fi.fh)]
	fuseMu.Unlock()

	if !ok {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}

	data := C.GoBytes(unsafe.Pointer(buf), C.int(size))
	n, err := dev.Write(h, data)
	if err != nil {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}
	C.fuse_reply_write(req, C.size_t(n))
}

//export goCuseIoctl
func goCuseIoctl(req C.fuse_req_t, cmd C.int, arg unsafe.Pointer, fi *C.struct_fuse_file_info,
	flags C.uint, inBuf unsafe.Pointer, inBufsz C.size_t, outBufsz C.size_t) {
	sess := sessionOf(req)

	fuseMu.Lock()
	dev := fuseDevices[sess]
	h, ok := fuseHandles[sess][uint64(fi.fh)]
	fuseMu.Unlock()

	if !ok {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}

	in := C.GoBytes(inBuf, C.int(inBufsz))
	out, err := dev.Ioctl(h, uint32(cmd), in)
	if err != nil {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}

	if len(out) == 0 {
		C.fuse_reply_ioctl(req, 0, nil, 0)
		return
	}
	C.fuse_reply_ioctl(req, 0, unsafe.Pointer(&out[0]), C.size_t(len(out)))
}

//export goCusePoll
func goCusePoll(req C.fuse_req_t, fi *C.struct_fuse_file_info, ph *C.struct_fuse_pollhandle) {
	sess := sessionOf(req)

	fuseMu.Lock()
	dev := fuseDevices[sess]
	h, ok := fuseHandles[sess][uint64(fi.fh)]
	fuseMu.Unlock()

	if !ok {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}

	mask, err := dev.Poll(h)
	if err != nil {
		C.fuse_reply_err(req, C.EINVAL)
		return
	}
	C.fuse_reply_poll(req, C.uint(mask))
	if ph != nil {
		C.fuse_pollhandle_destroy(ph)
	}
}
