//go:build linux

// File: reactor/mmsg_linux.go
// Author: momentics <momentics@gmail.com>
//
// Thin wrapper over recvmmsg(2). x/sys/unix ships no high-level helper for
// it, so the raw syscall is issued directly against a caller-owned msgvec.

package reactor

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmsghdr mirrors struct mmsghdr. The trailing length field is padded to
// the platform word size by the compiler, matching the kernel layout.
type mmsghdr struct {
	hdr unix.Msghdr
	len uint32
}

// recvmmsg reads up to len(msgvec) datagrams in one syscall. It returns
// the number of datagrams received; the kernel writes each datagram's
// length into msgvec[i].len.
func recvmmsg(fd int, msgvec []mmsghdr, flags int) (int, syscall.Errno) {
	n, _, errno := unix.Syscall6(
		unix.SYS_RECVMMSG,
		uintptr(fd),
		uintptr(unsafe.Pointer(unsafe.SliceData(msgvec))),
		uintptr(len(msgvec)),
		uintptr(flags),
		0, 0,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(n), 0
}
