//go:build unix

package vmm

import "golang.org/x/sys/unix"

// The low three bits of an mmap port use the host PROT_* encoding.
const (
	portRead  = unix.PROT_READ
	portWrite = unix.PROT_WRITE
	portExec  = unix.PROT_EXEC
)
