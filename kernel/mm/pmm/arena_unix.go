//go:build unix

package pmm

import (
	"gophercore/kernel"

	"golang.org/x/sys/unix"
)

var errArenaMap = &kernel.Error{Module: "pmm", Message: "unable to map physical memory arena"}

// mapArena reserves size bytes of zeroed memory outside the Go heap to back
// the physical frames.
func mapArena(size uintptr) ([]byte, *kernel.Error) {
	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errArenaMap
	}
	return mem, nil
}

// unmapArena releases an arena obtained by mapArena.
func unmapArena(mem []byte) {
	_ = unix.Munmap(mem)
}
