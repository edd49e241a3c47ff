//go:build !unix

package pmm

import "gophercore/kernel"

// mapArena allocates the frame arena on the Go heap for platforms without
// anonymous mmap support.
func mapArena(size uintptr) ([]byte, *kernel.Error) {
	return make([]byte, size), nil
}

func unmapArena([]byte) {}
