// Package vmm implements the per-task virtual memory layer: a software
// multi-level page table, translation of user pointers into physical byte
// ranges, copy-out of kernel values into user memory and the region mapper
// behind mmap, munmap and the program break.
package vmm

import "gophercore/kernel/kfmt"

var (
	// the following functions are mocked by tests.
	translateFn = TranslatedByteBuffer

	log = kfmt.Logger().Named("vmm")
)
