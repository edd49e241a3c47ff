package vmm

import (
	"unsafe"

	"gophercore/kernel/mm"
)

var (
	// tableEntriesFn returns the page table stored in a physical frame. It
	// is used by tests to supply fake page tables to walk().
	tableEntriesFn = func(frame mm.Frame) []pageTableEntry {
		buf := mm.FrameBytes(frame)
		return unsafe.Slice((*pageTableEntry)(unsafe.Pointer(&buf[0])), len(buf)/int(unsafe.Sizeof(pageTableEntry(0))))
	}
)

// pageTableWalker is a function that can be passed to the walk method. The
// function receives the current page level and page table entry as its
// arguments. If the function returns false, then the page walk is aborted.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walk performs a page table walk for the given page starting at the table
// stored in root. It calls the supplied walkFn with the page table entry that
// corresponds to each page table level. The walk stops early if walkFn
// returns false or if a non-leaf entry is still invalid after walkFn returns.
func walk(root mm.Frame, page mm.Page, walkFn pageTableWalker) {
	var (
		virtAddr   = uintptr(page.Address())
		tableFrame = root
		entryIndex uintptr
		pte        *pageTableEntry
	)

	for level := uint8(0); level < pageLevels; level++ {
		// Extract the bits from virtual address that correspond to the
		// index in this level's page table
		entryIndex = (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		pte = &tableEntriesFn(tableFrame)[entryIndex]

		if !walkFn(level, pte) {
			return
		}

		if !pte.HasFlags(FlagValid) {
			return
		}

		tableFrame = pte.Frame()
	}
}
