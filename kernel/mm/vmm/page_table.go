package vmm

import (
	"gophercore/kernel"
	"gophercore/kernel/mm"
)

var (
	// ErrInvalidMapping is returned when trying to lookup a virtual memory address that is not yet mapped.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	// ErrAlreadyMapped is returned when trying to map a page that already has a valid mapping.
	ErrAlreadyMapped = &kernel.Error{Module: "vmm", Message: "virtual page is already mapped"}
)

// PageTable describes the top-most table in a multi-level paging scheme
// together with the frames that hold its intermediate tables.
type PageTable struct {
	root mm.Frame

	// frames tracks the table frames allocated by this PageTable. Tables
	// obtained via PageTableFromToken do not own any frames.
	frames []mm.Frame
}

// NewPageTable allocates and clears a root table frame.
func NewPageTable() (*PageTable, *kernel.Error) {
	root, err := mm.AllocFrame()
	if err != nil {
		return nil, err
	}
	kernel.Memset(mm.FrameBytes(root), 0)

	return &PageTable{root: root, frames: []mm.Frame{root}}, nil
}

// PageTableFromToken returns a view of the page table identified by token.
// The returned table can be used for lookups and translations but must not
// be destroyed.
func PageTableFromToken(token uint64) *PageTable {
	return &PageTable{root: mm.Frame(token & tokenPPNMask)}
}

// Token returns the value that identifies this page table to the translator.
func (pt *PageTable) Token() uint64 {
	return tokenModeSv39 | uint64(pt.root)
}

// Map establishes a mapping between a virtual page and a physical memory
// frame. Calls to Map will use the registered physical frame allocator to
// initialize missing page tables at each paging level. Mapping a page that
// is already mapped returns ErrAlreadyMapped.
func (pt *PageTable) Map(page mm.Page, frame mm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	walk(pt.root, page, func(pteLevel uint8, pte *pageTableEntry) bool {
		// If we reached the last level all we need to do is to map the
		// frame in place and flag it as valid
		if pteLevel == pageLevels-1 {
			if pte.HasFlags(FlagValid) {
				err = ErrAlreadyMapped
				return false
			}

			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(flags | FlagValid)
			return true
		}

		// Next table does not yet exist; we need to allocate a
		// physical frame for it and clear its contents.
		if !pte.HasFlags(FlagValid) {
			var newTableFrame mm.Frame
			newTableFrame, err = mm.AllocFrame()
			if err != nil {
				return false
			}
			kernel.Memset(mm.FrameBytes(newTableFrame), 0)
			pt.frames = append(pt.frames, newTableFrame)

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagValid)
		}

		return true
	})

	return err
}

// Unmap removes a mapping previously installed via a call to Map. The frame
// that backed the page is not released.
func (pt *PageTable) Unmap(page mm.Page) *kernel.Error {
	err := ErrInvalidMapping

	walk(pt.root, page, func(pteLevel uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagValid) {
			return false
		}

		// If we reached the last level all we need to do is to clear
		// the entry
		if pteLevel == pageLevels-1 {
			*pte = 0
			err = nil
		}

		return true
	})

	return err
}

// Lookup returns the frame and flags of the leaf entry for page. The
// returned bool is false if the page is not mapped.
func (pt *PageTable) Lookup(page mm.Page) (mm.Frame, PageTableEntryFlag, bool) {
	pte, err := pt.pteForPage(page)
	if err != nil {
		return mm.InvalidFrame, 0, false
	}
	return pte.Frame(), pte.Flags(), true
}

// Destroy releases the frames holding this page table. Frames referenced by
// leaf entries are owned by the caller and are not released.
func (pt *PageTable) Destroy() {
	for _, frame := range pt.frames {
		_ = mm.FreeFrame(frame)
	}
	pt.frames = nil
	pt.root = mm.InvalidFrame
}

// pteForPage returns the final page table entry that corresponds to a
// particular virtual page. The function performs a page table walk till it
// reaches the final page table entry returning ErrInvalidMapping if the page
// is not present.
func (pt *PageTable) pteForPage(page mm.Page) (*pageTableEntry, *kernel.Error) {
	var (
		err   = ErrInvalidMapping
		entry *pageTableEntry
	)

	walk(pt.root, page, func(pteLevel uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagValid) {
			return false
		}

		if pteLevel == pageLevels-1 {
			entry, err = pte, nil
		}
		return true
	})

	return entry, err
}
