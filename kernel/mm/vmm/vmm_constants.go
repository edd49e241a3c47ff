package vmm

import "gophercore/kernel/mm"

const (
	// pageLevels indicates the number of page table levels used by the
	// Sv39 paging scheme.
	pageLevels = 3

	// ptePPNShift is the bit position of the physical page number inside a
	// page table entry.
	ptePPNShift = 10

	// ptePPNMask extracts the physical page number (bits 10-53) from a page
	// table entry.
	ptePPNMask = pageTableEntry(((1 << 44) - 1) << ptePPNShift)

	// tokenModeSv39 is OR-ed into the root frame number to form the
	// address-space token handed to the translator.
	tokenModeSv39 = uint64(8) << 60

	// tokenPPNMask extracts the root frame number from a token.
	tokenPPNMask = uint64(1)<<44 - 1

	// MaxUserAddr is the first virtual address that lies beyond the user
	// half of the Sv39 address space.
	MaxUserAddr = mm.VirtAddr(1 << 38)
)

var (
	// pageLevelBits defines the number of virtual address bits that
	// correspond to each page level. Each level uses 9 bits which amounts
	// to 512 entries for each page table.
	pageLevelBits = [pageLevels]uint8{
		9,
		9,
		9,
	}

	// pageLevelShifts defines the shift required to access each page table
	// component of a virtual address.
	pageLevelShifts = [pageLevels]uint8{
		30,
		21,
		12,
	}
)

const (
	// FlagValid is set when the entry points to a frame or a next-level table.
	FlagValid PageTableEntryFlag = 1 << iota

	// FlagRead is set if the page can be read.
	FlagRead

	// FlagWrite is set if the page can be written to.
	FlagWrite

	// FlagExecute is set if instructions can be fetched from the page.
	FlagExecute

	// FlagUser is set if user-mode tasks can access this page. If not set
	// only kernel code can access this page.
	FlagUser

	// FlagGlobal marks mappings present in every address space.
	FlagGlobal

	// FlagAccessed is set when this page is accessed.
	FlagAccessed

	// FlagDirty is set when this page is modified.
	FlagDirty
)
