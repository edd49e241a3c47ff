package vmm

import (
	"sort"

	"gophercore/kernel"
	"gophercore/kernel/mm"
	"gophercore/kernel/sync"
)

var (
	// ErrMisaligned is returned when a region start address is not a
	// multiple of the page size.
	ErrMisaligned = &kernel.Error{Module: "vmm", Message: "address is not page-aligned"}

	// ErrRegionOverlap is returned when a new region would share pages
	// with an existing region or mapping.
	ErrRegionOverlap = &kernel.Error{Module: "vmm", Message: "region overlaps an existing mapping"}

	// ErrRegionNotMapped is returned by Munmap when a page in the requested
	// range is not backed by an mmap region.
	ErrRegionNotMapped = &kernel.Error{Module: "vmm", Message: "range contains pages that are not mapped by mmap"}
)

// AddressSpace is the virtual address space of a single task: a page table
// and the sorted, non-overlapping list of regions installed in it.
type AddressSpace struct {
	lock sync.Spinlock

	pageTable *PageTable
	regions   []Region

	heapBottom mm.VirtAddr
	brk        mm.VirtAddr
	heapSet    bool
}

// NewAddressSpace returns an empty address space with a freshly allocated
// root page table.
func NewAddressSpace() (*AddressSpace, *kernel.Error) {
	pt, err := NewPageTable()
	if err != nil {
		return nil, err
	}

	return &AddressSpace{pageTable: pt}, nil
}

// Token returns the page table token for this address space.
func (as *AddressSpace) Token() uint64 {
	return as.pageTable.Token()
}

// PageTable returns the page table backing this address space.
func (as *AddressSpace) PageTable() *PageTable {
	return as.pageTable
}

// Regions returns a snapshot of the installed regions ordered by start page.
// Empty regions are omitted.
func (as *AddressSpace) Regions() []Region {
	as.lock.Acquire()
	defer as.lock.Release()

	out := make([]Region, 0, len(as.regions))
	for _, r := range as.regions {
		if r.Start < r.End {
			out = append(out, r)
		}
	}
	return out
}

// InsertRegion backs every page of r with a fresh zeroed frame and records
// the region. It is used by the kernel to install stacks and other regions
// that are not requested through mmap.
func (as *AddressSpace) InsertRegion(r Region) *kernel.Error {
	if r.End < r.Start || r.End.Address() > MaxUserAddr {
		return ErrAddressRange
	}

	as.lock.Acquire()
	defer as.lock.Release()

	return as.insertRegion(r)
}

// Mmap installs a region of length bytes starting at start with the access
// rights encoded in port (bit 0 read, bit 1 write, bit 2 execute). The
// region is rounded up to a whole number of pages. A zero length passes
// validation and installs nothing.
func (as *AddressSpace) Mmap(start mm.VirtAddr, length uintptr, port uintptr) *kernel.Error {
	if !start.Aligned() {
		return ErrMisaligned
	}

	if err := ValidPort(port); err != nil {
		return err
	}

	end, err := rangeEnd(start, length)
	if err != nil || end == start {
		return err
	}

	region := Region{
		Start: start.Page(),
		End:   end.Page(),
		Perm:  PermissionFromPort(port),
		Kind:  RegionMmap,
	}

	as.lock.Acquire()
	defer as.lock.Release()

	if err = as.insertRegion(region); err != nil {
		return err
	}

	log.Debug("mmap", "region", region.String())
	return nil
}

// Munmap removes the mapping of every page in the length bytes starting at
// start. Each page must belong to a region installed by Mmap; otherwise
// ErrRegionNotMapped is returned and the address space is left untouched.
func (as *AddressSpace) Munmap(start mm.VirtAddr, length uintptr) *kernel.Error {
	if !start.Aligned() {
		return ErrMisaligned
	}

	end, err := rangeEnd(start, length)
	if err != nil || end == start {
		return err
	}

	startPage, endPage := start.Page(), end.Page()

	as.lock.Acquire()
	defer as.lock.Release()

	// Validate full coverage before touching any entry
	for page := startPage; page < endPage; page++ {
		index := as.findRegion(page)
		if index < 0 || as.regions[index].Kind != RegionMmap {
			return ErrRegionNotMapped
		}
		if _, _, mapped := as.pageTable.Lookup(page); !mapped {
			return ErrRegionNotMapped
		}
	}

	as.unmapPages(startPage, endPage)
	as.removeRange(startPage, endPage)

	log.Debug("munmap", "start", uintptr(start), "pages", uintptr(endPage-startPage))
	return nil
}

// Teardown unmaps every region, returns all frames to the frame allocator
// and destroys the page table. The address space must not be used
// afterwards.
func (as *AddressSpace) Teardown() {
	as.lock.Acquire()
	defer as.lock.Release()

	for _, r := range as.regions {
		as.unmapPages(r.Start, r.End)
	}
	as.regions = nil
	as.pageTable.Destroy()
}

// CopyOut serializes value into this address space at ptr.
func (as *AddressSpace) CopyOut(ptr mm.VirtAddr, value Marshaler) *kernel.Error {
	return CopyOut(as.Token(), ptr, value)
}

// CopyIn decodes value from the bytes found at ptr in this address space.
func (as *AddressSpace) CopyIn(ptr mm.VirtAddr, value Unmarshaler) *kernel.Error {
	return CopyIn(as.Token(), ptr, value)
}

// Load fills dst with the user-readable bytes found at ptr.
func (as *AddressSpace) Load(ptr mm.VirtAddr, dst []byte) *kernel.Error {
	return CopyInBytes(as.Token(), ptr, dst)
}

// Store writes src to the user-writable bytes at ptr.
func (as *AddressSpace) Store(ptr mm.VirtAddr, src []byte) *kernel.Error {
	return CopyOutBytes(as.Token(), ptr, src)
}

// rangeEnd returns the page-aligned end of a length byte range starting at
// the aligned address start.
func rangeEnd(start mm.VirtAddr, length uintptr) (mm.VirtAddr, *kernel.Error) {
	if start > MaxUserAddr {
		return 0, ErrAddressRange
	}

	pageCount := mm.PageCount(length)
	if pageCount > uintptr(MaxUserAddr-start)>>mm.PageShift {
		return 0, ErrAddressRange
	}

	return start + mm.VirtAddr(pageCount<<mm.PageShift), nil
}

// insertRegion maps and records r. On failure every page mapped so far is
// released. The caller must hold the lock.
func (as *AddressSpace) insertRegion(r Region) *kernel.Error {
	if err := as.checkFree(r.Start, r.End); err != nil {
		return err
	}

	if err := as.mapPages(r.Start, r.End, r.Perm); err != nil {
		return err
	}

	index := sort.Search(len(as.regions), func(i int) bool { return as.regions[i].Start >= r.Start })
	as.regions = append(as.regions, Region{})
	copy(as.regions[index+1:], as.regions[index:])
	as.regions[index] = r
	return nil
}

// checkFree returns ErrRegionOverlap if any page in [start, end) belongs to
// a region or has a valid page table entry.
func (as *AddressSpace) checkFree(start, end mm.Page) *kernel.Error {
	for _, r := range as.regions {
		if r.Overlaps(start, end) {
			return ErrRegionOverlap
		}
	}

	for page := start; page < end; page++ {
		if _, _, mapped := as.pageTable.Lookup(page); mapped {
			return ErrRegionOverlap
		}
	}
	return nil
}

// mapPages backs [start, end) with freshly allocated zeroed frames. If a
// frame or table allocation fails, the pages mapped by this call are
// unmapped again and their frames released. Intermediate table frames
// allocated along the way stay with the page table until Teardown.
func (as *AddressSpace) mapPages(start, end mm.Page, perm MapPermission) *kernel.Error {
	for page := start; page < end; page++ {
		frame, err := mm.AllocFrame()
		if err == nil {
			if err = as.pageTable.Map(page, frame, perm.flags()); err != nil {
				_ = mm.FreeFrame(frame)
			}
		}

		if err != nil {
			as.unmapPages(start, page)
			return err
		}
	}
	return nil
}

// unmapPages clears the mappings of [start, end) and releases their frames.
// Pages without a mapping are skipped.
func (as *AddressSpace) unmapPages(start, end mm.Page) {
	for page := start; page < end; page++ {
		frame, _, mapped := as.pageTable.Lookup(page)
		if !mapped {
			continue
		}
		_ = as.pageTable.Unmap(page)
		_ = mm.FreeFrame(frame)
	}
}

// findRegion returns the index of the non-empty region containing page or
// -1 if no region contains it. Regions are ordered by Start only; an empty
// heap region may share its Start with, or sit inside the span of, a
// neighbouring region, so empty entries are skipped.
func (as *AddressSpace) findRegion(page mm.Page) int {
	index := sort.Search(len(as.regions), func(i int) bool { return as.regions[i].Start > page })
	for index--; index >= 0; index-- {
		if r := as.regions[index]; r.Start < r.End {
			if r.Contains(page) {
				return index
			}
			return -1
		}
	}
	return -1
}

// removeRange drops [start, end) from the region list, trimming regions
// that partially overlap it and splitting a region that strictly contains
// it.
func (as *AddressSpace) removeRange(start, end mm.Page) {
	kept := as.regions[:0:0]
	for _, r := range as.regions {
		if !r.Overlaps(start, end) {
			kept = append(kept, r)
			continue
		}

		if r.Start < start {
			head := r
			head.End = start
			kept = append(kept, head)
		}
		if end < r.End {
			tail := r
			tail.Start = end
			kept = append(kept, tail)
		}
	}
	as.regions = kept
}
