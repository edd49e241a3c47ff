package vmm

import (
	"gophercore/kernel"
	"gophercore/kernel/mm"
)

var (
	// ErrInvalidBrk is returned when a program break adjustment would move
	// the break below the heap bottom or out of the user address space.
	ErrInvalidBrk = &kernel.Error{Module: "vmm", Message: "program break outside the heap range"}

	// ErrNoHeap is returned when the program break is adjusted before a
	// heap bottom has been set.
	ErrNoHeap = &kernel.Error{Module: "vmm", Message: "address space has no heap"}

	errHeapAlreadySet = &kernel.Error{Module: "vmm", Message: "heap bottom already set"}
)

// SetHeapBottom installs an empty heap whose program break starts at
// bottom. The page containing an unaligned bottom is mapped immediately.
func (as *AddressSpace) SetHeapBottom(bottom mm.VirtAddr) *kernel.Error {
	if bottom > MaxUserAddr {
		return ErrAddressRange
	}

	as.lock.Acquire()
	defer as.lock.Release()

	if as.heapSet {
		return errHeapAlreadySet
	}

	heap := Region{
		Start: bottom.Floor().Page(),
		End:   bottom.Ceil().Page(),
		Perm:  PermRead | PermWrite | PermUser,
		Kind:  RegionHeap,
	}
	if err := as.insertRegion(heap); err != nil {
		return err
	}

	as.heapBottom, as.brk, as.heapSet = bottom, bottom, true
	return nil
}

// ProgramBrk returns the current program break.
func (as *AddressSpace) ProgramBrk() mm.VirtAddr {
	as.lock.Acquire()
	defer as.lock.Release()
	return as.brk
}

// ChangeBrk moves the program break by delta bytes and returns the previous
// break. Growing the heap maps zeroed read/write pages; shrinking it unmaps
// the pages that end up entirely above the new break.
func (as *AddressSpace) ChangeBrk(delta int64) (mm.VirtAddr, *kernel.Error) {
	as.lock.Acquire()
	defer as.lock.Release()

	if !as.heapSet {
		return 0, ErrNoHeap
	}

	old := as.brk
	newBrk := int64(old) + delta
	if (delta < 0 && newBrk > int64(old)) || (delta > 0 && newBrk < int64(old)) ||
		newBrk < int64(as.heapBottom) || newBrk > int64(MaxUserAddr) {
		return 0, ErrInvalidBrk
	}

	index := as.heapIndex()
	heap := as.regions[index]
	newEnd := mm.VirtAddr(newBrk).Ceil().Page()
	if newEnd < heap.Start {
		newEnd = heap.Start
	}

	switch {
	case newEnd > heap.End:
		if err := as.checkFree(heap.End, newEnd); err != nil {
			return 0, err
		}
		if err := as.mapPages(heap.End, newEnd, heap.Perm); err != nil {
			return 0, err
		}
	case newEnd < heap.End:
		as.unmapPages(newEnd, heap.End)
	}

	as.regions[index].End = newEnd
	as.brk = mm.VirtAddr(newBrk)

	log.Trace("brk", "old", uintptr(old), "new", uintptr(newBrk))
	return old, nil
}

// heapIndex returns the index of the heap region. The caller must hold the
// lock and the heap must have been set.
func (as *AddressSpace) heapIndex() int {
	for i, r := range as.regions {
		if r.Kind == RegionHeap {
			return i
		}
	}
	return -1
}
