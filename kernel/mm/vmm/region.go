package vmm

import (
	"fmt"

	"gophercore/kernel/mm"
)

// RegionKind describes how a region was created.
type RegionKind uint8

const (
	// RegionStack is a user stack installed by the kernel.
	RegionStack RegionKind = iota + 1

	// RegionHeap is the area between the heap bottom and the program break.
	RegionHeap

	// RegionMmap is a region installed by an mmap request.
	RegionMmap
)

// String implements fmt.Stringer.
func (k RegionKind) String() string {
	switch k {
	case RegionStack:
		return "stack"
	case RegionHeap:
		return "heap"
	case RegionMmap:
		return "mmap"
	default:
		return "unknown"
	}
}

// Region is a page-aligned virtual range [Start, End) with a single
// permission set.
type Region struct {
	Start, End mm.Page
	Perm       MapPermission
	Kind       RegionKind
}

// PageCount returns the number of pages spanned by the region.
func (r Region) PageCount() uintptr {
	return uintptr(r.End - r.Start)
}

// Contains returns true if page lies inside the region.
func (r Region) Contains(page mm.Page) bool {
	return page >= r.Start && page < r.End
}

// Overlaps returns true if the region shares at least one page with
// [start, end).
func (r Region) Overlaps(start, end mm.Page) bool {
	return start < r.End && r.Start < end
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("[%#x - %#x) %s %s", uintptr(r.Start.Address()), uintptr(r.End.Address()), r.Perm, r.Kind)
}
