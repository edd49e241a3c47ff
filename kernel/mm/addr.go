package mm

// VirtAddr is a byte offset in a task's virtual address space. It is never
// dereferenced directly; the page-table primitive maps it to a PhysAddr.
type VirtAddr uintptr

// PhysAddr is a byte offset in physical memory.
type PhysAddr uintptr

// Page returns the page that contains this address.
func (a VirtAddr) Page() Page { return Page(uintptr(a) >> PageShift) }

// PageOffset returns the offset of this address within its page.
func (a VirtAddr) PageOffset() uintptr { return uintptr(a) & PageMask }

// Aligned returns true if the address is a multiple of PageSize.
func (a VirtAddr) Aligned() bool { return a.PageOffset() == 0 }

// Floor rounds the address down to the start of its page.
func (a VirtAddr) Floor() VirtAddr { return a &^ VirtAddr(PageMask) }

// Ceil rounds the address up to the next page boundary. Aligned addresses are
// returned unchanged.
func (a VirtAddr) Ceil() VirtAddr { return (a + VirtAddr(PageMask)) &^ VirtAddr(PageMask) }

// Frame returns the frame that contains this address.
func (a PhysAddr) Frame() Frame { return FrameFromAddress(a) }

// PageOffset returns the offset of this address within its frame.
func (a PhysAddr) PageOffset() uintptr { return uintptr(a) & PageMask }

// PageCount returns the number of pages required to hold size bytes, i.e.
// ceil(size / PageSize).
func PageCount(size uintptr) uintptr {
	return size>>PageShift + (size&PageMask+PageMask)>>PageShift
}
