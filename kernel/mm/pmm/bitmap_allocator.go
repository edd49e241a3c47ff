package pmm

import (
	"gophercore/kernel"
	"gophercore/kernel/mm"
)

var (
	errOutOfMemory   = &kernel.Error{Module: "pmm", Message: "out of memory"}
	errInvalidFrame  = &kernel.Error{Module: "pmm", Message: "frame does not belong to the physical memory arena"}
	errDoubleFree    = &kernel.Error{Module: "pmm", Message: "frame is not reserved"}
	errEmptyArena    = &kernel.Error{Module: "pmm", Message: "physical memory arena must contain at least one frame"}
	errArenaTooLarge = &kernel.Error{Module: "pmm", Message: "physical memory arena exceeds the addressable frame range"}
)

// maxArenaFrames bounds the arena so that every frame number fits in the
// physical page number field of a page table entry.
const maxArenaFrames = 1 << 30

// BitmapAllocator implements a physical frame allocator that tracks frame
// reservations using a bitmap. Frames are backed by a contiguous arena; frame
// N occupies bytes [N*PageSize, (N+1)*PageSize) of the arena.
type BitmapAllocator struct {
	// arena holds the contents of all managed frames.
	arena []byte

	// totalPages tracks the total number of frames in the arena.
	totalPages uint32

	// reservedPages tracks the number of reserved frames.
	reservedPages uint32

	// freeBitmap tracks used/free frames. Bit i is set when frame i is
	// reserved.
	freeBitmap []uint64

	// nextHint is the bitmap block where the next scan starts.
	nextHint int
}

// init sets up the allocator state for an arena of frameCount frames.
func (alloc *BitmapAllocator) init(frameCount uint32) *kernel.Error {
	if frameCount == 0 {
		return errEmptyArena
	}
	if frameCount > maxArenaFrames {
		return errArenaTooLarge
	}

	arena, err := mapArenaFn(uintptr(frameCount) << mm.PageShift)
	if err != nil {
		return err
	}

	alloc.arena = arena
	alloc.totalPages = frameCount
	alloc.reservedPages = 0
	alloc.nextHint = 0

	// To represent the free page bitmap we need frameCount bits. Since our
	// slice uses uint64 for storing the bitmap we need to round up the
	// required bits so they are a multiple of 64 bits
	alloc.freeBitmap = make([]uint64, (frameCount+63)>>6)

	// Mark the padding bits of the last block as reserved so the scan in
	// AllocFrame never hands them out.
	if rem := frameCount & 63; rem != 0 {
		alloc.freeBitmap[len(alloc.freeBitmap)-1] = ^uint64(0) << rem
	}

	return nil
}

// release returns the arena to the host.
func (alloc *BitmapAllocator) release() {
	if alloc.arena != nil {
		unmapArenaFn(alloc.arena)
	}
	*alloc = BitmapAllocator{}
}

// AllocFrame reserves the next free frame, clears its contents and returns
// it. AllocFrame returns an error if no more memory can be allocated.
func (alloc *BitmapAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	if alloc.reservedPages == alloc.totalPages {
		return mm.InvalidFrame, errOutOfMemory
	}

	for scanned, block := 0, alloc.nextHint; scanned < len(alloc.freeBitmap); scanned, block = scanned+1, (block+1)%len(alloc.freeBitmap) {
		if alloc.freeBitmap[block] == ^uint64(0) {
			continue
		}

		for bit := uint32(0); bit < 64; bit++ {
			mask := uint64(1) << bit
			if alloc.freeBitmap[block]&mask != 0 {
				continue
			}

			alloc.freeBitmap[block] |= mask
			alloc.reservedPages++
			alloc.nextHint = block

			frame := mm.Frame(uint32(block)<<6 | bit)
			kernel.Memset(alloc.FrameBytes(frame), 0)
			return frame, nil
		}
	}

	return mm.InvalidFrame, errOutOfMemory
}

// FreeFrame releases a frame previously reserved by AllocFrame.
func (alloc *BitmapAllocator) FreeFrame(frame mm.Frame) *kernel.Error {
	if !frame.Valid() || uintptr(frame) >= uintptr(alloc.totalPages) {
		return errInvalidFrame
	}

	block, mask := frame>>6, uint64(1)<<(frame&63)
	if alloc.freeBitmap[block]&mask == 0 {
		return errDoubleFree
	}

	alloc.freeBitmap[block] &^= mask
	alloc.reservedPages--
	return nil
}

// FrameBytes returns the PageSize slice of the arena that backs frame. It
// panics if the frame lies outside the arena.
func (alloc *BitmapAllocator) FrameBytes(frame mm.Frame) []byte {
	offset := uintptr(frame) << mm.PageShift
	return alloc.arena[offset : offset+mm.PageSize : offset+mm.PageSize]
}

// FreeCount returns the number of frames that can still be allocated.
func (alloc *BitmapAllocator) FreeCount() uint32 {
	return alloc.totalPages - alloc.reservedPages
}

// TotalCount returns the number of frames managed by the allocator.
func (alloc *BitmapAllocator) TotalCount() uint32 {
	return alloc.totalPages
}
