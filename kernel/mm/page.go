package mm

import (
	"gophercore/kernel"
	"math"
)

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by page allocators when
	// they fail to reserve the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address pointed to by this Frame.
func (f Frame) Address() PhysAddr {
	return PhysAddr(f << PageShift)
}

// FrameFromAddress returns a Frame that corresponds to
// the given physical address. This function can handle
// both page-aligned and not aligned addresses. in the
// latter case, the input address will be rounded down
// to the frame that contains it.
func FrameFromAddress(physAddr PhysAddr) Frame {
	return Frame((uintptr(physAddr) & ^PageMask) >> PageShift)
}

var (
	// frameAllocator points to a frame allocator function registered using
	// SetFrameAllocator.
	frameAllocator FrameAllocatorFn

	// frameReleaser points to a function registered using SetFrameReleaser.
	frameReleaser FrameReleaserFn

	// frameAccessor points to a function registered using SetFrameAccessor.
	frameAccessor FrameAccessorFn
)

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (Frame, *kernel.Error)

// FrameReleaserFn is a function that returns a physical frame to its allocator.
type FrameReleaserFn func(Frame) *kernel.Error

// FrameAccessorFn is a function that returns the contents of a physical frame
// as a PageSize byte slice.
type FrameAccessorFn func(Frame) []byte

// SetFrameAllocator registers a frame allocator function that will be used by
// the vmm code when new physical frames need to be allocated.
func SetFrameAllocator(allocFn FrameAllocatorFn) { frameAllocator = allocFn }

// SetFrameReleaser registers the function used by FreeFrame.
func SetFrameReleaser(freeFn FrameReleaserFn) { frameReleaser = freeFn }

// SetFrameAccessor registers the function used by FrameBytes to reach the
// contents of a physical frame.
func SetFrameAccessor(accessFn FrameAccessorFn) { frameAccessor = accessFn }

// AllocFrame allocates a new physical frame using the currently active
// physical frame allocator.
func AllocFrame() (Frame, *kernel.Error) { return frameAllocator() }

// FreeFrame releases a frame previously obtained via AllocFrame.
func FreeFrame(frame Frame) *kernel.Error { return frameReleaser(frame) }

// FrameBytes returns the contents of the supplied physical frame. The
// returned slice always has a length of PageSize.
func FrameBytes(frame Frame) []byte { return frameAccessor(frame) }

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual memory address pointed to by this Page.
func (p Page) Address() VirtAddr {
	return VirtAddr(p << PageShift)
}
