// Package pmm manages the physical frames handed out to page tables and
// user mappings.
package pmm

import (
	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/mm"
)

var (
	// FrameAllocator is the allocator registered with the mm package by
	// Init.
	FrameAllocator BitmapAllocator

	// the following functions are mocked by tests.
	mapArenaFn   = mapArena
	unmapArenaFn = unmapArena
)

// Init sets up the physical memory allocation sub-system with an arena of
// frameCount frames and registers it with the mm package. Calling Init again
// releases the previous arena.
func Init(frameCount uint32) *kernel.Error {
	Shutdown()

	if err := FrameAllocator.init(frameCount); err != nil {
		return err
	}

	mm.SetFrameAllocator(allocFrame)
	mm.SetFrameReleaser(freeFrame)
	mm.SetFrameAccessor(frameBytes)

	kfmt.Logger().Named("pmm").Debug("physical memory ready",
		"frames", frameCount,
		"bytes", uintptr(frameCount)<<mm.PageShift,
	)
	return nil
}

// Shutdown unregisters the allocator from the mm package and releases the
// arena. Frames obtained before Shutdown must not be accessed afterwards.
func Shutdown() {
	mm.SetFrameAllocator(nil)
	mm.SetFrameReleaser(nil)
	mm.SetFrameAccessor(nil)
	FrameAllocator.release()
}

func allocFrame() (mm.Frame, *kernel.Error) {
	return FrameAllocator.AllocFrame()
}

func freeFrame(frame mm.Frame) *kernel.Error {
	return FrameAllocator.FreeFrame(frame)
}

func frameBytes(frame mm.Frame) []byte {
	return FrameAllocator.FrameBytes(frame)
}
