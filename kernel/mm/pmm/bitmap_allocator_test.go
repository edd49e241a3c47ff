package pmm

import (
	"testing"

	"gophercore/kernel"
	"gophercore/kernel/mm"
)

func TestBitmapAllocatorInit(t *testing.T) {
	defer func() {
		mapArenaFn = mapArena
		unmapArenaFn = unmapArena
	}()

	t.Run("empty arena", func(t *testing.T) {
		var alloc BitmapAllocator
		if err := alloc.init(0); err != errEmptyArena {
			t.Fatalf("expected error: %v; got %v", errEmptyArena, err)
		}
	})

	t.Run("arena too large", func(t *testing.T) {
		var alloc BitmapAllocator
		if err := alloc.init(maxArenaFrames + 1); err != errArenaTooLarge {
			t.Fatalf("expected error: %v; got %v", errArenaTooLarge, err)
		}
	})

	t.Run("map fails", func(t *testing.T) {
		expErr := &kernel.Error{Module: "test", Message: "mmap failed"}
		mapArenaFn = func(uintptr) ([]byte, *kernel.Error) { return nil, expErr }

		var alloc BitmapAllocator
		if err := alloc.init(4); err != expErr {
			t.Fatalf("expected error: %v; got %v", expErr, err)
		}
	})

	t.Run("padding bits reserved", func(t *testing.T) {
		mapArenaFn = func(size uintptr) ([]byte, *kernel.Error) { return make([]byte, size), nil }

		var alloc BitmapAllocator
		if err := alloc.init(70); err != nil {
			t.Fatal(err)
		}

		if exp, got := 2, len(alloc.freeBitmap); got != exp {
			t.Fatalf("expected bitmap to contain %d blocks; got %d", exp, got)
		}

		if exp, got := uint64(0xffffffffffffffc0), alloc.freeBitmap[1]; got != exp {
			t.Fatalf("expected last block to be %x; got %x", exp, got)
		}

		if exp, got := uint32(70), alloc.FreeCount(); got != exp {
			t.Fatalf("expected %d free frames; got %d", exp, got)
		}
	})
}

func TestBitmapAllocatorAllocFree(t *testing.T) {
	defer func() {
		mapArenaFn = mapArena
		unmapArenaFn = unmapArena
	}()

	var unmapped bool
	mapArenaFn = func(size uintptr) ([]byte, *kernel.Error) { return make([]byte, size), nil }
	unmapArenaFn = func([]byte) { unmapped = true }

	var alloc BitmapAllocator
	if err := alloc.init(3); err != nil {
		t.Fatal(err)
	}

	var frames []mm.Frame
	for i := 0; i < 3; i++ {
		frame, err := alloc.AllocFrame()
		if err != nil {
			t.Fatalf("[alloc %d] unexpected error: %v", i, err)
		}
		if exp := mm.Frame(i); frame != exp {
			t.Fatalf("[alloc %d] expected frame %d; got %d", i, exp, frame)
		}
		frames = append(frames, frame)
	}

	if _, err := alloc.AllocFrame(); err != errOutOfMemory {
		t.Fatalf("expected error: %v; got %v", errOutOfMemory, err)
	}

	// Dirty frame 1 and release it; it must be zeroed when handed out again
	page := alloc.FrameBytes(frames[1])
	for i := range page {
		page[i] = 0xAA
	}

	if err := alloc.FreeFrame(frames[1]); err != nil {
		t.Fatal(err)
	}

	if err := alloc.FreeFrame(frames[1]); err != errDoubleFree {
		t.Fatalf("expected error: %v; got %v", errDoubleFree, err)
	}

	if err := alloc.FreeFrame(mm.Frame(3)); err != errInvalidFrame {
		t.Fatalf("expected error: %v; got %v", errInvalidFrame, err)
	}

	if err := alloc.FreeFrame(mm.InvalidFrame); err != errInvalidFrame {
		t.Fatalf("expected error: %v; got %v", errInvalidFrame, err)
	}

	if exp, got := uint32(1), alloc.FreeCount(); got != exp {
		t.Fatalf("expected %d free frames; got %d", exp, got)
	}

	frame, err := alloc.AllocFrame()
	if err != nil {
		t.Fatal(err)
	}

	if frame != frames[1] {
		t.Fatalf("expected released frame %d to be reused; got %d", frames[1], frame)
	}

	for i, b := range alloc.FrameBytes(frame) {
		if b != 0 {
			t.Fatalf("expected reused frame to be zeroed; got 0x%x at offset %d", b, i)
		}
	}

	alloc.release()
	if !unmapped {
		t.Fatal("expected release to unmap the arena")
	}

	if alloc.TotalCount() != 0 {
		t.Fatal("expected release to reset the allocator state")
	}
}
