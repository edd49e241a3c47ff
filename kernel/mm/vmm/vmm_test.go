package vmm

import (
	"testing"

	"gophercore/kernel/mm/pmm"
)

// initFrames sets up a physical arena of frameCount frames for a test and
// returns the function that releases it.
func initFrames(t *testing.T, frameCount uint32) func() {
	t.Helper()

	if err := pmm.Init(frameCount); err != nil {
		t.Fatal(err)
	}
	return pmm.Shutdown
}

func freeFrames() uint32 {
	return pmm.FrameAllocator.FreeCount()
}
