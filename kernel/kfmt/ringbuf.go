package kfmt

import "io"

// earlyBufferSize defines the size of the ring buffer that captures log output
// before an output sink is registered. It is large enough to hold the boot
// banner and the first few hundred log lines. The size must always be a
// power of 2.
const earlyBufferSize = 16384

// ringBuffer captures the most recent earlyBufferSize bytes written to it.
// Once the buffer fills up, new writes overwrite the oldest data.
type ringBuffer struct {
	buffer         [earlyBufferSize]byte
	rIndex, wIndex int

	// overwritten counts the bytes that were discarded because the
	// reader fell too far behind.
	overwritten int
}

// Write writes len(p) bytes from p to the ringBuffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (earlyBufferSize - 1)
		if rb.rIndex == rb.wIndex {
			rb.rIndex = (rb.rIndex + 1) & (earlyBufferSize - 1)
			rb.overwritten++
		}
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p. It returns the number of bytes read (0
// <= n <= len(p)) and io.EOF once the buffer has been drained.
func (rb *ringBuffer) Read(p []byte) (n int, err error) {
	var end int
	switch {
	case rb.rIndex < rb.wIndex:
		end = rb.wIndex
	case rb.rIndex > rb.wIndex:
		end = len(rb.buffer)
	default: // rIndex == wIndex
		return 0, io.EOF
	}

	n = copy(p, rb.buffer[rb.rIndex:end])
	rb.rIndex = (rb.rIndex + n) & (earlyBufferSize - 1)
	return n, nil
}

// Len returns the number of unread bytes in the buffer.
func (rb *ringBuffer) Len() int {
	return (rb.wIndex - rb.rIndex) & (earlyBufferSize - 1)
}
