package vmm

import (
	"gophercore/kernel"
	"gophercore/kernel/mm"
)

// Marshaler is implemented by values with a fixed-size, fixed-layout byte
// representation that can be copied into a user address space.
type Marshaler interface {
	// SizeBytes returns the size of the serialized value in bytes.
	SizeBytes() int

	// MarshalBytes serializes the value into dst which is at least
	// SizeBytes() long. Fields are written in declaration order using
	// their declared widths.
	MarshalBytes(dst []byte)
}

// Unmarshaler is implemented by values that can be decoded from the byte
// layout produced by the matching Marshaler.
type Unmarshaler interface {
	SizeBytes() int
	UnmarshalBytes(src []byte)
}

// WriteBytes copies src across the destination ranges in order, moving to the
// next range exactly when the current one is exhausted. It returns the number
// of bytes written, which is less than len(src) only when the ranges are too
// short to hold it.
func WriteBytes(src []byte, dst [][]byte) int {
	written := 0
	for _, part := range dst {
		if written == len(src) {
			break
		}
		written += copy(part, src[written:])
	}
	return written
}

// ReadBytes fills dst from the source ranges in order and returns the number
// of bytes read.
func ReadBytes(dst []byte, src [][]byte) int {
	read := 0
	for _, part := range src {
		if read == len(dst) {
			break
		}
		read += copy(dst[read:], part)
	}
	return read
}

// CopyOutBytes writes src to ptr in the address space identified by token.
func CopyOutBytes(token uint64, ptr mm.VirtAddr, src []byte) *kernel.Error {
	ranges, err := translateFn(token, ptr, uintptr(len(src)), AccessWrite)
	if err != nil {
		return err
	}

	WriteBytes(src, ranges)
	return nil
}

// CopyInBytes fills dst with the bytes found at ptr in the address space
// identified by token.
func CopyInBytes(token uint64, ptr mm.VirtAddr, dst []byte) *kernel.Error {
	ranges, err := translateFn(token, ptr, uintptr(len(dst)), AccessRead)
	if err != nil {
		return err
	}

	ReadBytes(dst, ranges)
	return nil
}

// CopyOut serializes value and writes it to ptr in the address space
// identified by token. The translation always covers exactly
// value.SizeBytes() bytes.
func CopyOut(token uint64, ptr mm.VirtAddr, value Marshaler) *kernel.Error {
	buf := make([]byte, value.SizeBytes())
	value.MarshalBytes(buf)
	return CopyOutBytes(token, ptr, buf)
}

// CopyIn reads value.SizeBytes() bytes from ptr in the address space
// identified by token and decodes them into value.
func CopyIn(token uint64, ptr mm.VirtAddr, value Unmarshaler) *kernel.Error {
	buf := make([]byte, value.SizeBytes())
	if err := CopyInBytes(token, ptr, buf); err != nil {
		return err
	}

	value.UnmarshalBytes(buf)
	return nil
}
