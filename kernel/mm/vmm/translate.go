package vmm

import (
	"gophercore/kernel"
	"gophercore/kernel/mm"
)

// AccessType describes the kind of access a translation is performed for.
type AccessType uint8

const (
	// AccessRead requests read access to the translated range.
	AccessRead AccessType = 1 << iota

	// AccessWrite requests write access to the translated range.
	AccessWrite

	// AccessExecute requests instruction-fetch access to the translated range.
	AccessExecute
)

// requiredFlags returns the page flags that a user page must carry for this
// access type to succeed.
func (at AccessType) requiredFlags() PageTableEntryFlag {
	flags := FlagValid | FlagUser
	if at&AccessRead != 0 {
		flags |= FlagRead
	}
	if at&AccessWrite != 0 {
		flags |= FlagWrite
	}
	if at&AccessExecute != 0 {
		flags |= FlagExecute
	}
	return flags
}

var (
	// ErrAccessDenied is returned when a user page lacks the permissions
	// required by the requested access.
	ErrAccessDenied = &kernel.Error{Module: "vmm", Message: "page permissions do not allow the requested access"}

	// ErrAddressRange is returned when a virtual range wraps around or
	// extends past MaxUserAddr.
	ErrAddressRange = &kernel.Error{Module: "vmm", Message: "virtual range exceeds the user address space"}
)

// TranslatedByteBuffer returns the physical byte ranges that back the length
// bytes starting at ptr in the address space identified by token. The ranges
// are ordered by ascending virtual offset; each one is contiguous in physical
// memory and covers at most one page, so a span that crosses page boundaries
// yields one range per page it touches.
//
// TranslatedByteBuffer fails with ErrInvalidMapping if any covered page is
// unmapped and with ErrAccessDenied if a covered page is not user-accessible
// or lacks the permissions required by access.
func TranslatedByteBuffer(token uint64, ptr mm.VirtAddr, length uintptr, access AccessType) ([][]byte, *kernel.Error) {
	if length == 0 {
		return nil, nil
	}

	end := ptr + mm.VirtAddr(length)
	if end < ptr || end > MaxUserAddr {
		return nil, ErrAddressRange
	}

	var (
		pt       = PageTableFromToken(token)
		required = access.requiredFlags()
		ranges   = make([][]byte, 0, mm.PageCount(uintptr(end-ptr.Floor())))
	)

	for start := ptr; start < end; {
		pte, err := pt.pteForPage(start.Page())
		if err != nil {
			return nil, err
		}

		if !pte.HasFlags(required) {
			return nil, ErrAccessDenied
		}

		pageEnd := start.Floor() + mm.VirtAddr(mm.PageSize)
		if pageEnd > end {
			pageEnd = end
		}

		offset := start.PageOffset()
		frameBytes := mm.FrameBytes(pte.Frame())
		ranges = append(ranges, frameBytes[offset:offset+uintptr(pageEnd-start)])

		start = pageEnd
	}

	return ranges, nil
}
