package vmm

import "gophercore/kernel"

// MapPermission is the permission set of a memory region. Its bits line up
// with the matching page table entry flags.
type MapPermission uint8

const (
	// PermRead allows loads from the region.
	PermRead = MapPermission(FlagRead)

	// PermWrite allows stores to the region.
	PermWrite = MapPermission(FlagWrite)

	// PermExecute allows instruction fetches from the region.
	PermExecute = MapPermission(FlagExecute)

	// PermUser makes the region accessible from user mode.
	PermUser = MapPermission(FlagUser)
)

// portMask selects the permission bits of an mmap port argument.
const portMask = uintptr(portRead | portWrite | portExec)

var (
	errInvalidPort = &kernel.Error{Module: "vmm", Message: "port has bits set outside the read/write/execute mask"}
	errNoAccess    = &kernel.Error{Module: "vmm", Message: "port does not grant any access"}
)

// ValidPort checks that port only uses the read/write/execute bits and that
// it grants at least one of them.
func ValidPort(port uintptr) *kernel.Error {
	switch {
	case port&^portMask != 0:
		return errInvalidPort
	case port&portMask == 0:
		return errNoAccess
	}
	return nil
}

// PermissionFromPort converts a validated port into the permission set of a
// user region. Port bit i becomes permission bit i+1 and PermUser is always
// added.
func PermissionFromPort(port uintptr) MapPermission {
	return MapPermission((port&portMask)<<1) | PermUser
}

// flags returns the page table entry flags for pages of a region with this
// permission set.
func (p MapPermission) flags() PageTableEntryFlag {
	return PageTableEntryFlag(p)
}

// String returns the permission set in "rwxu" notation with dashes for
// missing permissions.
func (p MapPermission) String() string {
	out := []byte("----")
	for i, spec := range []struct {
		perm MapPermission
		c    byte
	}{
		{PermRead, 'r'},
		{PermWrite, 'w'},
		{PermExecute, 'x'},
		{PermUser, 'u'},
	} {
		if p&spec.perm != 0 {
			out[i] = spec.c
		}
	}
	return string(out)
}
