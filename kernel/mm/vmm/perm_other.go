//go:build !unix

package vmm

const (
	portRead  = 0x1
	portWrite = 0x2
	portExec  = 0x4
)
