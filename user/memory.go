package user

import (
	"encoding/binary"

	"gophercore/kernel"
	"gophercore/kernel/mm"
	"gophercore/kernel/task"
)

// fault kills the task the way a page fault in user mode would.
func (e *Env) fault(addr uintptr, err *kernel.Error) {
	e.log.Error("page fault in application, killing it", "addr", addr, "err", err.String())
	e.Exit(FaultExitCode)
}

// Load copies len(dst) bytes at addr into dst. An access to memory the task
// cannot read kills the task.
func (e *Env) Load(addr uintptr, dst []byte) {
	if err := e.as.Load(mm.VirtAddr(addr), dst); err != nil {
		e.fault(addr, err)
	}
}

// Store copies src to addr. An access to memory the task cannot write kills
// the task.
func (e *Env) Store(addr uintptr, src []byte) {
	if err := e.as.Store(mm.VirtAddr(addr), src); err != nil {
		e.fault(addr, err)
	}
}

// LoadUint64 reads a little-endian uint64 at addr.
func (e *Env) LoadUint64(addr uintptr) uint64 {
	var buf [8]byte
	e.Load(addr, buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// StoreUint64 writes v at addr in little-endian order.
func (e *Env) StoreUint64(addr uintptr, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	e.Store(addr, buf[:])
}

// LoadTimeVal decodes the TimeVal stored at addr.
func (e *Env) LoadTimeVal(addr uintptr) task.TimeVal {
	var tv task.TimeVal
	buf := make([]byte, tv.SizeBytes())
	e.Load(addr, buf)
	tv.UnmarshalBytes(buf)
	return tv
}

// LoadTaskInfo decodes the TaskInfo stored at addr.
func (e *Env) LoadTaskInfo(addr uintptr) *task.TaskInfo {
	info := new(task.TaskInfo)
	buf := make([]byte, info.SizeBytes())
	e.Load(addr, buf)
	info.UnmarshalBytes(buf)
	return info
}
