// Package user provides the system call library used by user tasks and
// helpers to access user memory through the task's page table.
package user

import (
	"gophercore/kernel/kfmt"
	"gophercore/kernel/mm/vmm"
	"gophercore/kernel/syscall"

	"github.com/hashicorp/go-hclog"
)

// FaultExitCode is the exit code of a task killed by a memory fault.
const FaultExitCode = -2

// Env is the view of the kernel available to a user task.
type Env struct {
	k       *syscall.Kernel
	as      *vmm.AddressSpace
	scratch uintptr
	log     hclog.Logger
}

// NewEnv returns the environment of a task running in as. scratch is the
// address of a user-writable area the task may use freely.
func NewEnv(name string, k *syscall.Kernel, as *vmm.AddressSpace, scratch uintptr) *Env {
	return &Env{
		k:       k,
		as:      as,
		scratch: scratch,
		log:     kfmt.Logger().Named("user").Named(name),
	}
}

// Log returns the logger of the task.
func (e *Env) Log() hclog.Logger { return e.log }

// Scratch returns the address of the task's scratch area.
func (e *Env) Scratch() uintptr { return e.scratch }

func (e *Env) call(id, a0, a1, a2 uintptr) int64 {
	return syscall.Dispatch(e.k, syscall.Args{ID: id, A0: a0, A1: a1, A2: a2})
}

// Exit terminates the task with code.
func (e *Env) Exit(code int32) {
	e.call(syscall.SysExit, uintptr(code), 0, 0)
}

// Yield gives up the processor.
func (e *Env) Yield() int64 { return e.call(syscall.SysYield, 0, 0, 0) }

// GetTime writes the current TimeVal to ts.
func (e *Env) GetTime(ts uintptr) int64 { return e.call(syscall.SysGetTime, ts, 0, 0) }

// TaskInfo writes the TaskInfo of the calling task to ti.
func (e *Env) TaskInfo(ti uintptr) int64 { return e.call(syscall.SysTaskInfo, ti, 0, 0) }

// Mmap maps length bytes at start with the permissions in port.
func (e *Env) Mmap(start, length, port uintptr) int64 {
	return e.call(syscall.SysMmap, start, length, port)
}

// Munmap unmaps length bytes at start.
func (e *Env) Munmap(start, length uintptr) int64 {
	return e.call(syscall.SysMunmap, start, length, 0)
}

// Sbrk moves the program break by delta bytes and returns the old break.
func (e *Env) Sbrk(delta int32) int64 {
	return e.call(syscall.SysSbrk, uintptr(delta), 0, 0)
}
