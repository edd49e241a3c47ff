// Package task implements task control blocks and the cooperative scheduler
// that moves tasks through their lifecycle.
package task

import (
	"gophercore/kernel"
	"gophercore/kernel/mm/vmm"
)

// MaxSyscallNum is the number of syscall identifiers tracked by the per-task
// syscall histogram. Valid identifiers are [0, MaxSyscallNum).
const MaxSyscallNum = 500

var (
	// ErrInvalidTransition is returned when a status change does not follow
	// the task lifecycle.
	ErrInvalidTransition = &kernel.Error{Module: "task", Message: "invalid task status transition"}
)

// TaskControlBlock holds the per-task state tracked by the kernel.
type TaskControlBlock struct {
	// ID is the index of the task in the scheduler's task table.
	ID int

	// Name identifies the task in log output.
	Name string

	// Entry is the body of the task. It runs on the task's own context and
	// must finish by exiting the task.
	Entry func()

	// Context is the saved execution context. It is owned by the Switcher.
	Context interface{}

	// AddrSpace is the task's virtual address space.
	AddrSpace *vmm.AddressSpace

	// ExitCode is the value passed to exit.
	ExitCode int32

	status        Status
	syscallCounts [MaxSyscallNum]uint32
	startTime     uint64
	started       bool
}

// NewTaskControlBlock returns a TCB in the UnInit state.
func NewTaskControlBlock(name string, addrSpace *vmm.AddressSpace, entry func()) *TaskControlBlock {
	return &TaskControlBlock{
		Name:      name,
		Entry:     entry,
		AddrSpace: addrSpace,
		status:    UnInit,
	}
}

// RecordSyscall increments the invocation counter for syscall id. Ids
// outside [0, MaxSyscallNum) are rejected and false is returned.
func (t *TaskControlBlock) RecordSyscall(id uintptr) bool {
	if id >= MaxSyscallNum {
		return false
	}

	t.syscallCounts[id]++
	return true
}

// MarkStarted records nowMS as the start time the first time the task is
// dispatched. Later calls have no effect.
func (t *TaskControlBlock) MarkStarted(nowMS uint64) {
	if t.started {
		return
	}

	t.startTime, t.started = nowMS, true
}

// Started returns true once the task has been dispatched.
func (t *TaskControlBlock) Started() bool {
	return t.started
}

// StartTime returns the time in milliseconds at which the task was first
// dispatched.
func (t *TaskControlBlock) StartTime() uint64 {
	return t.startTime
}

// CurrentStatus returns the lifecycle status of the task.
func (t *TaskControlBlock) CurrentStatus() Status {
	return t.status
}

// ElapsedMS returns the milliseconds between the first dispatch of the task
// and nowMS. It returns 0 for tasks that have not been started.
func (t *TaskControlBlock) ElapsedMS(nowMS uint64) uint64 {
	if !t.started || nowMS < t.startTime {
		return 0
	}
	return nowMS - t.startTime
}

// SyscallCounts returns a copy of the syscall histogram.
func (t *TaskControlBlock) SyscallCounts() [MaxSyscallNum]uint32 {
	return t.syscallCounts
}

// Transition moves the task to the next status. Exited is terminal and the
// only way out of UnInit is Ready.
func (t *TaskControlBlock) Transition(next Status) *kernel.Error {
	if !t.status.canTransition(next) {
		return ErrInvalidTransition
	}

	t.status = next
	return nil
}
