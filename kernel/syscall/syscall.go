// Package syscall implements the system call entry points exposed to user
// tasks and the table that dispatches raw calls to them.
package syscall

import (
	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/task"

	"github.com/hashicorp/go-hclog"
)

// System call identifiers.
const (
	SysWrite    = 64
	SysExit     = 93
	SysYield    = 124
	SysGetTime  = 169
	SysSbrk     = 214
	SysMunmap   = 215
	SysMmap     = 222
	SysTaskInfo = 410
)

// Args carries the identifier and the raw argument words of a system call.
type Args struct {
	ID         uintptr
	A0, A1, A2 uintptr
}

// Kernel is the execution context threaded through every entry point.
type Kernel struct {
	Tasks *task.Manager
}

type handler func(k *Kernel, l hclog.Logger, cur *task.TaskControlBlock, args Args) int64

var (
	errNoCurrentTask = &kernel.Error{Module: "syscall", Message: "system call issued without a running task"}

	log = kfmt.Logger().Named("syscall")

	syscalls = [task.MaxSyscallNum]handler{
		SysExit: func(k *Kernel, l hclog.Logger, _ *task.TaskControlBlock, args Args) int64 {
			exit(k, l, int32(args.A0))
			return -1
		},
		SysYield: func(k *Kernel, l hclog.Logger, _ *task.TaskControlBlock, _ Args) int64 {
			return yield(k, l)
		},
		SysGetTime: func(k *Kernel, l hclog.Logger, cur *task.TaskControlBlock, args Args) int64 {
			return getTime(k, l, cur, args.A0, args.A1)
		},
		SysTaskInfo: func(k *Kernel, l hclog.Logger, cur *task.TaskControlBlock, args Args) int64 {
			return taskInfo(k, l, cur, args.A0)
		},
		SysMmap: func(_ *Kernel, l hclog.Logger, cur *task.TaskControlBlock, args Args) int64 {
			return mmap(l, cur, args.A0, args.A1, args.A2)
		},
		SysMunmap: func(_ *Kernel, l hclog.Logger, cur *task.TaskControlBlock, args Args) int64 {
			return munmap(l, cur, args.A0, args.A1)
		},
		SysSbrk: func(_ *Kernel, l hclog.Logger, cur *task.TaskControlBlock, args Args) int64 {
			return sbrk(l, cur, int32(args.A0))
		},
	}
)

// Dispatch records the call in the histogram of the running task and invokes
// the matching entry point. Unknown identifiers return -1.
func Dispatch(k *Kernel, args Args) int64 {
	cur := k.Tasks.Current()
	if cur == nil {
		kfmt.Panic(errNoCurrentTask)
		return -1
	}

	cur.RecordSyscall(args.ID)

	var fn handler
	if args.ID < uintptr(len(syscalls)) {
		fn = syscalls[args.ID]
	}

	if fn == nil {
		log.Warn("unsupported system call", "id", args.ID, "task", cur.Name)
		return -1
	}

	return fn(k, log.With("task", cur.Name), cur, args)
}
