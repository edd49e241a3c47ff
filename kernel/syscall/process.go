package syscall

import (
	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/mm"
	"gophercore/kernel/task"

	"github.com/hashicorp/go-hclog"
)

var errExitReturned = &kernel.Error{Module: "syscall", Message: "control returned to an exited task"}

// exit terminates the running task and schedules the next one. Control never
// comes back to the exited task; if it does the scheduler state is corrupt
// and the kernel is halted.
func exit(k *Kernel, l hclog.Logger, code int32) {
	l.Trace("sys_exit", "code", code)
	k.Tasks.ExitCurrentAndRunNext(code)
	kfmt.Panic(errExitReturned)
}

// yield hands the execution unit to the next ready task.
func yield(k *Kernel, l hclog.Logger) int64 {
	l.Trace("sys_yield")
	k.Tasks.SuspendCurrentAndRunNext()
	return 0
}

// getTime writes a TimeVal with the time since boot to ts. The tz argument
// is ignored.
func getTime(k *Kernel, l hclog.Logger, cur *task.TaskControlBlock, ts, _ uintptr) int64 {
	l.Trace("sys_get_time", "ts", ts)

	tv := task.TimeValFromUS(k.Tasks.Clock().TimeUS())
	if err := cur.AddrSpace.CopyOut(mm.VirtAddr(ts), &tv); err != nil {
		l.Warn("sys_get_time: bad destination", "ts", ts, "err", err.String())
		return -1
	}
	return 0
}

// taskInfo writes the status, syscall histogram and running time of the
// calling task to ti.
func taskInfo(k *Kernel, l hclog.Logger, cur *task.TaskControlBlock, ti uintptr) int64 {
	l.Trace("sys_task_info", "ti", ti)

	info := task.TaskInfo{
		Status:       cur.CurrentStatus(),
		SyscallTimes: cur.SyscallCounts(),
		Time:         cur.ElapsedMS(k.Tasks.Clock().TimeMS()),
	}
	if err := cur.AddrSpace.CopyOut(mm.VirtAddr(ti), &info); err != nil {
		l.Warn("sys_task_info: bad destination", "ti", ti, "err", err.String())
		return -1
	}
	return 0
}
