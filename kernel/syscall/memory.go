package syscall

import (
	"gophercore/kernel/mm"
	"gophercore/kernel/task"

	"github.com/hashicorp/go-hclog"
)

// mmap maps length bytes at start with the permissions in port.
func mmap(l hclog.Logger, cur *task.TaskControlBlock, start, length, port uintptr) int64 {
	l.Trace("sys_mmap", "start", start, "len", length, "port", port)

	if err := cur.AddrSpace.Mmap(mm.VirtAddr(start), length, port); err != nil {
		l.Warn("sys_mmap rejected", "start", start, "len", length, "port", port, "err", err.String())
		return -1
	}
	return 0
}

// munmap unmaps length bytes at start.
func munmap(l hclog.Logger, cur *task.TaskControlBlock, start, length uintptr) int64 {
	l.Trace("sys_munmap", "start", start, "len", length)

	if err := cur.AddrSpace.Munmap(mm.VirtAddr(start), length); err != nil {
		l.Warn("sys_munmap rejected", "start", start, "len", length, "err", err.String())
		return -1
	}
	return 0
}

// sbrk moves the program break by delta bytes and returns the old break.
func sbrk(l hclog.Logger, cur *task.TaskControlBlock, delta int32) int64 {
	l.Trace("sys_sbrk", "delta", delta)

	old, err := cur.AddrSpace.ChangeBrk(int64(delta))
	if err != nil {
		l.Warn("sys_sbrk rejected", "delta", delta, "err", err.String())
		return -1
	}
	return int64(old)
}
