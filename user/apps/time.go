package apps

import (
	"gophercore/kernel/mm"
	"gophercore/kernel/syscall"
	"gophercore/kernel/task"
	"gophercore/user"
)

func init() {
	register("get_time", getTime)
	register("task_info", taskInfo)
	register("cross_page_time", crossPageTime)
}

func getTime(env *user.Env) int32 {
	ptr := env.Scratch()

	if !expect(env, env.GetTime(ptr) == 0, "get_time returns 0") {
		return 1
	}
	first := env.LoadTimeVal(ptr)

	env.Yield()

	if !expect(env, env.GetTime(ptr) == 0, "get_time returns 0") {
		return 1
	}
	second := env.LoadTimeVal(ptr)

	firstUS := first.Sec*1_000_000 + first.Usec
	secondUS := second.Sec*1_000_000 + second.Usec
	if !expect(env, first.Usec < 1_000_000 && second.Usec < 1_000_000, "usec below one second") ||
		!expect(env, secondUS >= firstUS, "time is monotonic", "first", firstUS, "second", secondUS) {
		return 1
	}

	// A pointer outside the address space is rejected
	if !expect(env, env.GetTime(uintptr(1)<<40) == -1, "get_time rejects bad pointers") {
		return 1
	}
	return 0
}

func taskInfo(env *user.Env) int32 {
	ptr := env.Scratch()

	env.GetTime(ptr)
	env.Yield()
	if !expect(env, env.TaskInfo(ptr) == 0, "task_info returns 0") {
		return 1
	}

	info := env.LoadTaskInfo(ptr)
	counts := info.SyscallTimes
	ok := expect(env, info.Status == task.Running, "status is running", "status", info.Status.String()) &&
		expect(env, counts[syscall.SysGetTime] == 1, "get_time counted once") &&
		expect(env, counts[syscall.SysYield] == 1, "yield counted once") &&
		expect(env, counts[syscall.SysTaskInfo] == 1, "task_info counted once") &&
		expect(env, counts[syscall.SysExit] == 0, "exit not counted yet")
	if !ok {
		return 1
	}

	// The running time only grows
	env.Yield()
	env.TaskInfo(ptr)
	if !expect(env, env.LoadTaskInfo(ptr).Time >= info.Time, "running time grows") {
		return 1
	}
	return 0
}

func crossPageTime(env *user.Env) int32 {
	const base = mmapBase + 0x10_0000

	if !expect(env, env.Mmap(base, 2*mm.PageSize, 0b011) == 0, "mmap two pages") {
		return 1
	}

	// TimeVal split 8+8 across the page boundary
	tvPtr := uintptr(base + mm.PageSize - 8)
	env.StoreUint64(tvPtr, ^uint64(0))
	env.StoreUint64(tvPtr+8, ^uint64(0))
	if !expect(env, env.GetTime(tvPtr) == 0, "get_time across pages") {
		return 1
	}
	tv := env.LoadTimeVal(tvPtr)
	if !expect(env, tv.Usec < 1_000_000 && tv.Sec < 1<<32, "timeval written in full", "sec", tv.Sec, "usec", tv.Usec) {
		return 1
	}

	// TaskInfo straddling the same boundary
	infoPtr := uintptr(base + mm.PageSize - 100)
	if !expect(env, env.TaskInfo(infoPtr) == 0, "task_info across pages") {
		return 1
	}
	info := env.LoadTaskInfo(infoPtr)
	if !expect(env, info.Status == task.Running && info.SyscallTimes[syscall.SysGetTime] == 1, "task info written in full") {
		return 1
	}

	if !expect(env, env.Munmap(base, 2*mm.PageSize) == 0, "munmap two pages") {
		return 1
	}
	return 0
}
