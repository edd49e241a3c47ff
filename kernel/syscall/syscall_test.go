package syscall

import (
	"testing"
	"time"

	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/mm"
	"gophercore/kernel/mm/pmm"
	"gophercore/kernel/mm/vmm"
	"gophercore/kernel/task"
	"gophercore/kernel/timer"
)

// nopSwitcher lets the scheduler change the current task without running
// any task body.
type nopSwitcher struct {
	switches, exits int
}

func (s *nopSwitcher) Switch(_, _ *task.TaskControlBlock) { s.switches++ }
func (s *nopSwitcher) Exit(_, _ *task.TaskControlBlock)   { s.exits++ }

type testKernel struct {
	*Kernel
	clock    *timer.Fixed
	switcher *nopSwitcher
}

// newTestKernel registers one task per name, each with an empty address
// space and a heap at 0x100000, and dispatches the first one if any.
func newTestKernel(t *testing.T, names ...string) *testKernel {
	t.Helper()

	if err := pmm.Init(256); err != nil {
		t.Fatal(err)
	}

	tk := &testKernel{clock: timer.NewFixed(0), switcher: &nopSwitcher{}}
	tk.Kernel = &Kernel{Tasks: task.NewManager(tk.clock, tk.switcher)}

	for _, name := range names {
		as, err := vmm.NewAddressSpace()
		if err != nil {
			t.Fatal(err)
		}
		if err = as.SetHeapBottom(0x100000); err != nil {
			t.Fatal(err)
		}
		if err = tk.Tasks.Add(task.NewTaskControlBlock(name, as, nil)); err != nil {
			t.Fatal(err)
		}
	}

	if len(names) != 0 {
		if err := tk.Tasks.RunFirstTask(); err != nil {
			t.Fatal(err)
		}
	}
	return tk
}

func (tk *testKernel) call(id uintptr, args ...uintptr) int64 {
	a := Args{ID: id}
	for i, arg := range args {
		switch i {
		case 0:
			a.A0 = arg
		case 1:
			a.A1 = arg
		case 2:
			a.A2 = arg
		}
	}
	return Dispatch(tk.Kernel, a)
}

func TestMmapMunmapScenario(t *testing.T) {
	defer pmm.Shutdown()
	tk := newTestKernel(t, "a")

	specs := []struct {
		id     uintptr
		args   []uintptr
		expRet int64
	}{
		{SysMmap, []uintptr{0x1000, 4096, 0b011}, 0},
		{SysMmap, []uintptr{0x1000, 4096, 0b001}, -1},
		{SysMunmap, []uintptr{0x1000, 4096}, 0},
		{SysMmap, []uintptr{0x1000, 4096, 0b001}, 0},
		// misaligned start
		{SysMmap, []uintptr{0x2001, 4096, 0b011}, -1},
		{SysMunmap, []uintptr{0x1001, 4096}, -1},
		// bad ports
		{SysMmap, []uintptr{0x2000, 4096, 0b1001}, -1},
		{SysMmap, []uintptr{0x2000, 4096, 0}, -1},
		// gap in the range
		{SysMunmap, []uintptr{0x1000, 2 * 4096}, -1},
		{SysMunmap, []uintptr{0x1000, 4096}, 0},
		// zero length
		{SysMmap, []uintptr{0x3000, 0, 0b001}, 0},
	}

	for specIndex, spec := range specs {
		if got := tk.call(spec.id, spec.args...); got != spec.expRet {
			t.Errorf("[spec %d] expected syscall %d%v to return %d; got %d", specIndex, spec.id, spec.args, spec.expRet, got)
		}
	}

	if regions := tk.Tasks.Current().AddrSpace.Regions(); len(regions) != 0 {
		t.Fatalf("expected no regions at the end of the scenario; got %v", regions)
	}
}

func TestGetTimeCrossPage(t *testing.T) {
	defer pmm.Shutdown()
	tk := newTestKernel(t, "a")

	tk.clock.Advance(3*time.Second + 42*time.Microsecond)

	if got := tk.call(SysMmap, 0x10000, 2*mm.PageSize, 0b011); got != 0 {
		t.Fatalf("mmap failed: %d", got)
	}

	// TimeVal straddles the page boundary 8+8
	ptr := uintptr(0x11000 - 8)
	if got := tk.call(SysGetTime, ptr, 0); got != 0 {
		t.Fatalf("expected get_time to return 0; got %d", got)
	}

	var tv task.TimeVal
	if err := tk.Tasks.Current().AddrSpace.CopyIn(mm.VirtAddr(ptr), &tv); err != nil {
		t.Fatal(err)
	}
	if tv.Sec != 3 || tv.Usec != 42 {
		t.Fatalf("expected 3s 42us; got %ds %dus", tv.Sec, tv.Usec)
	}

	specs := []uintptr{
		0x20000,          // unmapped
		0x12000 - 8,      // second page unmapped
		uintptr(1) << 40, // outside the user address space
	}
	for specIndex, ptr := range specs {
		if got := tk.call(SysGetTime, ptr, 0); got != -1 {
			t.Errorf("[spec %d] expected get_time to fail; got %d", specIndex, got)
		}
	}
}

func TestTaskInfo(t *testing.T) {
	defer pmm.Shutdown()

	tk := newTestKernel(t)
	tk.clock.Advance(100 * time.Millisecond)

	as, err := vmm.NewAddressSpace()
	if err != nil {
		t.Fatal(err)
	}
	if err = tk.Tasks.Add(task.NewTaskControlBlock("late", as, nil)); err != nil {
		t.Fatal(err)
	}
	if err = tk.Tasks.RunFirstTask(); err != nil {
		t.Fatal(err)
	}

	tk.clock.Advance(250 * time.Millisecond)

	ptr := uintptr(0x10000 + mm.PageSize - 100)
	if got := tk.call(SysMmap, 0x10000, 2*mm.PageSize, 0b011); got != 0 {
		t.Fatalf("mmap failed: %d", got)
	}
	tk.call(SysYield)
	tk.call(SysGetTime, ptr, 0)
	tk.call(SysGetTime, ptr, 0)
	tk.call(4242)

	if got := tk.call(SysTaskInfo, ptr); got != 0 {
		t.Fatalf("expected task_info to return 0; got %d", got)
	}

	var info task.TaskInfo
	if err := as.CopyIn(mm.VirtAddr(ptr), &info); err != nil {
		t.Fatal(err)
	}

	if info.Status != task.Running {
		t.Fatalf("expected status %s; got %s", task.Running, info.Status)
	}
	if info.Time != 250 {
		t.Fatalf("expected running time 250ms; got %d", info.Time)
	}

	expCounts := map[int]uint32{SysMmap: 1, SysYield: 1, SysGetTime: 2, SysTaskInfo: 1}
	for id, count := range info.SyscallTimes {
		if count != expCounts[id] {
			t.Errorf("expected syscall %d to be counted %d times; got %d", id, expCounts[id], count)
		}
	}

	if got := tk.call(SysTaskInfo, 0x40000); got != -1 {
		t.Fatalf("expected task_info with an unmapped pointer to fail; got %d", got)
	}
}

func TestSbrk(t *testing.T) {
	defer pmm.Shutdown()
	tk := newTestKernel(t, "a")

	specs := []struct {
		delta  int32
		expRet int64
	}{
		{0, 0x100000},
		{4096, 0x100000},
		{16, 0x101000},
		{-4112, 0x101010},
		{-1, -1},
	}

	for specIndex, spec := range specs {
		if got := tk.call(SysSbrk, uintptr(spec.delta)); got != spec.expRet {
			t.Errorf("[spec %d] expected sbrk(%d) to return %#x; got %#x", specIndex, spec.delta, spec.expRet, got)
		}
	}
}

func TestYield(t *testing.T) {
	defer pmm.Shutdown()
	tk := newTestKernel(t, "a", "b")

	if got := tk.call(SysYield); got != 0 {
		t.Fatalf("expected yield to return 0; got %d", got)
	}

	if cur := tk.Tasks.Current(); cur.Name != "b" {
		t.Fatalf("expected task b to be current; got %s", cur.Name)
	}

	// idle -> a, a -> b
	if tk.switcher.switches != 2 {
		t.Fatalf("expected 2 context switches; got %d", tk.switcher.switches)
	}
}

func TestExitReturningHaltsKernel(t *testing.T) {
	defer pmm.Shutdown()

	var halted *kernel.Error
	defer kfmt.SetHaltHook(kfmt.SetHaltHook(func(err *kernel.Error) { halted = err }))

	tk := newTestKernel(t, "a", "b")
	tk.call(SysExit, 7)

	if halted != errExitReturned {
		t.Fatalf("expected kernel halt with %v; got %v", errExitReturned, halted)
	}

	tasks := tk.Tasks.Tasks()
	if tasks[0].CurrentStatus() != task.Exited || tasks[0].ExitCode != 7 {
		t.Fatalf("expected task a to exit with code 7; got %s/%d", tasks[0].CurrentStatus(), tasks[0].ExitCode)
	}
	if tk.Tasks.Current() != tasks[1] {
		t.Fatal("expected task b to be scheduled after exit")
	}
}

func TestDispatchUnknownAndOutOfRange(t *testing.T) {
	defer pmm.Shutdown()
	tk := newTestKernel(t, "a")

	for _, id := range []uintptr{SysWrite, 0, task.MaxSyscallNum - 1, task.MaxSyscallNum, ^uintptr(0)} {
		if got := tk.call(id); got != -1 {
			t.Errorf("expected unknown syscall %d to return -1; got %d", id, got)
		}
	}

	counts := tk.Tasks.Current().SyscallCounts()
	for _, id := range []int{SysWrite, 0, task.MaxSyscallNum - 1} {
		if counts[id] != 1 {
			t.Errorf("expected syscall %d to be counted once; got %d", id, counts[id])
		}
	}

	total := uint32(0)
	for _, count := range counts {
		total += count
	}
	if total != 3 {
		t.Fatalf("expected out of range ids not to be counted; total count %d", total)
	}
}

func TestDispatchWithoutCurrentTask(t *testing.T) {
	var halted *kernel.Error
	defer kfmt.SetHaltHook(kfmt.SetHaltHook(func(err *kernel.Error) { halted = err }))

	k := &Kernel{Tasks: task.NewManager(timer.NewFixed(0), &nopSwitcher{})}
	if got := Dispatch(k, Args{ID: SysYield}); got != -1 {
		t.Fatalf("expected -1; got %d", got)
	}
	if halted != errNoCurrentTask {
		t.Fatalf("expected kernel halt with %v; got %v", errNoCurrentTask, halted)
	}
}
