// Package kmain brings up the kernel: it configures logging and physical
// memory, loads the user apps into their own address spaces and runs them
// to completion.
package kmain

import (
	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/mm"
	"gophercore/kernel/mm/pmm"
	"gophercore/kernel/mm/vmm"
	"gophercore/kernel/syscall"
	"gophercore/kernel/task"
	"gophercore/kernel/timer"
	"gophercore/user"
)

const (
	// userStackTop is the address right above every user stack.
	userStackTop = mm.VirtAddr(0x8000_0000)

	// userHeapBottom is the initial program break of every task.
	userHeapBottom = mm.VirtAddr(0x4000_0000)
)

var (
	errUnknownApp = &kernel.Error{Module: "kmain", Message: "unknown app requested on the command line"}
	errNoApps     = &kernel.Error{Module: "kmain", Message: "no apps to run"}
)

// Result is the outcome of a task run by Kmain.
type Result struct {
	Name     string
	ExitCode int32
}

// Kmain boots the kernel with cfg, runs the apps selected by cfg out of the
// supplied catalog and returns their exit codes in load order.
func Kmain(cfg Config, catalog []user.App) ([]Result, *kernel.Error) {
	log := kfmt.Logger().Named("kmain")

	if err := applyLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	selected, err := selectApps(cfg.Apps, catalog)
	if err != nil {
		return nil, err
	}

	if err = pmm.Init(cfg.Frames); err != nil {
		return nil, err
	}
	defer pmm.Shutdown()

	var (
		mgr = task.NewManager(timer.NewMonotonic(), task.NewGoroutineSwitcher())
		k   = &syscall.Kernel{Tasks: mgr}
	)

	for _, app := range selected {
		if err = loadApp(k, app, cfg.UserStackPages); err != nil {
			log.Error("failed to load app", "app", app.Name, "err", err.String())
			return nil, err
		}
		log.Info("loaded app", "app", app.Name)
	}

	log.Info("starting tasks", "count", len(selected))
	if err = mgr.RunFirstTask(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(selected))
	for _, tcb := range mgr.Tasks() {
		log.Info("task finished", "app", tcb.Name, "code", tcb.ExitCode)
		results = append(results, Result{Name: tcb.Name, ExitCode: tcb.ExitCode})
	}
	return results, nil
}

// selectApps returns the apps named in names or the whole catalog if names
// is empty.
func selectApps(names []string, catalog []user.App) ([]user.App, *kernel.Error) {
	if len(names) == 0 {
		if len(catalog) == 0 {
			return nil, errNoApps
		}
		return catalog, nil
	}

	byName := make(map[string]user.App, len(catalog))
	for _, app := range catalog {
		byName[app.Name] = app
	}

	selected := make([]user.App, 0, len(names))
	for _, name := range names {
		app, ok := byName[name]
		if !ok {
			kfmt.Logger().Named("kmain").Error("unknown app", "app", name)
			return nil, errUnknownApp
		}
		selected = append(selected, app)
	}
	return selected, nil
}

// loadApp builds the address space of app with a user stack and an empty
// heap and registers its task.
func loadApp(k *syscall.Kernel, app user.App, stackPages int) *kernel.Error {
	as, err := vmm.NewAddressSpace()
	if err != nil {
		return err
	}

	stack := vmm.Region{
		Start: userStackTop.Page() - mm.Page(stackPages),
		End:   userStackTop.Page(),
		Perm:  vmm.PermRead | vmm.PermWrite | vmm.PermUser,
		Kind:  vmm.RegionStack,
	}
	if err = as.InsertRegion(stack); err != nil {
		as.Teardown()
		return err
	}

	if err = as.SetHeapBottom(userHeapBottom); err != nil {
		as.Teardown()
		return err
	}

	env := user.NewEnv(app.Name, k, as, uintptr(stack.Start.Address()))
	return k.Tasks.Add(task.NewTaskControlBlock(app.Name, as, app.Entry(env)))
}
