package task

import (
	"runtime"

	"gophercore/kernel"
	"gophercore/kernel/kfmt"
)

// Switcher transfers the execution unit between task contexts. A nil task
// denotes the idle context that drives the scheduler.
type Switcher interface {
	// Switch saves the context of from, resumes to and returns once from
	// is resumed again.
	Switch(from, to *TaskControlBlock)

	// Exit discards the context of from and resumes to. It does not
	// return.
	Exit(from, to *TaskControlBlock)
}

var errEntryReturned = &kernel.Error{Module: "task", Message: "task entry returned without exiting"}

// goroutineContext is the saved context of a task run by GoroutineSwitcher.
type goroutineContext struct {
	wake    chan struct{}
	started bool
}

// GoroutineSwitcher runs each task body on its own goroutine. A single baton
// is passed between the goroutines so that exactly one of them runs at any
// time.
type GoroutineSwitcher struct {
	idle chan struct{}
}

// NewGoroutineSwitcher returns a switcher whose idle context is the
// goroutine that calls Switch with a nil from task.
func NewGoroutineSwitcher() *GoroutineSwitcher {
	return &GoroutineSwitcher{idle: make(chan struct{})}
}

// Switch implements Switcher.
func (s *GoroutineSwitcher) Switch(from, to *TaskControlBlock) {
	wait := s.waitChan(from)
	s.resume(to)
	<-wait
}

// Exit implements Switcher. The goroutine of from is terminated.
func (s *GoroutineSwitcher) Exit(from, to *TaskControlBlock) {
	s.resume(to)
	runtime.Goexit()
}

func (s *GoroutineSwitcher) waitChan(tcb *TaskControlBlock) chan struct{} {
	if tcb == nil {
		return s.idle
	}
	return contextOf(tcb).wake
}

// resume hands the baton to tcb, starting its goroutine on first use.
func (s *GoroutineSwitcher) resume(tcb *TaskControlBlock) {
	if tcb == nil {
		s.idle <- struct{}{}
		return
	}

	ctx := contextOf(tcb)
	if !ctx.started {
		ctx.started = true
		go func() {
			tcb.Entry()
			kfmt.Panic(errEntryReturned)
		}()
		return
	}
	ctx.wake <- struct{}{}
}

func contextOf(tcb *TaskControlBlock) *goroutineContext {
	ctx, ok := tcb.Context.(*goroutineContext)
	if !ok {
		ctx = &goroutineContext{wake: make(chan struct{})}
		tcb.Context = ctx
	}
	return ctx
}
