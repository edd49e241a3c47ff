package task

import (
	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/sync"
	"gophercore/kernel/timer"

	"github.com/hashicorp/go-hclog"
)

// noTask is the value of Manager.current while the idle context runs.
const noTask = -1

var (
	// ErrNoReadyTask is returned by RunFirstTask when no task is ready.
	ErrNoReadyTask = &kernel.Error{Module: "task", Message: "no ready task to run"}
)

// Manager owns the task table and schedules tasks cooperatively in
// round-robin order. It is the only code that changes task status.
type Manager struct {
	lock sync.Spinlock

	tasks   []*TaskControlBlock
	current int

	clock    timer.Clock
	switcher Switcher
	log      hclog.Logger
}

// NewManager returns an empty Manager that reads time from clock and
// switches contexts through switcher.
func NewManager(clock timer.Clock, switcher Switcher) *Manager {
	return &Manager{
		current:  noTask,
		clock:    clock,
		switcher: switcher,
		log:      kfmt.Logger().Named("task"),
	}
}

// Clock returns the clock used for task accounting.
func (m *Manager) Clock() timer.Clock {
	return m.clock
}

// Add appends tcb to the task table and marks it Ready.
func (m *Manager) Add(tcb *TaskControlBlock) *kernel.Error {
	m.lock.Acquire()
	defer m.lock.Release()

	if err := tcb.Transition(Ready); err != nil {
		return err
	}

	tcb.ID = len(m.tasks)
	m.tasks = append(m.tasks, tcb)
	m.log.Debug("task added", "id", tcb.ID, "name", tcb.Name)
	return nil
}

// Tasks returns the task table.
func (m *Manager) Tasks() []*TaskControlBlock {
	m.lock.Acquire()
	defer m.lock.Release()

	return append([]*TaskControlBlock(nil), m.tasks...)
}

// Current returns the running task or nil while the idle context runs.
func (m *Manager) Current() *TaskControlBlock {
	m.lock.Acquire()
	defer m.lock.Release()

	if m.current == noTask {
		return nil
	}
	return m.tasks[m.current]
}

// RunFirstTask dispatches the first ready task from the idle context and
// returns once every task has exited.
func (m *Manager) RunFirstTask() *kernel.Error {
	m.lock.Acquire()
	next := m.findNext()
	if next == nil {
		m.lock.Release()
		return ErrNoReadyTask
	}
	m.dispatch(next)
	m.lock.Release()

	m.switcher.Switch(nil, next)
	m.log.Debug("all tasks exited")
	return nil
}

// SuspendCurrentAndRunNext moves the running task back to Ready and
// dispatches the next ready task. It returns when the suspended task is
// scheduled again. If no other task is ready the current task keeps
// running.
func (m *Manager) SuspendCurrentAndRunNext() {
	m.lock.Acquire()
	cur := m.tasks[m.current]
	m.mustTransition(cur, Ready)

	next := m.findNext()
	m.dispatch(next)
	m.lock.Release()

	if next != cur {
		m.log.Debug("switch", "from", cur.Name, "to", next.Name)
		m.switcher.Switch(cur, next)
	}
}

// ExitCurrentAndRunNext marks the running task Exited, releases its address
// space and dispatches the next ready task. With a context switcher that
// discards the exited context this call does not return.
func (m *Manager) ExitCurrentAndRunNext(exitCode int32) {
	m.lock.Acquire()
	cur := m.tasks[m.current]
	m.mustTransition(cur, Exited)
	cur.ExitCode = exitCode

	next := m.findNext()
	if next != nil {
		m.dispatch(next)
	} else {
		m.current = noTask
	}
	m.lock.Release()

	m.log.Debug("task exited", "id", cur.ID, "name", cur.Name, "code", exitCode)
	if cur.AddrSpace != nil {
		cur.AddrSpace.Teardown()
	}

	m.switcher.Exit(cur, next)
}

// findNext returns the first Ready task after the current one in round-robin
// order, considering the current task last. The caller must hold the lock.
func (m *Manager) findNext() *TaskControlBlock {
	count := len(m.tasks)
	if count == 0 {
		return nil
	}

	for i := 1; i <= count; i++ {
		index := (m.current + i) % count

		if m.tasks[index].CurrentStatus() == Ready {
			return m.tasks[index]
		}
	}
	return nil
}

// dispatch makes tcb the running task. The caller must hold the lock.
func (m *Manager) dispatch(tcb *TaskControlBlock) {
	m.mustTransition(tcb, Running)
	tcb.MarkStarted(m.clock.TimeMS())
	m.current = tcb.ID
}

func (m *Manager) mustTransition(tcb *TaskControlBlock, next Status) {
	if err := tcb.Transition(next); err != nil {
		m.log.Error("bad transition", "task", tcb.Name, "from", tcb.CurrentStatus().String(), "to", next.String())
		kfmt.Panic(err)
	}
}
