package task

import (
	"reflect"
	"testing"
	"time"

	"gophercore/kernel"
	"gophercore/kernel/kfmt"
	"gophercore/kernel/timer"
)

type switchCall struct {
	exit     bool
	from, to string
}

// recordingSwitcher records context switches without running any task.
type recordingSwitcher struct {
	calls []switchCall
}

func nameOf(tcb *TaskControlBlock) string {
	if tcb == nil {
		return "idle"
	}
	return tcb.Name
}

func (s *recordingSwitcher) Switch(from, to *TaskControlBlock) {
	s.calls = append(s.calls, switchCall{false, nameOf(from), nameOf(to)})
}

func (s *recordingSwitcher) Exit(from, to *TaskControlBlock) {
	s.calls = append(s.calls, switchCall{true, nameOf(from), nameOf(to)})
}

func newTestManager(names ...string) (*Manager, *recordingSwitcher, *timer.Fixed) {
	var (
		clock    = timer.NewFixed(0)
		switcher = &recordingSwitcher{}
		m        = NewManager(clock, switcher)
	)

	for _, name := range names {
		if err := m.Add(NewTaskControlBlock(name, nil, nil)); err != nil {
			panic(err)
		}
	}
	return m, switcher, clock
}

func TestManagerAdd(t *testing.T) {
	m, _, _ := newTestManager("a", "b")

	tasks := m.Tasks()
	for i, tcb := range tasks {
		if tcb.ID != i || tcb.CurrentStatus() != Ready {
			t.Errorf("expected task %d to be ready with ID %d; got ID %d status %s", i, i, tcb.ID, tcb.CurrentStatus())
		}
	}

	if err := m.Add(tasks[0]); err != ErrInvalidTransition {
		t.Fatalf("expected re-adding a task to fail with %v; got %v", ErrInvalidTransition, err)
	}

	if m.Current() != nil {
		t.Fatal("expected no current task before RunFirstTask")
	}
}

func TestManagerRoundRobin(t *testing.T) {
	m, switcher, clock := newTestManager("a", "b", "c")

	clock.Advance(10 * time.Millisecond)
	if err := m.RunFirstTask(); err != nil {
		t.Fatal(err)
	}

	a := m.Current()
	if a == nil || a.Name != "a" || a.CurrentStatus() != Running {
		t.Fatalf("expected task a to be running; got %v", a)
	}

	clock.Advance(5 * time.Millisecond)
	m.SuspendCurrentAndRunNext() // a -> b
	m.SuspendCurrentAndRunNext() // b -> c
	m.SuspendCurrentAndRunNext() // c -> a

	if got := m.Current().Name; got != "a" {
		t.Fatalf("expected task a to run again; got %s", got)
	}

	clock.Advance(5 * time.Millisecond)
	m.ExitCurrentAndRunNext(3) // a -> b
	m.ExitCurrentAndRunNext(4) // b -> c
	m.SuspendCurrentAndRunNext()
	m.ExitCurrentAndRunNext(5) // c -> idle

	exp := []switchCall{
		{false, "idle", "a"},
		{false, "a", "b"},
		{false, "b", "c"},
		{false, "c", "a"},
		{true, "a", "b"},
		{true, "b", "c"},
		{true, "c", "idle"},
	}
	if !reflect.DeepEqual(switcher.calls, exp) {
		t.Fatalf("expected switches %v; got %v", exp, switcher.calls)
	}

	if m.Current() != nil {
		t.Fatal("expected the idle context to be current after the last exit")
	}

	tasks := m.Tasks()
	for i, expStart := range []uint64{10, 15, 15} {
		if tasks[i].CurrentStatus() != Exited {
			t.Errorf("expected task %s to have exited", tasks[i].Name)
		}
		if got := tasks[i].StartTime(); got != expStart {
			t.Errorf("expected task %s start time %d; got %d", tasks[i].Name, expStart, got)
		}
		if exp := int32(3 + i); tasks[i].ExitCode != exp {
			t.Errorf("expected task %s exit code %d; got %d", tasks[i].Name, exp, tasks[i].ExitCode)
		}
	}
}

func TestManagerRunFirstTaskWithoutTasks(t *testing.T) {
	m, switcher, _ := newTestManager()

	if err := m.RunFirstTask(); err != ErrNoReadyTask {
		t.Fatalf("expected error %v; got %v", ErrNoReadyTask, err)
	}
	if len(switcher.calls) != 0 {
		t.Fatal("expected no context switch")
	}
}

func TestManagerInvalidTransitionPanics(t *testing.T) {
	var halted *kernel.Error
	defer kfmt.SetHaltHook(kfmt.SetHaltHook(func(err *kernel.Error) { halted = err }))

	m, _, _ := newTestManager("a")
	if err := m.RunFirstTask(); err != nil {
		t.Fatal(err)
	}

	m.ExitCurrentAndRunNext(0)

	// Force the table into an inconsistent state
	m.current = 0
	m.ExitCurrentAndRunNext(0)

	if halted != ErrInvalidTransition {
		t.Fatalf("expected kernel halt with %v; got %v", ErrInvalidTransition, halted)
	}
}

func TestManagerWithGoroutineSwitcher(t *testing.T) {
	var (
		order []string
		m     = NewManager(timer.NewFixed(0), NewGoroutineSwitcher())
	)

	body := func(name string, code int32) func() {
		return func() {
			for round := 0; round < 2; round++ {
				order = append(order, name)
				m.SuspendCurrentAndRunNext()
			}
			m.ExitCurrentAndRunNext(code)
		}
	}

	for i, name := range []string{"a", "b", "c"} {
		if err := m.Add(NewTaskControlBlock(name, nil, body(name, int32(i)))); err != nil {
			t.Fatal(err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.RunFirstTask(); err != nil {
			t.Error(err)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for tasks to exit")
	}

	if exp := []string{"a", "b", "c", "a", "b", "c"}; !reflect.DeepEqual(order, exp) {
		t.Fatalf("expected execution order %v; got %v", exp, order)
	}

	for i, tcb := range m.Tasks() {
		if tcb.CurrentStatus() != Exited || tcb.ExitCode != int32(i) {
			t.Errorf("expected task %s to exit with %d; got %s/%d", tcb.Name, i, tcb.CurrentStatus(), tcb.ExitCode)
		}
	}
}

func TestGoroutineSwitcherSingleTaskYield(t *testing.T) {
	var (
		yields int
		m      = NewManager(timer.NewFixed(0), NewGoroutineSwitcher())
	)

	err := m.Add(NewTaskControlBlock("solo", nil, func() {
		for ; yields < 3; yields++ {
			m.SuspendCurrentAndRunNext()
		}
		m.ExitCurrentAndRunNext(0)
	}))
	if err != nil {
		t.Fatal(err)
	}

	if err = m.RunFirstTask(); err != nil {
		t.Fatal(err)
	}

	if yields != 3 {
		t.Fatalf("expected 3 yields; got %d", yields)
	}
}
