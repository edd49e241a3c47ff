package kfmt

import "gophercore/kernel"

var (
	// haltFn is invoked after an unrecoverable error has been logged. It is
	// mocked by tests; the default implementation aborts the kernel.
	haltFn = func(err *kernel.Error) { panic(err) }

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic logs the supplied error (if not nil) and halts the kernel. Calls to
// Panic never return.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		err = &kernel.Error{Module: errRuntimePanic.Module, Message: t}
	case error:
		err = &kernel.Error{Module: errRuntimePanic.Module, Message: t.Error()}
	default:
		err = errRuntimePanic
	}

	logger.Error("unrecoverable error", "module", err.Module, "reason", err.Message)
	logger.Error("*** kernel panic: system halted ***")

	haltFn(err)
}

// SetHaltHook replaces the function invoked by Panic after logging and
// returns the previous one.
func SetHaltHook(fn func(*kernel.Error)) func(*kernel.Error) {
	prev := haltFn
	haltFn = fn
	return prev
}
