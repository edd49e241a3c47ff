// Package kfmt provides the kernel logger. Log output is buffered into a ring
// buffer until an output sink is registered via SetOutputSink.
package kfmt

import (
	"io"

	"gophercore/kernel/sync"

	"github.com/hashicorp/go-hclog"
)

var (
	// earlyPrintBuffer is a ring buffer that stores log output before an
	// output sink is available.
	earlyPrintBuffer ringBuffer

	// outputSink is an io.Writer where the logger will send its output. If
	// set to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer

	// sinkLock serializes writes with sink swaps.
	sinkLock sync.Spinlock

	logger = hclog.New(&hclog.LoggerOptions{
		Name:       "kernel",
		Level:      hclog.Info,
		Output:     sinkWriter{},
		TimeFormat: "15:04:05.000000",
	})
)

// sinkWriter forwards writes to the active output sink.
type sinkWriter struct{}

func (sinkWriter) Write(p []byte) (int, error) {
	sinkLock.Acquire()
	defer sinkLock.Release()

	if outputSink == nil {
		return earlyPrintBuffer.Write(p)
	}
	return outputSink.Write(p)
}

// SetOutputSink sets the default target for log output to w and copies any
// data accumulated in the earlyPrintBuffer to it. If the buffer wrapped
// before the sink was registered, a warning with the number of lost bytes
// follows the flushed output. Passing a nil writer re-enables buffering.
func SetOutputSink(w io.Writer) {
	var dropped int

	sinkLock.Acquire()
	outputSink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyPrintBuffer)
		dropped, earlyPrintBuffer.overwritten = earlyPrintBuffer.overwritten, 0
	}
	sinkLock.Release()

	if dropped > 0 {
		logger.Warn("early log output truncated", "dropped_bytes", dropped)
	}
}

// Logger returns the root kernel logger. Subsystems derive their own logger
// via Logger().Named(subsystem).
func Logger() hclog.Logger {
	return logger
}

// SetLevel updates the level of the root logger and all loggers derived from
// it. Unknown level names are ignored and false is returned.
func SetLevel(level string) bool {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return false
	}

	logger.SetLevel(lvl)
	return true
}
