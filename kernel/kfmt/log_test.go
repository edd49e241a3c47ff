package kfmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerEarlyBuffer(t *testing.T) {
	defer func() {
		SetOutputSink(nil)
		SetLevel("info")
	}()

	SetOutputSink(nil)
	earlyPrintBuffer.rIndex, earlyPrintBuffer.wIndex = 0, 0

	earlyPrintBuffer.overwritten = 0

	Logger().Info("buffered before sink", "frames", 16)

	if outputSink != nil {
		t.Fatal("expected output sink to be nil")
	}

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if got := buf.String(); !strings.Contains(got, "buffered before sink") || !strings.Contains(got, "frames=16") {
		t.Fatalf("expected early output to be flushed to the sink; got %q", got)
	}
	if got := buf.String(); strings.Contains(got, "early log output truncated") {
		t.Fatalf("expected no truncation warning; got %q", got)
	}

	buf.Reset()
	Logger().Named("vmm").Warn("direct write")
	if got := buf.String(); !strings.Contains(got, "kernel.vmm: direct write") {
		t.Fatalf("expected named logger output to reach the sink; got %q", got)
	}
}

func TestLoggerEarlyBufferOverflow(t *testing.T) {
	defer SetOutputSink(nil)

	SetLevel("info")
	SetOutputSink(nil)
	earlyPrintBuffer.rIndex, earlyPrintBuffer.wIndex = 0, 0
	earlyPrintBuffer.overwritten = 0

	line := strings.Repeat("x", 512)
	for i := 0; i < 2*earlyBufferSize/len(line); i++ {
		Logger().Info(line)
	}

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if got := buf.String(); !strings.Contains(got, "early log output truncated") || !strings.Contains(got, "dropped_bytes=") {
		t.Fatalf("expected a truncation warning after the flushed output; got %d bytes without it", len(got))
	}

	if earlyPrintBuffer.overwritten != 0 {
		t.Fatalf("expected the dropped byte counter to be reset; got %d", earlyPrintBuffer.overwritten)
	}

	// A second registration has nothing left to report
	buf.Reset()
	SetOutputSink(&buf)
	if got := buf.String(); got != "" {
		t.Fatalf("expected no output on re-registration; got %q", got)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	defer func() {
		SetOutputSink(nil)
		SetLevel("info")
	}()
	SetOutputSink(&buf)

	specs := []struct {
		level  string
		expOK  bool
		expOut bool
	}{
		{"trace", true, true},
		{"error", true, false},
		{"not-a-level", false, false},
		{"DEBUG", true, true},
	}

	for specIndex, spec := range specs {
		buf.Reset()
		if got := SetLevel(spec.level); got != spec.expOK {
			t.Errorf("[spec %d] expected SetLevel(%q) to return %t; got %t", specIndex, spec.level, spec.expOK, got)
		}

		Logger().Debug("debug line")
		if got := buf.Len() != 0; got != spec.expOut {
			t.Errorf("[spec %d] expected debug output presence to be %t; got %t", specIndex, spec.expOut, got)
		}
	}
}
