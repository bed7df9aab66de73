//go:build !linux

package cpu

import (
	"errors"
	"testing"
)

func TestStubCollectorBehavior(t *testing.T) {
	if _, err := NewCollector("/proc"); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected errUnsupported, got %v", err)
	}

	var c Collector
	if _, err := c.SystemTimes(); err != errUnsupported {
		t.Fatalf("system times should fail with errUnsupported, got %v", err)
	}

	if _, err := c.ProcTimes(1); err != errUnsupported {
		t.Fatalf("proc times should fail with errUnsupported, got %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close should be a no-op, got %v", err)
	}
}
