//go:build !linux
// +build !linux

package cpu

import (
	"errors"

	"github.com/srodi/hostpulse/pkg/types"
)

var errUnsupported = errors.New("cpu collector requires linux")

// Collector is a placeholder on non-Linux platforms.
type Collector struct{}

// NewCollector returns an error because procfs is only available on Linux.
func NewCollector(root string) (*Collector, error) {
	return nil, errUnsupported
}

// SystemTimes always fails on unsupported platforms.
func (c *Collector) SystemTimes() (types.CPUTimes, error) {
	return types.CPUTimes{}, errUnsupported
}

// ProcTimes always fails on unsupported platforms.
func (c *Collector) ProcTimes(pid int) (types.ProcStat, error) {
	return types.ProcStat{}, errUnsupported
}

// Close is a no-op stub.
func (c *Collector) Close() error {
	return nil
}
