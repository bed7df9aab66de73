//go:build linux
// +build linux

package cpu

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/srodi/hostpulse/pkg/types"
)

// Collector reads jiffy counters from a procfs mount.
type Collector struct {
	root string
}

// NewCollector verifies that root/stat is readable and returns a Collector for it.
func NewCollector(root string) (*Collector, error) {
	if root == "" {
		root = "/proc"
	}
	c := &Collector{root: root}
	if _, err := c.SystemTimes(); err != nil {
		return nil, fmt.Errorf("probing %s: %w", root, err)
	}
	return c, nil
}

// SystemTimes returns the aggregate 8-bucket counters from /proc/stat.
func (c *Collector) SystemTimes() (types.CPUTimes, error) {
	path := filepath.Join(c.root, "stat")
	data, err := procReadFile(path)
	if err != nil {
		return types.CPUTimes{}, fmt.Errorf("read %s: %w", path, err)
	}
	times, err := parseSystemTimes(data)
	if err != nil {
		return types.CPUTimes{}, fmt.Errorf("%s: %w", path, err)
	}
	return times, nil
}

// ProcTimes returns the state and tick counters of a single PID. RSSBytes is
// left zero; the memory collector owns resident size.
func (c *Collector) ProcTimes(pid int) (types.ProcStat, error) {
	if pid <= 0 {
		return types.ProcStat{}, fmt.Errorf("invalid pid %d", pid)
	}
	path := filepath.Join(c.root, strconv.Itoa(pid), "stat")
	data, err := procReadFile(path)
	if err != nil {
		return types.ProcStat{}, fmt.Errorf("read %s: %w", path, err)
	}
	st, err := parseProcStat(data)
	if err != nil {
		return types.ProcStat{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// Close is a no-op; the collector holds no open descriptors between reads.
func (c *Collector) Close() error {
	return nil
}
