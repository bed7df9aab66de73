package memory

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/srodi/hostpulse/pkg/types"
)

// Memory lookups are variables so tests can stub them.
var (
	virtualMemory = mem.VirtualMemoryWithContext
	processRSS    = func(ctx context.Context, pid int32) (uint64, error) {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			return 0, err
		}
		info, err := p.MemoryInfoWithContext(ctx)
		if err != nil {
			return 0, err
		}
		return info.RSS, nil
	}
)

// Collector reads memory totals and per-process resident size.
type Collector struct {
	ctx context.Context
}

// NewCollector verifies that memory totals are readable through ctx.
func NewCollector(ctx context.Context) (*Collector, error) {
	c := &Collector{ctx: ctx}
	if _, err := c.MemInfo(); err != nil {
		return nil, fmt.Errorf("probing memory totals: %w", err)
	}
	return c, nil
}

// MemInfo returns total and available memory in bytes. gopsutil estimates
// Available from free, buffers and page cache on kernels without MemAvailable.
func (c *Collector) MemInfo() (types.MemInfo, error) {
	vm, err := virtualMemory(c.ctx)
	if err != nil {
		return types.MemInfo{}, fmt.Errorf("read memory totals: %w", err)
	}
	if vm.Total == 0 {
		return types.MemInfo{}, fmt.Errorf("memory total reported as zero")
	}
	return types.MemInfo{TotalBytes: vm.Total, AvailableBytes: vm.Available}, nil
}

// RSSBytes returns the resident set size for a single PID.
func (c *Collector) RSSBytes(pid int) (uint64, error) {
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d", pid)
	}
	rss, err := processRSS(c.ctx, int32(pid))
	if err != nil {
		return 0, fmt.Errorf("read rss of pid %d: %w", pid, err)
	}
	return rss, nil
}

// Close is a no-op; reads do not keep files open.
func (c *Collector) Close() error {
	return nil
}
