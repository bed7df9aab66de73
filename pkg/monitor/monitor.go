// Package monitor derives host and per-process utilization from successive
// reads of a counter Source and ranks the live process list.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/srodi/hostpulse/pkg/tracker"
	"github.com/srodi/hostpulse/pkg/types"
)

// Source provides consistent point-in-time reads of kernel counters.
type Source interface {
	HostInfo() types.HostInfo
	CPUTimes() (types.CPUTimes, error)
	MemInfo() (types.MemInfo, error)
	Uptime() (int64, error)
	PIDs() ([]int, error)
	Identity(pid int) (types.ProcIdentity, error)
	ProcStat(pid int) (types.ProcStat, error)
}

// Monitor owns the live process table and the host CPU tracker.
type Monitor struct {
	src    Source
	info   types.HostInfo
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	records map[int]*record
	cpu     *tracker.System
	cycles  uint64
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used for per-process diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New reads the static host facts from src once and returns a Monitor.
func New(src Source, opts ...Option) *Monitor {
	m := &Monitor{
		src:     src,
		logger:  zap.NewNop(),
		now:     time.Now,
		records: make(map[int]*record),
		cpu:     tracker.NewSystem(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.info = src.HostInfo()
	if m.info.ClockTicks == 0 {
		m.info.ClockTicks = 100
	}
	return m
}

// HostInfo returns the static facts captured at construction.
func (m *Monitor) HostInfo() types.HostInfo {
	return m.info
}

// Refresh runs one collection cycle and returns a freshly allocated snapshot
// ranked by CPU ratio, highest first, ties by ascending PID. Processes that
// vanish mid-scan are left out. Failing host-wide reads yield
// ErrHostMetricsUnavailable and leave all state untouched.
func (m *Monitor) Refresh(ctx context.Context) (types.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	times, err := m.src.CPUTimes()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: cpu times: %w", ErrHostMetricsUnavailable, err)
	}
	mem, err := m.src.MemInfo()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: memory totals: %w", ErrHostMetricsUnavailable, err)
	}
	uptime, err := m.src.Uptime()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: uptime: %w", ErrHostMetricsUnavailable, err)
	}
	pids, err := m.src.PIDs()
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: process list: %w", ErrHostMetricsUnavailable, err)
	}
	pids = lo.Uniq(lo.Filter(pids, func(pid int, _ int) bool { return pid > 0 }))

	next := make(map[int]*record, len(pids))
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return types.Snapshot{}, err
		}
		rec, reused, err := buildRecord(m.src, m.records[pid], pid, now, m.info.ClockTicks)
		if reused {
			m.logger.Debug("pid reused by a new process", zap.Int("pid", pid))
		}
		if err != nil {
			m.logger.Debug("dropping process", zap.Int("pid", pid), zap.Error(err))
			continue
		}
		next[pid] = rec
	}
	m.records = next

	cpuRatio, ok := m.cpu.Observe(times, now)
	if !ok && m.cycles > 0 {
		m.logger.Debug("cpu counters gave no new information", zap.Time("at", now))
	}
	m.cycles++

	views := make([]types.ProcessView, 0, len(next))
	for _, rec := range next {
		views = append(views, rec.view(uptime, m.info.ClockTicks))
	}
	rankProcesses(views)

	running := lo.CountBy(views, func(v types.ProcessView) bool {
		return v.State == types.StateRunning
	})

	return types.Snapshot{
		TakenAt: now,
		Host: types.HostMetrics{
			CPU:              cpuRatio,
			Memory:           memoryRatio(mem),
			MemTotalBytes:    mem.TotalBytes,
			MemUsedBytes:     usedBytes(mem),
			UptimeSeconds:    uptime,
			TotalProcesses:   len(views),
			RunningProcesses: running,
			OSName:           m.info.OSName,
			Kernel:           m.info.Kernel,
		},
		Processes: views,
	}, nil
}

// rankProcesses sorts by CPU ratio descending; equal ratios fall back to
// ascending PID so the order is identical across runs.
func rankProcesses(views []types.ProcessView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].CPU == views[j].CPU {
			return views[i].PID < views[j].PID
		}
		return views[i].CPU > views[j].CPU
	})
}

func usedBytes(mem types.MemInfo) uint64 {
	if mem.AvailableBytes >= mem.TotalBytes {
		return 0
	}
	return mem.TotalBytes - mem.AvailableBytes
}

// memoryRatio is (total-available)/total, 0 when total is 0.
func memoryRatio(mem types.MemInfo) float64 {
	if mem.TotalBytes == 0 {
		return 0
	}
	ratio := float64(usedBytes(mem)) / float64(mem.TotalBytes)
	if ratio > 1 {
		return 1
	}
	return ratio
}
