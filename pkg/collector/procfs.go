// Package collector assembles the procfs readers into a single counter source.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v4/common"

	"github.com/srodi/hostpulse/pkg/collector/cpu"
	"github.com/srodi/hostpulse/pkg/collector/host"
	"github.com/srodi/hostpulse/pkg/collector/memory"
	"github.com/srodi/hostpulse/pkg/collector/process"
	"github.com/srodi/hostpulse/pkg/types"
)

// Options selects where the readers look. Zero values mean the live host paths.
type Options struct {
	ProcRoot   string // e.g. /host/proc when running in a container
	EtcRoot    string // directory holding os-release
	ClockTicks uint64
}

// envContext carries the root overrides the gopsutil readers honour.
func envContext(opts Options) context.Context {
	env := common.EnvMap{}
	if opts.ProcRoot != "" {
		env[common.HostProcEnvKey] = opts.ProcRoot
	}
	if opts.EtcRoot != "" {
		env[common.HostEtcEnvKey] = opts.EtcRoot
	}
	ctx := context.Background()
	if len(env) == 0 {
		return ctx
	}
	return context.WithValue(ctx, common.EnvKey, env)
}

// ProcFS reads every raw counter the monitor needs from a procfs mount.
type ProcFS struct {
	cpu   *cpu.Collector
	mem   *memory.Collector
	procs *process.Collector
	host  *host.Collector
	ticks uint64
}

// NewProcFS probes the proc root and returns a ready source.
func NewProcFS(opts Options) (*ProcFS, error) {
	cpuCollector, err := cpu.NewCollector(opts.ProcRoot)
	if err != nil {
		return nil, fmt.Errorf("initializing CPU collector: %w", err)
	}
	ctx := envContext(opts)
	memCollector, err := memory.NewCollector(ctx)
	if err != nil {
		cpuCollector.Close()
		return nil, fmt.Errorf("initializing memory collector: %w", err)
	}
	return &ProcFS{
		cpu:   cpuCollector,
		mem:   memCollector,
		procs: process.NewCollector(ctx),
		host:  host.NewCollector(ctx),
		ticks: opts.ClockTicks,
	}, nil
}

// HostInfo reads the static host facts.
func (p *ProcFS) HostInfo() types.HostInfo {
	return p.host.Info(p.ticks)
}

// CPUTimes returns the aggregate jiffy counters.
func (p *ProcFS) CPUTimes() (types.CPUTimes, error) {
	return p.cpu.SystemTimes()
}

// MemInfo returns host memory totals.
func (p *ProcFS) MemInfo() (types.MemInfo, error) {
	return p.mem.MemInfo()
}

// Uptime returns whole seconds since boot.
func (p *ProcFS) Uptime() (int64, error) {
	return p.host.Uptime()
}

// PIDs lists live process ids.
func (p *ProcFS) PIDs() ([]int, error) {
	return p.procs.PIDs()
}

// Identity reads the static identity of pid.
func (p *ProcFS) Identity(pid int) (types.ProcIdentity, error) {
	return p.procs.Identity(pid)
}

// ProcStat reads the tick counters and resident size of pid.
func (p *ProcFS) ProcStat(pid int) (types.ProcStat, error) {
	st, err := p.cpu.ProcTimes(pid)
	if err != nil {
		return types.ProcStat{}, err
	}
	rss, err := p.mem.RSSBytes(pid)
	if err != nil {
		return types.ProcStat{}, err
	}
	st.RSSBytes = rss
	return st, nil
}

// Close releases the underlying collectors.
func (p *ProcFS) Close() error {
	return errors.Join(p.cpu.Close(), p.mem.Close())
}
