package monitor

import (
	"errors"
	"time"

	"github.com/srodi/hostpulse/pkg/types"
)

var errGone = errors.New("no such file or directory")

type fakeProc struct {
	id      types.ProcIdentity
	stat    types.ProcStat
	idErr   error
	statErr error
}

type fakeSource struct {
	info      types.HostInfo
	times     types.CPUTimes
	timesErr  error
	mem       types.MemInfo
	memErr    error
	uptime    int64
	uptimeErr error
	pids      []int
	pidsErr   error
	procs     map[int]*fakeProc

	identityCalls map[int]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		info:          types.HostInfo{OSName: "Test OS", Kernel: "6.0.0-test", ClockTicks: 100},
		mem:           types.MemInfo{TotalBytes: 1000, AvailableBytes: 250},
		uptime:        1000,
		procs:         make(map[int]*fakeProc),
		identityCalls: make(map[int]int),
	}
}

// addProc registers pid as running with the given active ticks.
func (f *fakeSource) addProc(pid int, comm string, state byte, active uint64) *fakeProc {
	p := &fakeProc{
		id:   types.ProcIdentity{PID: pid, User: "root", Command: "/bin/" + comm, Comm: comm},
		stat: types.ProcStat{State: state, UserTicks: active, RSSBytes: 8 << 20},
	}
	f.procs[pid] = p
	f.pids = append(f.pids, pid)
	return p
}

func (f *fakeSource) HostInfo() types.HostInfo          { return f.info }
func (f *fakeSource) CPUTimes() (types.CPUTimes, error) { return f.times, f.timesErr }
func (f *fakeSource) MemInfo() (types.MemInfo, error)   { return f.mem, f.memErr }
func (f *fakeSource) Uptime() (int64, error)            { return f.uptime, f.uptimeErr }
func (f *fakeSource) PIDs() ([]int, error)              { return append([]int(nil), f.pids...), f.pidsErr }

func (f *fakeSource) Identity(pid int) (types.ProcIdentity, error) {
	f.identityCalls[pid]++
	p, ok := f.procs[pid]
	if !ok {
		return types.ProcIdentity{}, errGone
	}
	if p.idErr != nil {
		return types.ProcIdentity{}, p.idErr
	}
	return p.id, nil
}

func (f *fakeSource) ProcStat(pid int) (types.ProcStat, error) {
	p, ok := f.procs[pid]
	if !ok {
		return types.ProcStat{}, errGone
	}
	if p.statErr != nil {
		return types.ProcStat{}, p.statErr
	}
	return p.stat, nil
}

// stepClock advances by step on every call.
type stepClock struct {
	at   time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.at
	c.at = c.at.Add(c.step)
	return now
}

func newClock() *stepClock {
	return &stepClock{at: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Second}
}
