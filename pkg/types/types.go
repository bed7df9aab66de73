package types

import "time"

// DefaultTopK controls how many top processes we display.
const DefaultTopK = 15

// StateRunning is the /proc/<pid>/stat state flag for a runnable process.
const StateRunning byte = 'R'

// PFKThread is the per-process flag the kernel sets on its own threads.
const PFKThread uint64 = 0x00200000

// kthreaddPID is the parent of every kernel thread.
const kthreaddPID = 2

// CPUTimes holds the cumulative jiffies of the aggregate "cpu" line in /proc/stat.
type CPUTimes struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// IdleTicks is the idle family: idle plus iowait.
func (c CPUTimes) IdleTicks() uint64 {
	return c.Idle + c.IOWait
}

// BusyTicks sums every bucket outside the idle family.
func (c CPUTimes) BusyTicks() uint64 {
	return c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
}

// TotalTicks sums all eight buckets.
func (c CPUTimes) TotalTicks() uint64 {
	return c.BusyTicks() + c.IdleTicks()
}

// Buckets returns the eight counters in /proc/stat order.
func (c CPUTimes) Buckets() [8]uint64 {
	return [8]uint64{c.User, c.Nice, c.System, c.Idle, c.IOWait, c.IRQ, c.SoftIRQ, c.Steal}
}

// ProcStat is the mutable counter snapshot of a single process.
type ProcStat struct {
	State            byte
	PPID             int
	Flags            uint64
	UserTicks        uint64
	KernelTicks      uint64
	ChildUserTicks   uint64
	ChildKernelTicks uint64
	StartTicks       uint64
	RSSBytes         uint64
}

// ActiveTicks is the CPU time charged to the process, including waited-for children.
func (s ProcStat) ActiveTicks() uint64 {
	return s.UserTicks + s.KernelTicks + s.ChildUserTicks + s.ChildKernelTicks
}

// KernelThread reports kernel threads: PF_KTHREAD set, or a child of kthreadd.
func (s ProcStat) KernelThread() bool {
	return s.Flags&PFKThread != 0 || s.PPID == kthreaddPID
}

// ProcIdentity describes the parts of a process that do not change while it runs.
type ProcIdentity struct {
	PID     int
	User    string
	Command string
	Comm    string
}

// MemInfo carries the host memory totals in bytes.
type MemInfo struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// HostInfo holds host facts read once at startup.
type HostInfo struct {
	OSName     string
	Kernel     string
	ClockTicks uint64
}

// ProcessView is one row of the ranked process list.
type ProcessView struct {
	PID           int
	User          string
	Command       string
	Comm          string
	RAM           string
	RSSBytes      uint64
	CPU           float64
	UptimeSeconds int64
	State         byte
	KernelThread  bool
}

// HostMetrics are the host-wide values derived during one refresh.
type HostMetrics struct {
	CPU              float64
	Memory           float64
	MemTotalBytes    uint64
	MemUsedBytes     uint64
	UptimeSeconds    int64
	TotalProcesses   int
	RunningProcesses int
	OSName           string
	Kernel           string
}

// Snapshot is the independently owned result of one refresh.
type Snapshot struct {
	TakenAt   time.Time
	Host      HostMetrics
	Processes []ProcessView
}
