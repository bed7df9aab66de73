package process

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/srodi/hostpulse/pkg/types"
)

// handle is the subset of *process.Process the collector reads.
type handle interface {
	uid(ctx context.Context) (string, error)
	username(ctx context.Context) (string, error)
	cmdline(ctx context.Context) (string, error)
	name(ctx context.Context) (string, error)
}

// Process lookups are variables so tests can stub them.
var (
	listPIDs    = process.PidsWithContext
	openProcess = func(ctx context.Context, pid int32) (handle, error) {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			return nil, err
		}
		return psProcess{p: p}, nil
	}
)

type psProcess struct {
	p *process.Process
}

func (h psProcess) uid(ctx context.Context) (string, error) {
	uids, err := h.p.UidsWithContext(ctx)
	if err != nil {
		return "", err
	}
	if len(uids) == 0 {
		return "", fmt.Errorf("no uid for pid %d", h.p.Pid)
	}
	return strconv.FormatInt(int64(uids[0]), 10), nil
}

func (h psProcess) username(ctx context.Context) (string, error) {
	return h.p.UsernameWithContext(ctx)
}

func (h psProcess) cmdline(ctx context.Context) (string, error) {
	return h.p.CmdlineWithContext(ctx)
}

func (h psProcess) name(ctx context.Context) (string, error) {
	return h.p.NameWithContext(ctx)
}

// Collector enumerates processes and resolves their identity fields.
type Collector struct {
	ctx context.Context

	mu    sync.Mutex
	users map[string]string
}

// NewCollector returns a Collector resolving paths through ctx.
func NewCollector(ctx context.Context) *Collector {
	return &Collector{ctx: ctx, users: make(map[string]string)}
}

// PIDs lists live process ids in ascending order.
func (c *Collector) PIDs() ([]int, error) {
	raw, err := listPIDs(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}
	pids := make([]int, 0, len(raw))
	for _, pid := range raw {
		if pid > 0 {
			pids = append(pids, int(pid))
		}
	}
	sort.Ints(pids)
	return pids, nil
}

// Identity reads the owning user, command line and comm of pid. Processes
// without a cmdline (kernel threads, zombies) are reported as "[comm]" like ps does.
func (c *Collector) Identity(pid int) (types.ProcIdentity, error) {
	if pid <= 0 {
		return types.ProcIdentity{}, fmt.Errorf("invalid pid %d", pid)
	}
	h, err := openProcess(c.ctx, int32(pid))
	if err != nil {
		return types.ProcIdentity{}, fmt.Errorf("open pid %d: %w", pid, err)
	}

	uid, err := h.uid(c.ctx)
	if err != nil {
		return types.ProcIdentity{}, fmt.Errorf("uid of pid %d: %w", pid, err)
	}
	cmdline, err := h.cmdline(c.ctx)
	if err != nil {
		return types.ProcIdentity{}, fmt.Errorf("cmdline of pid %d: %w", pid, err)
	}

	comm := c.comm(h, pid)
	command := strings.TrimSpace(cmdline)
	if command == "" {
		command = "[" + comm + "]"
	}

	return types.ProcIdentity{
		PID:     pid,
		User:    c.userName(h, uid),
		Command: command,
		Comm:    comm,
	}, nil
}

func (c *Collector) comm(h handle, pid int) string {
	name, err := h.name(c.ctx)
	if err != nil {
		return fmt.Sprintf("pid-%d", pid)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("pid-%d", pid)
	}
	return name
}

// userName resolves uid once per collector. Unknown uids fall back to the
// numeric id and are cached as such.
func (c *Collector) userName(h handle, uid string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name, ok := c.users[uid]; ok {
		return name
	}
	name, err := h.username(c.ctx)
	if err != nil || name == "" {
		name = uid
	}
	c.users[uid] = name
	return name
}
