package host

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	gohost "github.com/shirou/gopsutil/v4/host"

	"github.com/srodi/hostpulse/pkg/types"
)

// UserHZ is the tick rate the kernel uses for every clock_t value exported
// through /proc, independent of CONFIG_HZ.
const UserHZ = 100

// Host lookups are variables so tests can stub them.
var (
	hostUptime          = gohost.UptimeWithContext
	platformInformation = gohost.PlatformInformationWithContext
	kernelVersion       = gohost.KernelVersionWithContext
)

// Collector reads host-wide facts. ctx carries the gopsutil HOST_PROC/HOST_ETC overrides.
type Collector struct {
	ctx context.Context
}

// NewCollector returns a Collector resolving paths through ctx.
func NewCollector(ctx context.Context) *Collector {
	return &Collector{ctx: ctx}
}

// Uptime returns whole seconds since boot.
func (c *Collector) Uptime() (int64, error) {
	secs, err := hostUptime(c.ctx)
	if err != nil {
		return 0, fmt.Errorf("read uptime: %w", err)
	}
	return int64(secs), nil
}

// Info gathers the static host facts. clockTicks of zero asks the system for CLK_TCK.
func (c *Collector) Info(clockTicks uint64) types.HostInfo {
	if clockTicks == 0 {
		clockTicks = systemClockTicks()
	}
	return types.HostInfo{
		OSName:     c.osName(),
		Kernel:     c.kernel(),
		ClockTicks: clockTicks,
	}
}

func (c *Collector) osName() string {
	platform, _, version, err := platformInformation(c.ctx)
	if err != nil || platform == "" {
		return "Linux"
	}
	return displayName(platform, version)
}

func (c *Collector) kernel() string {
	release, err := kernelVersion(c.ctx)
	if err != nil || release == "" {
		return "unknown"
	}
	return release
}

// displayName turns gopsutil's lower-case platform id and version into "Ubuntu 24.04".
func displayName(platform, version string) string {
	r, size := utf8.DecodeRuneInString(platform)
	name := string(unicode.ToUpper(r)) + platform[size:]
	if version = strings.TrimSpace(version); version != "" {
		name += " " + version
	}
	return name
}
