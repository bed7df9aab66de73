//go:build linux

package host

import "github.com/tklauser/go-sysconf"

// clockTicks allows tests to stub sysconf(_SC_CLK_TCK).
var clockTicks = func() (int64, error) {
	return sysconf.Sysconf(sysconf.SC_CLK_TCK)
}

func systemClockTicks() uint64 {
	ticks, err := clockTicks()
	if err != nil || ticks <= 0 {
		return UserHZ
	}
	return uint64(ticks)
}
