package monitor

import "errors"

var (
	// ErrVanishedProcess marks a PID whose details could not be read after it
	// was enumerated: it exited, or its files are not readable by us. The
	// refresh drops such a PID and carries on.
	ErrVanishedProcess = errors.New("process vanished")

	// ErrHostMetricsUnavailable is returned by Refresh when the host-wide CPU
	// counters, memory totals, uptime or process list cannot be read.
	ErrHostMetricsUnavailable = errors.New("host metrics unavailable")
)
