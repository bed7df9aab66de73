package cpu

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/srodi/hostpulse/pkg/types"
)

// procReadFile allows tests to stub reads of /proc/stat and /proc/PID/stat.
var procReadFile = os.ReadFile

// cpuBuckets is the number of leading jiffy columns of the "cpu" line we track.
const cpuBuckets = 8

// Field offsets in /proc/PID/stat counted from the state field, which is
// field 3 in proc(5) numbering.
const (
	statState     = 0
	statPPID      = 1
	statFlags     = 6
	statUTime     = 11
	statSTime     = 12
	statCUTime    = 13
	statCSTime    = 14
	statStartTime = 19
)

// parseSystemTimes extracts the aggregate cpu line from /proc/stat content.
// Kernels older than 2.6.11 omit steal; missing trailing buckets read as zero.
func parseSystemTimes(data []byte) (types.CPUTimes, error) {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}
		if len(fields) < 5 {
			return types.CPUTimes{}, fmt.Errorf("unexpected cpu line: %q", line)
		}
		var vals [cpuBuckets]uint64
		for i := 0; i < cpuBuckets && i+1 < len(fields); i++ {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return types.CPUTimes{}, fmt.Errorf("parse cpu stat %q: %w", fields[i+1], err)
			}
			vals[i] = v
		}
		return types.CPUTimes{
			User:    vals[0],
			Nice:    vals[1],
			System:  vals[2],
			Idle:    vals[3],
			IOWait:  vals[4],
			IRQ:     vals[5],
			SoftIRQ: vals[6],
			Steal:   vals[7],
		}, nil
	}
	return types.CPUTimes{}, fmt.Errorf("cpu aggregate line not found")
}

// parseProcStat decodes /proc/PID/stat. The comm field may itself contain
// spaces and parentheses, so parsing starts after the last ')'.
func parseProcStat(data []byte) (types.ProcStat, error) {
	rp := bytes.LastIndexByte(data, ')')
	if rp < 0 || rp+1 >= len(data) {
		return types.ProcStat{}, fmt.Errorf("malformed stat line")
	}
	fields := strings.Fields(string(data[rp+1:]))
	if len(fields) <= statStartTime {
		return types.ProcStat{}, fmt.Errorf("short stat line: %d fields", len(fields))
	}
	if len(fields[statState]) != 1 {
		return types.ProcStat{}, fmt.Errorf("unexpected state %q", fields[statState])
	}

	var (
		st  = types.ProcStat{State: fields[statState][0]}
		err error
	)
	if st.PPID, err = strconv.Atoi(fields[statPPID]); err != nil {
		return types.ProcStat{}, fmt.Errorf("parse ppid %q: %w", fields[statPPID], err)
	}
	if st.Flags, err = strconv.ParseUint(fields[statFlags], 10, 64); err != nil {
		return types.ProcStat{}, fmt.Errorf("parse flags %q: %w", fields[statFlags], err)
	}
	if st.UserTicks, err = parseTicks(fields[statUTime]); err != nil {
		return types.ProcStat{}, err
	}
	if st.KernelTicks, err = parseTicks(fields[statSTime]); err != nil {
		return types.ProcStat{}, err
	}
	if st.ChildUserTicks, err = parseTicks(fields[statCUTime]); err != nil {
		return types.ProcStat{}, err
	}
	if st.ChildKernelTicks, err = parseTicks(fields[statCSTime]); err != nil {
		return types.ProcStat{}, err
	}
	if st.StartTicks, err = parseTicks(fields[statStartTime]); err != nil {
		return types.ProcStat{}, err
	}
	return st, nil
}

// parseTicks accepts the signed clock_t columns and floors negatives at zero.
func parseTicks(raw string) (uint64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticks %q: %w", raw, err)
	}
	if v < 0 {
		return 0, nil
	}
	return uint64(v), nil
}
