package monitor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/srodi/hostpulse/pkg/tracker"
	"github.com/srodi/hostpulse/pkg/types"
)

// record is the live state of one PID. It owns its CPU tracker exclusively.
type record struct {
	id    types.ProcIdentity
	start uint64
	cpu   *tracker.Process
	stat  types.ProcStat
	ratio float64
}

// buildRecord reads the current counters of pid and folds them into prev,
// creating a fresh record when prev is nil or belongs to an earlier process
// that held the same PID. Identity fields are read only for fresh records.
func buildRecord(src Source, prev *record, pid int, now time.Time, clockTicks uint64) (*record, bool, error) {
	st, err := src.ProcStat(pid)
	if err != nil {
		return nil, false, fmt.Errorf("%w: pid %d stat: %w", ErrVanishedProcess, pid, err)
	}

	reused := prev != nil && prev.start != st.StartTicks
	rec := prev
	if rec == nil || reused {
		id, err := src.Identity(pid)
		if err != nil {
			return nil, reused, fmt.Errorf("%w: pid %d identity: %w", ErrVanishedProcess, pid, err)
		}
		id.PID = pid
		rec = &record{id: id, start: st.StartTicks, cpu: tracker.NewProcess(clockTicks)}
	}

	rec.stat = st
	rec.ratio, _ = rec.cpu.Observe(st.ActiveTicks(), now)
	return rec, reused, nil
}

// view renders the record against the current host uptime.
func (r *record) view(uptime int64, clockTicks uint64) types.ProcessView {
	return types.ProcessView{
		PID:           r.id.PID,
		User:          r.id.User,
		Command:       r.id.Command,
		Comm:          r.id.Comm,
		RAM:           ramMiB(r.stat.RSSBytes),
		RSSBytes:      r.stat.RSSBytes,
		CPU:           r.ratio,
		UptimeSeconds: elapsedSeconds(uptime, r.stat.StartTicks, clockTicks),
		State:         r.stat.State,
		KernelThread:  r.stat.KernelThread(),
	}
}

// elapsedSeconds is host uptime minus process start, floored at zero since
// uptime and the stat file are read at slightly different instants.
func elapsedSeconds(uptime int64, startTicks, clockTicks uint64) int64 {
	if clockTicks == 0 {
		clockTicks = 100
	}
	elapsed := uptime - int64(startTicks/clockTicks)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ramMiB truncates to whole MiB, except that any resident page shows as at least 1.
func ramMiB(rss uint64) string {
	mib := rss / (1024 * 1024)
	if mib == 0 && rss > 0 {
		mib = 1
	}
	return strconv.FormatUint(mib, 10)
}
