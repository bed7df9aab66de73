// Package tracker turns pairs of monotonically increasing tick counters into
// utilization ratios. A tracker keeps exactly one previous sample; every
// observation replaces it, including observations that could not be used.
package tracker

import (
	"math"
	"time"

	"github.com/srodi/hostpulse/pkg/types"
)

// defaultClockTicks is USER_HZ, used when a caller passes zero.
const defaultClockTicks = 100

// System tracks the host-wide busy ratio from /proc/stat snapshots.
type System struct {
	prev   types.CPUTimes
	prevAt time.Time
	primed bool
	ratio  float64
}

// NewSystem returns a tracker with no baseline.
func NewSystem() *System {
	return &System{}
}

// Observe stores cur as the new baseline and returns the busy ratio since the
// previous observation. ok is false when nothing new could be derived: on the
// first call (ratio 0), or when the clock did not advance or any bucket went
// backwards (the last good ratio is returned).
func (s *System) Observe(cur types.CPUTimes, now time.Time) (ratio float64, ok bool) {
	prev, prevAt, primed := s.prev, s.prevAt, s.primed
	s.prev, s.prevAt, s.primed = cur, now, true

	if !primed {
		s.ratio = 0
		return 0, false
	}
	if !now.After(prevAt) || regressed(prev, cur) {
		return s.ratio, false
	}

	busy := cur.BusyTicks() - prev.BusyTicks()
	total := busy + (cur.IdleTicks() - prev.IdleTicks())
	if total == 0 {
		s.ratio = 0
		return 0, true
	}
	s.ratio = clampRatio(float64(busy) / float64(total))
	return s.ratio, true
}

// Ratio returns the last reported ratio.
func (s *System) Ratio() float64 {
	return s.ratio
}

// Process tracks the share of one CPU a single process used between samples.
// A process has no idle bucket, so elapsed time comes from the wall clock
// converted to ticks.
type Process struct {
	clockTicks float64
	prevActive uint64
	prevAt     time.Time
	primed     bool
	ratio      float64
}

// NewProcess returns a tracker for a host ticking clockTicks times per second.
func NewProcess(clockTicks uint64) *Process {
	if clockTicks == 0 {
		clockTicks = defaultClockTicks
	}
	return &Process{clockTicks: float64(clockTicks)}
}

// Observe stores active (user+kernel+children ticks) as the new baseline and
// returns active-tick delta over elapsed wall ticks, clamped to [0,1]. The ok
// result follows the same rules as System.Observe.
func (p *Process) Observe(active uint64, now time.Time) (ratio float64, ok bool) {
	prevActive, prevAt, primed := p.prevActive, p.prevAt, p.primed
	p.prevActive, p.prevAt, p.primed = active, now, true

	if !primed {
		p.ratio = 0
		return 0, false
	}
	elapsed := now.Sub(prevAt).Seconds() * p.clockTicks
	if elapsed <= 0 || active < prevActive {
		return p.ratio, false
	}
	p.ratio = clampRatio(float64(active-prevActive) / elapsed)
	return p.ratio, true
}

// Ratio returns the last reported ratio.
func (p *Process) Ratio() float64 {
	return p.ratio
}

func regressed(prev, cur types.CPUTimes) bool {
	pb, cb := prev.Buckets(), cur.Buckets()
	for i := range pb {
		if cb[i] < pb[i] {
			return true
		}
	}
	return false
}

func clampRatio(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
