package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/hostpulse/pkg/types"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSystemFirstObservationIsZero(t *testing.T) {
	inputs := []types.CPUTimes{
		{},
		{User: 100, System: 50, Idle: 850},
		{User: 1 << 40, Steal: 99},
	}
	for _, in := range inputs {
		s := NewSystem()
		ratio, ok := s.Observe(in, t0)
		assert.Zero(t, ratio)
		assert.False(t, ok)
	}
}

func TestSystemScenario(t *testing.T) {
	s := NewSystem()
	s.Observe(types.CPUTimes{User: 100, System: 50, Idle: 850}, t0)

	ratio, ok := s.Observe(types.CPUTimes{User: 150, System: 70, Idle: 880}, t0.Add(time.Second))
	require.True(t, ok)
	assert.InDelta(t, 0.70, ratio, 1e-9)
	assert.InDelta(t, 0.70, s.Ratio(), 1e-9)
}

func TestSystemFormulaAcrossBuckets(t *testing.T) {
	cases := []struct {
		name string
		prev types.CPUTimes
		cur  types.CPUTimes
		want float64
	}{
		{
			name: "allBusy",
			prev: types.CPUTimes{},
			cur:  types.CPUTimes{User: 10, Nice: 10, System: 10, IRQ: 10, SoftIRQ: 10, Steal: 10},
			want: 1,
		},
		{
			name: "iowaitCountsAsIdle",
			prev: types.CPUTimes{User: 5, IOWait: 5},
			cur:  types.CPUTimes{User: 15, IOWait: 35},
			want: 0.25,
		},
		{
			name: "idleOnly",
			prev: types.CPUTimes{Idle: 100},
			cur:  types.CPUTimes{Idle: 200},
			want: 0,
		},
		{
			name: "mixed",
			prev: types.CPUTimes{User: 1, Nice: 2, System: 3, Idle: 4, IOWait: 5, IRQ: 6, SoftIRQ: 7, Steal: 8},
			cur:  types.CPUTimes{User: 11, Nice: 2, System: 13, Idle: 24, IOWait: 15, IRQ: 6, SoftIRQ: 17, Steal: 18},
			want: 40.0 / 70.0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSystem()
			s.Observe(tc.prev, t0)
			ratio, ok := s.Observe(tc.cur, t0.Add(time.Second))
			require.True(t, ok)
			assert.InDelta(t, tc.want, ratio, 1e-9)
			assert.GreaterOrEqual(t, ratio, 0.0)
			assert.LessOrEqual(t, ratio, 1.0)
		})
	}
}

func TestSystemIdenticalCountersIsZero(t *testing.T) {
	s := NewSystem()
	snap := types.CPUTimes{User: 7, Idle: 9}
	s.Observe(snap, t0)
	ratio, ok := s.Observe(snap, t0.Add(time.Second))
	assert.True(t, ok)
	assert.Zero(t, ratio)
}

func TestSystemInconsistentKeepsRatioAndRebases(t *testing.T) {
	s := NewSystem()
	s.Observe(types.CPUTimes{User: 100, System: 50, Idle: 850}, t0)
	s.Observe(types.CPUTimes{User: 150, System: 70, Idle: 880}, t0.Add(time.Second))

	// counter reset
	ratio, ok := s.Observe(types.CPUTimes{User: 10, Idle: 10}, t0.Add(2*time.Second))
	assert.False(t, ok)
	assert.InDelta(t, 0.70, ratio, 1e-9)

	// the reset sample became the baseline
	ratio, ok = s.Observe(types.CPUTimes{User: 20, Idle: 20}, t0.Add(3*time.Second))
	assert.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	// clock did not advance
	ratio, ok = s.Observe(types.CPUTimes{User: 90, Idle: 20}, t0.Add(3*time.Second))
	assert.False(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	ratio, ok = s.Observe(types.CPUTimes{User: 100, Idle: 30}, t0.Add(4*time.Second))
	assert.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestProcessFirstObservationIsZero(t *testing.T) {
	p := NewProcess(100)
	ratio, ok := p.Observe(123456, t0)
	assert.Zero(t, ratio)
	assert.False(t, ok)
}

func TestProcessRatioUsesWallTicks(t *testing.T) {
	p := NewProcess(100)
	p.Observe(1000, t0)

	// 2s at 100Hz is 200 wall ticks; 50 active ticks is a quarter of one CPU.
	ratio, ok := p.Observe(1050, t0.Add(2*time.Second))
	require.True(t, ok)
	assert.InDelta(t, 0.25, ratio, 1e-9)
}

func TestProcessClampsMultiThreadedUsage(t *testing.T) {
	p := NewProcess(100)
	p.Observe(0, t0)
	ratio, ok := p.Observe(400, t0.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 1.0, ratio)
}

func TestProcessInconsistentSamples(t *testing.T) {
	p := NewProcess(0)
	p.Observe(100, t0)
	ratio, ok := p.Observe(150, t0.Add(time.Second))
	require.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	ratio, ok = p.Observe(160, t0.Add(time.Second))
	assert.False(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	ratio, ok = p.Observe(10, t0.Add(2*time.Second))
	assert.False(t, ok)
	assert.InDelta(t, 0.5, p.Ratio(), 1e-9)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	ratio, ok = p.Observe(30, t0.Add(3*time.Second))
	assert.True(t, ok)
	assert.InDelta(t, 0.2, ratio, 1e-9)
}
