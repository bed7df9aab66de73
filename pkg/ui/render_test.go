package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/hostpulse/pkg/report"
	"github.com/srodi/hostpulse/pkg/types"
)

func renderSnapshot() types.Snapshot {
	return types.Snapshot{
		TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Host: types.HostMetrics{
			CPU:              0.7,
			Memory:           0.5,
			MemTotalBytes:    8 << 30,
			MemUsedBytes:     4 << 30,
			UptimeSeconds:    3725,
			TotalProcesses:   3,
			RunningProcesses: 1,
		},
		Processes: []types.ProcessView{
			{PID: 42, User: "root", Comm: "stress", Command: "stress --cpu 1", CPU: 0.9, RAM: "12", RSSBytes: 12 << 20, UptimeSeconds: 61, State: 'R'},
			{PID: 2, User: "root", Comm: "kthreadd", Command: "[kthreadd]", CPU: 0.0, RAM: "0", State: 'S', KernelThread: true},
			{PID: 7, User: "alice", Comm: "vim", Command: "vim notes.txt", CPU: 0.1, RAM: "30", RSSBytes: 30 << 20, UptimeSeconds: 5, State: 'S'},
		},
	}
}

func hostInfo() types.HostInfo {
	return types.HostInfo{OSName: "Debian GNU/Linux 12", Kernel: "6.1.0", ClockTicks: 100}
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, renderSnapshot(), hostInfo(), RenderOptions{Interval: 2 * time.Second, TopK: 5})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Updated: 2024-05-01T12:00:00Z | Interval: 2s")
	assert.Contains(t, out, "Host: Debian GNU/Linux 12 | Kernel: 6.1.0 | Uptime: 01:02:05")
	assert.Contains(t, out, " 70.0%")
	assert.Contains(t, out, "(4.0 GiB / 8.0 GiB)")
	assert.Contains(t, out, "Tasks: 3 total, 1 running")
	assert.Contains(t, out, "[!] Busiest: stress (pid 42)")
	assert.Contains(t, out, "PID")
	assert.Contains(t, out, "vim notes.txt")
	assert.NotContains(t, out, "[kthreadd]", "kernel threads hidden by default")
	assert.NotContains(t, out, "\033[", "no escapes without color or banner")

	cpuAt := strings.Index(out, "[Top 5 by CPU]")
	memAt := strings.Index(out, "[Top 5 by memory]")
	require.True(t, cpuAt >= 0 && memAt > cpuAt, "memory section follows the CPU section")
	cpuSection, memSection := out[cpuAt:memAt], out[memAt:]
	assert.Less(t, strings.Index(cpuSection, "stress --cpu 1"), strings.Index(cpuSection, "vim notes.txt"))
	assert.Less(t, strings.Index(memSection, "vim notes.txt"), strings.Index(memSection, "stress --cpu 1"),
		"memory section orders by resident size")
}

func TestRenderHighlightsHotRows(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, renderSnapshot(), hostInfo(), RenderOptions{TopK: 5, Color: true})
	require.NoError(t, err)

	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "stress --cpu 1"):
			assert.Contains(t, line, "\033[", "hot row should be colored")
		case strings.Contains(line, "vim notes.txt"):
			assert.NotContains(t, line, "\033[")
		}
	}
}

func TestRenderHotRatioOption(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, renderSnapshot(), hostInfo(), RenderOptions{TopK: 5, Color: true, HotRatio: 0.05})
	require.NoError(t, err)

	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "vim notes.txt") {
			assert.Contains(t, line, "\033[", "0.1 CPU is hot at a 0.05 threshold")
		}
	}
}

func TestRenderNoMatches(t *testing.T) {
	var buf bytes.Buffer
	opts := RenderOptions{TopK: 5, Filter: report.FilterConfig{CommandFilter: "nginx"}}
	require.NoError(t, Render(&buf, renderSnapshot(), hostInfo(), opts))

	out := buf.String()
	assert.Contains(t, out, `No processes matched current filters (filter="nginx")`)
	assert.Equal(t, 2, strings.Count(out, "No processes to show"))
}

func TestRenderFallsBackToHostInfo(t *testing.T) {
	snap := renderSnapshot()
	snap.Host.OSName = "Alpine"
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, snap, hostInfo(), RenderOptions{}))
	assert.Contains(t, buf.String(), "Host: Alpine | Kernel: 6.1.0")
}

func TestMeter(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(" ", meterWidth)+"]", meter(0))
	assert.Equal(t, "["+strings.Repeat("|", meterWidth)+"]", meter(1))
	assert.Equal(t, "["+strings.Repeat("|", meterWidth)+"]", meter(3))
	assert.Equal(t, "["+strings.Repeat("|", 10)+strings.Repeat(" ", 10)+"]", meter(0.5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "日本…", truncate("日本語テキスト", 6))
}
