//go:build linux

package collector

import (
	"context"
	"os"
	"testing"

	"github.com/shirou/gopsutil/v4/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcFSReadsLiveHost(t *testing.T) {
	src, err := NewProcFS(Options{})
	require.NoError(t, err)
	defer src.Close()

	info := src.HostInfo()
	assert.NotEmpty(t, info.OSName)
	assert.NotEmpty(t, info.Kernel)
	assert.NotZero(t, info.ClockTicks)

	times, err := src.CPUTimes()
	require.NoError(t, err)
	assert.NotZero(t, times.TotalTicks())

	mem, err := src.MemInfo()
	require.NoError(t, err)
	assert.NotZero(t, mem.TotalBytes)
	assert.LessOrEqual(t, mem.AvailableBytes, mem.TotalBytes)

	_, err = src.Uptime()
	require.NoError(t, err)

	self := os.Getpid()
	pids, err := src.PIDs()
	require.NoError(t, err)
	assert.Contains(t, pids, self)

	id, err := src.Identity(self)
	require.NoError(t, err)
	assert.Equal(t, self, id.PID)
	assert.NotEmpty(t, id.Comm)
	assert.NotEmpty(t, id.User)

	st, err := src.ProcStat(self)
	require.NoError(t, err)
	assert.NotZero(t, st.RSSBytes)
	assert.NotZero(t, st.StartTicks)
	assert.False(t, st.KernelThread())
}

func TestNewProcFSRejectsEmptyRoot(t *testing.T) {
	_, err := NewProcFS(Options{ProcRoot: t.TempDir()})
	assert.Error(t, err)
}

func TestEnvContext(t *testing.T) {
	assert.Equal(t, context.Background(), envContext(Options{}))

	ctx := envContext(Options{ProcRoot: "/host/proc", EtcRoot: "/host/etc"})
	env, ok := ctx.Value(common.EnvKey).(common.EnvMap)
	require.True(t, ok)
	assert.Equal(t, "/host/proc", env[common.HostProcEnvKey])
	assert.Equal(t, "/host/etc", env[common.HostEtcEnvKey])
}
