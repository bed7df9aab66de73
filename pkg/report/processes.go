package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/srodi/hostpulse/pkg/types"
)

// FilterConfig controls which processes appear in CLI tables.
type FilterConfig struct {
	HideKernel    *bool // nil defaults to true so kernel threads stay hidden unless explicitly shown
	CommandFilter string
}

func (cfg FilterConfig) hideKernelEnabled() bool {
	if cfg.HideKernel == nil {
		return true
	}
	return *cfg.HideKernel
}

// FilterProcesses applies HideKernel/command filters, keeping the input order.
func FilterProcesses(rows []types.ProcessView, cfg FilterConfig) []types.ProcessView {
	needle := strings.ToLower(strings.TrimSpace(cfg.CommandFilter))
	return lo.Filter(rows, func(row types.ProcessView, _ int) bool {
		return passesFilters(row, cfg, needle)
	})
}

// TopProcesses returns at most topK rows of an already ranked list.
func TopProcesses(rows []types.ProcessView, topK int) []types.ProcessView {
	if topK > 0 && len(rows) > topK {
		rows = rows[:topK]
	}
	return append([]types.ProcessView(nil), rows...)
}

// MemoryRows orders processes by resident size, largest first, ties by PID.
func MemoryRows(rows []types.ProcessView, topK int) []types.ProcessView {
	candidates := lo.Filter(rows, func(row types.ProcessView, _ int) bool { return row.RSSBytes > 0 })
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RSSBytes == candidates[j].RSSBytes {
			return candidates[i].PID < candidates[j].PID
		}
		return candidates[i].RSSBytes > candidates[j].RSSBytes
	})
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// SelectFocusCandidate picks the busiest visible process, or nil when nothing used CPU.
func SelectFocusCandidate(rows []types.ProcessView) *types.ProcessView {
	if len(rows) == 0 {
		return nil
	}
	best := lo.MaxBy(rows, func(a, b types.ProcessView) bool {
		if a.CPU == b.CPU {
			return a.PID < b.PID
		}
		return a.CPU > b.CPU
	})
	if best.CPU == 0 {
		return nil
	}
	return &best
}

// FocusSummary returns a short explanation string for the status line.
func FocusSummary(row types.ProcessView) string {
	return fmt.Sprintf("%.1f%% CPU, %s RSS, up %s",
		row.CPU*100, humanize.IBytes(row.RSSBytes), FormatElapsed(row.UptimeSeconds))
}

// FormatElapsed renders seconds as HH:MM:SS, prefixed by days when longer than one.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func passesFilters(row types.ProcessView, cfg FilterConfig, needle string) bool {
	if cfg.hideKernelEnabled() && isKernelThread(row) {
		return false
	}
	if needle != "" {
		cmd := strings.ToLower(row.Command)
		if !strings.Contains(cmd, needle) && !strings.Contains(strings.ToLower(row.Comm), needle) {
			return false
		}
	}
	return true
}

// isKernelThread relies on the stat flags rather than the "[comm]" shape,
// which zombie user processes share.
func isKernelThread(row types.ProcessView) bool {
	return row.PID <= 0 || row.KernelThread
}
