package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/srodi/hostpulse/pkg/report"
	"github.com/srodi/hostpulse/pkg/types"
)

const (
	defaultHotRatio = 0.5
	maxCommandWidth = 60
	meterWidth      = 20
)

// RenderOptions controls the interactive table.
type RenderOptions struct {
	Interval   time.Duration
	TopK       int
	Filter     report.FilterConfig
	Color      bool
	ShowBanner bool
	HotRatio   float64 // rows at or above this CPU ratio are highlighted; 0 means defaultHotRatio
}

// Render writes one full frame for snap to w.
func Render(w io.Writer, snap types.Snapshot, info types.HostInfo, opts RenderOptions) error {
	topK := opts.TopK
	if topK <= 0 {
		topK = types.DefaultTopK
	}
	hot := opts.HotRatio
	if hot <= 0 {
		hot = defaultHotRatio
	}

	heading := color.New(color.Bold)
	hotRow := color.New(color.FgRed, color.Bold)
	if opts.Color {
		heading.EnableColor()
		hotRow.EnableColor()
	} else {
		heading.DisableColor()
		hotRow.DisableColor()
	}

	var buf bytes.Buffer
	if opts.ShowBanner {
		buf.WriteString(Banner())
	}
	fmt.Fprintf(&buf, "hostpulse (press q or Ctrl+C to exit)\n")
	fmt.Fprintf(&buf, "Updated: %s | Interval: %v\n", snap.TakenAt.Format(time.RFC3339), opts.Interval)
	writeHost(&buf, snap.Host, info)

	rows := report.FilterProcesses(snap.Processes, opts.Filter)
	if focus := report.SelectFocusCandidate(rows); focus != nil {
		fmt.Fprintf(&buf, "[!] Busiest: %s (pid %d) - %s\n\n", focus.Comm, focus.PID, report.FocusSummary(*focus))
	} else if len(rows) == 0 {
		fmt.Fprintf(&buf, "[!] No processes matched current filters (filter=%q)\n\n", opts.Filter.CommandFilter)
	} else {
		buf.WriteString("\n")
	}

	top := report.TopProcesses(rows, topK)
	if err := writeSection(&buf, heading.Sprintf("[Top %d by CPU]", topK), top, hotRow, hot); err != nil {
		return err
	}
	buf.WriteString("\n")
	byMemory := report.MemoryRows(rows, topK)
	if err := writeSection(&buf, heading.Sprintf("[Top %d by memory]", topK), byMemory, hotRow, hot); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// writeSection prints a titled table, coloring rows whose CPU ratio reaches hot.
func writeSection(buf *bytes.Buffer, title string, rows []types.ProcessView, hotRow *color.Color, hot float64) error {
	buf.WriteString(title + "\n")
	if len(rows) == 0 {
		fmt.Fprintln(buf, "No processes to show")
		return nil
	}
	lines, err := table(rows)
	if err != nil {
		return err
	}
	buf.WriteString(lines[0] + "\n")
	for i, row := range rows {
		line := lines[i+1]
		if row.CPU >= hot {
			line = hotRow.Sprint(line)
		}
		buf.WriteString(line + "\n")
	}
	return nil
}

func writeHost(buf *bytes.Buffer, host types.HostMetrics, info types.HostInfo) {
	osName, kernel := host.OSName, host.Kernel
	if osName == "" {
		osName = info.OSName
	}
	if kernel == "" {
		kernel = info.Kernel
	}
	fmt.Fprintf(buf, "Host: %s | Kernel: %s | Uptime: %s\n", osName, kernel, report.FormatElapsed(host.UptimeSeconds))
	fmt.Fprintf(buf, "CPU:  %s %5.1f%%\n", meter(host.CPU), host.CPU*100)
	fmt.Fprintf(buf, "Mem:  %s %5.1f%% (%s / %s)\n", meter(host.Memory), host.Memory*100,
		humanize.IBytes(host.MemUsedBytes), humanize.IBytes(host.MemTotalBytes))
	fmt.Fprintf(buf, "Tasks: %d total, %d running\n\n", host.TotalProcesses, host.RunningProcesses)
}

// table lays rows out with tabwriter before any color codes are added, so escapes do not skew widths.
func table(rows []types.ProcessView) ([]string, error) {
	var out bytes.Buffer
	tw := tabwriter.NewWriter(&out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tUSER\tCPU(%)\tRAM(MiB)\tUPTIME\tS\tCOMMAND")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\t%s\t%s\n",
			row.PID, row.User, row.CPU*100, row.RAM, report.FormatElapsed(row.UptimeSeconds),
			stateString(row.State), truncate(row.Command, maxCommandWidth))
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n"), nil
}

func meter(ratio float64) string {
	filled := int(ratio*meterWidth + 0.5)
	filled = min(max(filled, 0), meterWidth)
	return "[" + strings.Repeat("|", filled) + strings.Repeat(" ", meterWidth-filled) + "]"
}

func stateString(state byte) string {
	if state == 0 {
		return "?"
	}
	return string(state)
}

// truncate cuts s to width terminal cells so wide glyphs do not break the columns.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
