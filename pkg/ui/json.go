package ui

import (
	"encoding/json"
	"io"
	"time"

	"github.com/srodi/hostpulse/pkg/types"
)

type jsonProcess struct {
	PID           int     `json:"pid"`
	User          string  `json:"user"`
	Command       string  `json:"command"`
	RAM           string  `json:"ram_mib"`
	RSSBytes      uint64  `json:"rss_bytes"`
	CPU           float64 `json:"cpu"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	State         string  `json:"state"`
	KernelThread  bool    `json:"kernel_thread"`
}

type jsonHost struct {
	CPU              float64 `json:"cpu"`
	Memory           float64 `json:"memory"`
	MemTotalBytes    uint64  `json:"mem_total_bytes"`
	MemUsedBytes     uint64  `json:"mem_used_bytes"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
	TotalProcesses   int     `json:"total_processes"`
	RunningProcesses int     `json:"running_processes"`
	OSName           string  `json:"os_name"`
	Kernel           string  `json:"kernel"`
}

type jsonSnapshot struct {
	TakenAt   time.Time     `json:"taken_at"`
	Host      jsonHost      `json:"host"`
	Processes []jsonProcess `json:"processes"`
}

// WriteJSON encodes snap as one indented JSON document.
func WriteJSON(w io.Writer, snap types.Snapshot) error {
	out := jsonSnapshot{
		TakenAt:   snap.TakenAt,
		Host:      jsonHost(snap.Host),
		Processes: make([]jsonProcess, 0, len(snap.Processes)),
	}
	for _, row := range snap.Processes {
		out.Processes = append(out.Processes, jsonProcess{
			PID:           row.PID,
			User:          row.User,
			Command:       row.Command,
			RAM:           row.RAM,
			RSSBytes:      row.RSSBytes,
			CPU:           row.CPU,
			UptimeSeconds: row.UptimeSeconds,
			State:         stateString(row.State),
			KernelThread:  row.KernelThread,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
