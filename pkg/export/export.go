// Package export exposes refresh snapshots in the Prometheus text format.
package export

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/srodi/hostpulse/pkg/types"
)

const namespace = "hostpulse"

// Collector is a prometheus.Collector serving the most recent snapshot.
type Collector struct {
	topK int

	mu     sync.RWMutex
	snap   types.Snapshot
	loaded bool

	cpu     *prometheus.Desc
	memory  *prometheus.Desc
	uptime  *prometheus.Desc
	procs   *prometheus.Desc
	procCPU *prometheus.Desc
}

// NewCollector builds a Collector publishing at most topK per-process series.
func NewCollector(topK int) *Collector {
	if topK <= 0 {
		topK = types.DefaultTopK
	}
	return &Collector{
		topK: topK,
		cpu: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "cpu_utilization_ratio"),
			"Fraction of non-idle CPU time over the last refresh window.", nil, nil),
		memory: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "memory_utilization_ratio"),
			"Fraction of physical memory in use.", nil, nil),
		uptime: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "uptime_seconds"),
			"Seconds since the host booted.", nil, nil),
		procs: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "processes"),
			"Number of processes seen in the last refresh.", []string{"state"}, nil),
		procCPU: prometheus.NewDesc(prometheus.BuildFQName(namespace, "process", "cpu_ratio"),
			"Per-process CPU ratio for the busiest processes.", []string{"pid", "command", "user"}, nil),
	}
}

// Update replaces the snapshot served on the next scrape.
func (c *Collector) Update(snap types.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.loaded = true
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpu
	ch <- c.memory
	ch <- c.uptime
	ch <- c.procs
	ch <- c.procCPU
}

// Collect implements prometheus.Collector. Nothing is emitted before the first Update.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return
	}

	host := c.snap.Host
	ch <- prometheus.MustNewConstMetric(c.cpu, prometheus.GaugeValue, host.CPU)
	ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, host.Memory)
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, float64(host.UptimeSeconds))
	ch <- prometheus.MustNewConstMetric(c.procs, prometheus.GaugeValue, float64(host.TotalProcesses), "all")
	ch <- prometheus.MustNewConstMetric(c.procs, prometheus.GaugeValue, float64(host.RunningProcesses), "running")

	rows := c.snap.Processes
	if len(rows) > c.topK {
		rows = rows[:c.topK]
	}
	for _, row := range rows {
		ch <- prometheus.MustNewConstMetric(c.procCPU, prometheus.GaugeValue, row.CPU,
			strconv.Itoa(row.PID), row.Comm, row.User)
	}
}

// WriteText gathers snap through a private registry and writes the text exposition format.
func WriteText(w io.Writer, snap types.Snapshot, topK int) error {
	c := NewCollector(topK)
	c.Update(snap)

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
