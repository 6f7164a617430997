package workers

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/grpc/health"
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessSource exposes the child currently run by a worker.
type ProcessSource interface {
	Process() domain.Process
}

type ProcessStats struct {
	Process    domain.Process
	Status     domain.PidStatus
	CPUPercent float64
	MemPercent float32
	RSS        uint64
}

// ProcessMonitorWorker periodically logs the resource usage of each supervised child
// and, when an address is configured, the relay readiness reported over gRPC health.
type ProcessMonitorWorker struct {
	log          *slog.Logger
	interval     time.Duration
	sources      []ProcessSource
	healthAddr   string
	probeTimeout time.Duration
}

func NewProcessMonitorWorker(log *slog.Logger, interval time.Duration, healthAddr string, sources ...ProcessSource) *ProcessMonitorWorker {
	return &ProcessMonitorWorker{
		log:          log,
		interval:     interval,
		sources:      sources,
		healthAddr:   healthAddr,
		probeTimeout: interval / 2,
	}
}

func (w *ProcessMonitorWorker) Name() string {
	return "ProcessMonitorWorker"
}

// Run samples every interval until ctx is cancelled. A non-positive interval disables monitoring.
func (w *ProcessMonitorWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.log.Info("Process monitor disabled", "interval", w.interval)
		return nil
	}
	w.log.Info("Starting process monitor", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *ProcessMonitorWorker) sample(ctx context.Context) {
	for _, source := range w.sources {
		proc := source.Process()
		if proc.PID == 0 {
			w.log.Debug("Process not running", "process", proc.Kind)
			continue
		}
		stats, err := collectStats(proc)
		if err != nil {
			w.log.Warn("Failed to collect process stats", "process", proc.Kind, "pid", proc.PID, "error", err)
			continue
		}
		w.log.Info("Process stats",
			"process", proc.Kind,
			"pid", proc.PID,
			"status", stats.Status,
			"cpu_percent", stats.CPUPercent,
			"mem_percent", stats.MemPercent,
			"rss_bytes", stats.RSS,
		)
	}

	if w.healthAddr == "" {
		return
	}
	status, err := health.Probe(ctx, w.healthAddr, w.probeTimeout)
	if err != nil {
		w.log.Warn("Relay health probe failed", "addr", w.healthAddr, "error", err)
		return
	}
	w.log.Info("Relay health", "addr", w.healthAddr, "status", status.String())
}

// collectStats retrieves memory, CPU and OS status of a process.
func collectStats(proc domain.Process) (ProcessStats, error) {
	p, err := process.NewProcess(int32(proc.PID))
	if err != nil {
		return ProcessStats{}, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	memPercent, err := p.MemoryPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{
		Process:    proc,
		Status:     domain.ToStatus(status),
		CPUPercent: cpuPercent,
		MemPercent: memPercent,
		RSS:        memInfo.RSS,
	}, nil
}
