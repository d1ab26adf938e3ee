package workers

import (
	"context"
	"log/slog"
	"period-tracker/domain"
	"time"

	"github.com/shirou/gopsutil/process"
)

// SampleRecorder receives the readings of the current worker process.
type SampleRecorder interface {
	Worker() domain.Process
	RecordSample(sample domain.ProcessSample)
}

// ProcessMonitorWorker samples the serving worker process every metricInterval.
type ProcessMonitorWorker struct {
	log            *slog.Logger
	recorder       SampleRecorder
	metricInterval time.Duration
	tracked        *process.Process
}

func NewProcessMonitorWorker(log *slog.Logger, recorder SampleRecorder, metricInterval time.Duration) *ProcessMonitorWorker {
	return &ProcessMonitorWorker{
		log:            log,
		recorder:       recorder,
		metricInterval: metricInterval,
	}
}

func (w *ProcessMonitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process monitoring")
			return nil
		case <-ticker.C:
			current := w.recorder.Worker()
			if current.PID == 0 {
				continue
			}
			sample, err := w.sample(current)
			if err != nil {
				w.log.Debug("Error while sampling worker process", "pid", current.PID, "err", err)
				continue
			}
			w.recorder.RecordSample(sample)
		}
	}
}

func (w *ProcessMonitorWorker) sample(current domain.Process) (domain.ProcessSample, error) {
	// CPUPercent is computed against the previous call, keep the handle per pid
	if w.tracked == nil || w.tracked.Pid != int32(current.PID) {
		p, err := process.NewProcess(int32(current.PID))
		if err != nil {
			w.tracked = nil
			return domain.ProcessSample{}, err
		}
		w.tracked = p
	}
	status, err := w.tracked.Status()
	if err != nil {
		return domain.ProcessSample{}, err
	}
	cpu, err := w.tracked.CPUPercent()
	if err != nil {
		return domain.ProcessSample{}, err
	}
	ram, err := w.tracked.MemoryPercent()
	if err != nil {
		return domain.ProcessSample{}, err
	}
	return domain.ProcessSample{
		Process: current,
		Status:  domain.ToStatus(status),
		Cpu:     cpu,
		Ram:     ram,
		At:      time.Now().UTC(),
	}, nil
}
