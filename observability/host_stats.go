package observability

import (
	"log/slog"
	"period-tracker/domain"
	"sync"
	"sync/atomic"
	"time"
)

// HostStats aggregates what the reloading supervisor observed over its life.
type HostStats struct {
	log       *slog.Logger
	mu        sync.RWMutex
	startedAt time.Time
	state     domain.HostState
	current   domain.Process
	sample    *domain.ProcessSample

	Restarts uint64
	Crashes  uint64
	Changes  uint64
}

// Snapshot is a copy safe to read without locks.
type Snapshot struct {
	State      domain.HostState
	Worker     domain.Process
	LastSample *domain.ProcessSample
	Restarts   uint64
	Crashes    uint64
	Changes    uint64
	Uptime     time.Duration
}

func NewHostStats(log *slog.Logger) *HostStats {
	return &HostStats{
		log:       log,
		startedAt: time.Now(),
		state:     domain.StateStarting,
	}
}

func (s *HostStats) IncrRestarts() {
	atomic.AddUint64(&s.Restarts, 1)
}

func (s *HostStats) IncrCrashes() {
	atomic.AddUint64(&s.Crashes, 1)
}

func (s *HostStats) IncrChanges() {
	atomic.AddUint64(&s.Changes, 1)
}

// Observe records a state change; it is meant to be registered as a state listener.
func (s *HostStats) Observe(change domain.StateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = change.To
}

func (s *HostStats) SetWorker(p domain.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	s.sample = nil
}

// Worker returns the process currently serving, zero if none.
func (s *HostStats) Worker() domain.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RecordSample keeps the latest reading of the current worker, dropping
// samples of a worker that has since been replaced.
func (s *HostStats) RecordSample(sample domain.ProcessSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sample.Process.PID != s.current.PID {
		return
	}
	s.sample = &sample
	s.log.Debug("Worker sample",
		"pid", sample.Process.PID,
		"generation", sample.Process.Generation,
		"status", sample.Status,
		"cpu", sample.Cpu,
		"ram", sample.Ram,
	)
}

func (s *HostStats) GetLatest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		State:    s.state,
		Worker:   s.current,
		Restarts: atomic.LoadUint64(&s.Restarts),
		Crashes:  atomic.LoadUint64(&s.Crashes),
		Changes:  atomic.LoadUint64(&s.Changes),
		Uptime:   time.Since(s.startedAt),
	}
	if s.sample != nil {
		sample := *s.sample
		snapshot.LastSample = &sample
	}
	return snapshot
}
