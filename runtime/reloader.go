package runtime

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"period-tracker/contract"
	"period-tracker/domain"
	"period-tracker/errors"
	"period-tracker/observability"
	"time"
)

// Reloader drives the worker lifecycle: spawn, serve, rebuild and restart on
// change or crash, stop.
type Reloader struct {
	log             *slog.Logger
	spawner         contract.Spawner
	builder         contract.Builder
	changes         <-chan domain.ChangeEvent
	machine         *StateMachine
	stats           *observability.HostStats
	restartInterval time.Duration
	stopTimeout     time.Duration
}

func NewReloader(
	log *slog.Logger,
	spawner contract.Spawner,
	builder contract.Builder,
	changes <-chan domain.ChangeEvent,
	machine *StateMachine,
	stats *observability.HostStats,
	restartInterval, stopTimeout time.Duration,
) *Reloader {
	return &Reloader{
		log:             log,
		spawner:         spawner,
		builder:         builder,
		changes:         changes,
		machine:         machine,
		stats:           stats,
		restartInterval: restartInterval,
		stopTimeout:     stopTimeout,
	}
}

// Run returns nil once ctx is canceled. The only fatal error is a worker that
// cannot be executed at all; crashing workers are restarted without limit.
func (r *Reloader) Run(ctx context.Context) error {
	generation := 1
	for {
		worker, err := r.spawner.Spawn(ctx, generation)
		switch {
		case ctx.Err() != nil:
			if worker != nil {
				r.terminate(worker)
			}
			r.stop(generation, "shutdown")
			return nil
		case goerrors.Is(err, errors.ErrWorkerStartFailed):
			r.stop(generation, err.Error())
			return err
		case err != nil:
			r.log.Error("Worker failed to boot", "generation", generation, "error", err)
			if !r.crashed(ctx, generation, err) {
				return nil
			}
		default:
			r.stats.SetWorker(worker.Process())
			r.transition(domain.StateServing, generation, fmt.Sprintf("pid %d", worker.Process().PID))
			if !r.serve(ctx, worker, generation) {
				return nil
			}
		}
		generation++
		r.transition(domain.StateStarting, generation, "")
	}
}

// serve waits for the worker to be replaced. It returns false once the host stopped.
func (r *Reloader) serve(ctx context.Context, worker contract.WorkerProcess, generation int) bool {
	for {
		select {
		case <-ctx.Done():
			r.terminate(worker)
			r.stop(generation, "shutdown")
			return false
		case <-worker.Done():
			if ctx.Err() != nil {
				r.stop(generation, "shutdown")
				return false
			}
			err := worker.Err()
			if err == nil {
				err = errors.ErrWorkerExited
			}
			r.log.Error("Worker exited unexpectedly", "generation", generation, "error", err)
			return r.crashed(ctx, generation, err)
		case change := <-r.changes:
			r.stats.IncrChanges()
			r.log.Info("Detected changes, reloading", "paths", change.Paths)
			// Queued events are covered by this build; later ones trigger another reload
			r.drain()
			// The current worker keeps serving while the new one is built
			if err := r.build(ctx); err != nil {
				if ctx.Err() == nil {
					r.log.Error("Build failed, keeping the current worker until the next change", "error", err)
				}
				continue
			}
			r.transition(domain.StateRestarting, generation, "source changed")
			r.terminate(worker)
			r.stats.IncrRestarts()
			return true
		}
	}
}

// crashed moves to Restarting and waits the restart interval. Changes seen in
// the meantime are rebuilt before the next spawn.
// It returns false when ctx was canceled while waiting.
func (r *Reloader) crashed(ctx context.Context, generation int, err error) bool {
	r.stats.IncrCrashes()
	r.stats.IncrRestarts()
	r.transition(domain.StateRestarting, generation, err.Error())
	select {
	case <-ctx.Done():
		r.stop(generation, "shutdown")
		return false
	case <-time.After(r.restartInterval):
	}
	if !r.drain() {
		return true
	}
	return r.rebuild(ctx, generation)
}

// rebuild retries the build on every new change until it succeeds.
// A failing build never spins: it waits for the operator to fix the sources.
func (r *Reloader) rebuild(ctx context.Context, generation int) bool {
	for {
		err := r.build(ctx)
		if err == nil {
			return true
		}
		if ctx.Err() == nil {
			r.log.Error("Build failed, waiting for the next change", "error", err)
		}
		select {
		case <-ctx.Done():
			r.stop(generation, "shutdown")
			return false
		case <-r.changes:
			r.stats.IncrChanges()
			r.drain()
		}
	}
}

func (r *Reloader) build(ctx context.Context) error {
	path, err := r.builder.Build(ctx)
	if err != nil {
		return err
	}
	if path != "" {
		r.spawner.UseExecutable(path)
	}
	return nil
}

func (r *Reloader) terminate(worker contract.WorkerProcess) {
	if err := worker.Terminate(r.stopTimeout); err != nil {
		r.log.Error("Unable to terminate worker", "pid", worker.Process().PID, "error", err)
	}
}

// drain drops change events already covered by the coming build, so a single
// save triggers a single restart. It reports whether any was dropped.
func (r *Reloader) drain() bool {
	drained := false
	for {
		select {
		case <-r.changes:
			drained = true
		default:
			return drained
		}
	}
}

func (r *Reloader) stop(generation int, reason string) {
	r.transition(domain.StateStopped, generation, reason)
}

func (r *Reloader) transition(to domain.HostState, generation int, reason string) {
	if err := r.machine.Transition(to, generation, reason); err != nil {
		r.log.Warn("Ignored host state change", "error", err)
	}
}

// noBuild keeps spawning the running binary.
type noBuild struct{}

func (noBuild) Build(context.Context) (string, error) {
	return "", nil
}
