package runtime

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"period-tracker/contract"
	"period-tracker/domain"
	"period-tracker/observability"
	"period-tracker/runtime/workers"
	"period-tracker/tooling"
	"time"
)

type HostConfig struct {
	Server          domain.ServerConfig
	Watch           workers.WatchConfig
	RestartInterval time.Duration
	BootTimeout     time.Duration
	StopTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricInterval  time.Duration
	// BuildCommand rebuilds the worker binary before each reload; empty spawns the running binary
	BuildCommand string
}

// Host binds, serves and reloads the application referenced by the server config.
type Host struct {
	log      *slog.Logger
	registry contract.IRegistry
	config   HostConfig
}

func NewHost(log *slog.Logger, registry contract.IRegistry, config HostConfig) *Host {
	return &Host{log: log, registry: registry, config: config}
}

// Start runs the host until ctx is canceled or a fatal error occurs.
// The application is resolved before binding so a bad reference leaves no listener behind.
func (h *Host) Start(ctx context.Context) error {
	if IsWorker() {
		return h.runWorker(ctx)
	}
	handler, err := h.resolve()
	if err != nil {
		return err
	}
	listener, err := Bind(h.config.Server)
	if err != nil {
		return err
	}
	defer listener.Close()
	printBanner(h.config.Server)

	if !h.config.Server.Reload {
		return Serve(ctx, h.log, listener, handler, h.config.ShutdownTimeout, nil)
	}
	return h.supervise(ctx, listener)
}

func (h *Host) resolve() (http.Handler, error) {
	factory, err := h.registry.Resolve(h.config.Server.App)
	if err != nil {
		return nil, err
	}
	handler, err := factory(h.log)
	if err != nil {
		return nil, fmt.Errorf("unable to build %s: %w", h.config.Server.App, err)
	}
	return handler, nil
}

func (h *Host) runWorker(ctx context.Context) error {
	handler, err := h.resolve()
	if err != nil {
		return err
	}
	listener, err := InheritedListener()
	if err != nil {
		return err
	}
	return Serve(ctx, h.log, listener, handler, h.config.ShutdownTimeout, func() {
		if err := NotifyReady(); err != nil {
			h.log.Error("Unable to notify readiness", "error", err)
		}
	})
}

func (h *Host) supervise(ctx context.Context, listener *net.TCPListener) error {
	file, err := listener.File()
	if err != nil {
		return fmt.Errorf("unable to share listener: %w", err)
	}
	defer file.Close()

	spawner, err := NewProcessSpawner(h.log, file, h.config.BootTimeout, h.config.StopTimeout)
	if err != nil {
		return err
	}
	stats := observability.NewHostStats(h.log)
	machine := NewStateMachine(h.log, stats.Observe, announce)
	changes := make(chan domain.ChangeEvent, 1)

	var builder contract.Builder = noBuild{}
	if h.config.BuildCommand != "" {
		step, err := tooling.NewBuildStep(h.log, h.config.BuildCommand, ".", os.Stdout, os.Stderr)
		if err != nil {
			return err
		}
		defer step.Close()
		builder = step
	}

	var sup contract.ISupervisor = workers.NewSupervisor(h.log, h.config.RestartInterval)
	sup.Add(
		workers.NewFileWatcherWorker(h.log, h.config.Watch, changes),
		workers.NewProcessMonitorWorker(h.log, stats, h.config.MetricInterval),
	)
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()
	defer func() {
		sup.Stop()
		<-supDone
	}()

	reloader := NewReloader(h.log, spawner, builder, changes, machine, stats, h.config.RestartInterval, h.config.StopTimeout)
	err = reloader.Run(ctx)
	snapshot := stats.GetLatest()
	h.log.Info("Reloader stopped",
		"restarts", snapshot.Restarts,
		"crashes", snapshot.Crashes,
		"uptime", snapshot.Uptime.Round(time.Second),
	)
	return err
}

// Serve runs handler on listener until ctx is canceled, then shuts down
// gracefully within shutdownTimeout. ready is called once the server accepts connections.
func Serve(ctx context.Context, log *slog.Logger, listener net.Listener, handler http.Handler, shutdownTimeout time.Duration, ready func()) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Serving application", "address", listener.Addr().String(), "pid", os.Getpid())
		if err := server.Serve(listener); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	// The listener is already bound so connections queue until Serve accepts them
	if ready != nil {
		ready()
	}

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
