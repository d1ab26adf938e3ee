package runtime

import (
	"bufio"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"period-tracker/contract"
	"period-tracker/domain"
	"period-tracker/errors"
	"strconv"
	"sync"
	"time"
)

const readyMessage = "ready\n"

// ProcessSpawner re-invokes the current executable as a worker that inherits
// the bound listener and a readiness pipe.
type ProcessSpawner struct {
	log          *slog.Logger
	executable   string
	args         []string
	env          []string
	listenerFile *os.File
	bootTimeout  time.Duration
	stopTimeout  time.Duration
}

func NewProcessSpawner(log *slog.Logger, listenerFile *os.File, bootTimeout, stopTimeout time.Duration) (*ProcessSpawner, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrWorkerStartFailed, err)
	}
	return &ProcessSpawner{
		log:          log,
		executable:   executable,
		args:         os.Args[1:],
		env:          os.Environ(),
		listenerFile: listenerFile,
		bootTimeout:  bootTimeout,
		stopTimeout:  stopTimeout,
	}, nil
}

// UseExecutable makes the next workers run a freshly built binary with the same arguments.
func (s *ProcessSpawner) UseExecutable(path string) {
	s.log.Debug("Worker executable switched", "path", path)
	s.executable = path
}

// WithCommand overrides the command spawned for each worker.
func (s *ProcessSpawner) WithCommand(executable string, args ...string) *ProcessSpawner {
	s.executable = executable
	s.args = args
	return s
}

// Spawn starts a worker and blocks until it is ready.
// A worker exiting or staying silent past the boot timeout is killed and reported as
// ErrWorkerBootFailed or ErrWorkerBootTimeout. ErrWorkerStartFailed means the
// executable could not run at all.
func (s *ProcessSpawner) Spawn(ctx context.Context, generation int) (contract.WorkerProcess, error) {
	readR, readW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrWorkerStartFailed, err)
	}
	defer readR.Close()

	cmd := exec.Command(s.executable, s.args...)
	cmd.Env = append(append([]string{}, s.env...),
		EnvWorker+"=1",
		EnvGeneration+"="+strconv.Itoa(generation),
	)
	cmd.ExtraFiles = []*os.File{s.listenerFile, readW}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	setPlatformSpecificAttrs(cmd)

	if err := cmd.Start(); err != nil {
		readW.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrWorkerStartFailed, err)
	}
	// Only the child keeps the write end, so EOF means the worker is gone
	readW.Close()

	wp := newWorkerProcess(cmd, generation)
	s.log.Debug("Worker spawned", "pid", wp.process.PID, "generation", generation)

	ready := make(chan bool, 1)
	go func() {
		line, _ := bufio.NewReader(readR).ReadString('\n')
		ready <- line == readyMessage
	}()

	timer := time.NewTimer(s.bootTimeout)
	defer timer.Stop()

	select {
	case ok := <-ready:
		if ok {
			return wp, nil
		}
		select {
		case <-wp.Done():
		case <-timer.C:
			_ = wp.Terminate(0)
		}
		return nil, fmt.Errorf("%w: generation %d: %v", errors.ErrWorkerBootFailed, generation, wp.Err())
	case <-timer.C:
		_ = wp.Terminate(0)
		return nil, fmt.Errorf("%w: generation %d after %s", errors.ErrWorkerBootTimeout, generation, s.bootTimeout)
	case <-ctx.Done():
		_ = wp.Terminate(s.stopTimeout)
		return nil, ctx.Err()
	}
}

type workerProcess struct {
	cmd     *exec.Cmd
	process domain.Process
	done    chan struct{}
	mu      sync.Mutex
	err     error
}

func newWorkerProcess(cmd *exec.Cmd, generation int) *workerProcess {
	wp := &workerProcess{
		cmd: cmd,
		process: domain.Process{
			PID:        domain.PID(cmd.Process.Pid),
			Generation: generation,
			StartedAt:  time.Now().UTC(),
		},
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		wp.mu.Lock()
		wp.err = err
		wp.mu.Unlock()
		close(wp.done)
	}()
	return wp
}

func (w *workerProcess) Process() domain.Process {
	return w.process
}

func (w *workerProcess) Done() <-chan struct{} {
	return w.done
}

// Err reports how the process exited, nil while it still runs or after a clean exit.
func (w *workerProcess) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errors.ErrWorkerExited, w.err)
}

// Terminate interrupts the worker and kills it if it is still alive after timeout.
func (w *workerProcess) Terminate(timeout time.Duration) error {
	select {
	case <-w.done:
		return nil
	default:
	}
	if timeout > 0 {
		if err := interrupt(w.cmd.Process); err != nil && !isProcessDone(err) {
			return err
		}
		select {
		case <-w.done:
			return nil
		case <-time.After(timeout):
		}
	}
	if err := w.cmd.Process.Kill(); err != nil && !isProcessDone(err) {
		return err
	}
	<-w.done
	return nil
}

func isProcessDone(err error) bool {
	return goerrors.Is(err, os.ErrProcessDone)
}
