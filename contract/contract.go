//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"log/slog"
	"net/http"
	"period-tracker/domain"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// AppFactory builds the application object served by a worker.
type AppFactory func(log *slog.Logger) (http.Handler, error)

type IRegistry interface {
	Register(module, attribute string, factory AppFactory) error
	Resolve(ref domain.AppRef) (AppFactory, error)
}

// WorkerProcess is a running child process serving the application.
type WorkerProcess interface {
	Process() domain.Process
	// Done is closed once the process exited. Err then reports the exit status.
	Done() <-chan struct{}
	Err() error
	// Terminate asks the process to stop and kills it after the timeout.
	Terminate(timeout time.Duration) error
}

// Spawner starts worker processes and returns once they are ready to serve.
type Spawner interface {
	Spawn(ctx context.Context, generation int) (WorkerProcess, error)
	// UseExecutable switches the binary run by the next spawns.
	UseExecutable(path string)
}

// Builder compiles the sources into a fresh worker binary.
// An empty path means the current binary stays in use.
type Builder interface {
	Build(ctx context.Context) (string, error)
}
