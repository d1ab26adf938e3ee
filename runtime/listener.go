package runtime

import (
	goerrors "errors"
	"fmt"
	"net"
	"os"
	"period-tracker/domain"
	"period-tracker/errors"
	"syscall"
)

const (
	// EnvWorker marks a process spawned by the reloading supervisor.
	EnvWorker = "PERIOD_TRACKER_WORKER"
	// EnvGeneration carries the worker generation, for logs.
	EnvGeneration = "PERIOD_TRACKER_GENERATION"

	// Inherited descriptors: ExtraFiles start at 3.
	listenerFd = 3
	readyFd    = 4
)

// Bind opens the TCP listener of the server.
func Bind(config domain.ServerConfig) (*net.TCPListener, error) {
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		if goerrors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %s", errors.ErrAddressInUse, config.Address())
		}
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrBindFailed, config.Address(), err)
	}
	return listener.(*net.TCPListener), nil
}

// IsWorker reports whether the current process serves on behalf of a supervisor.
func IsWorker() bool {
	return os.Getenv(EnvWorker) == "1"
}

// InheritedListener rebuilds the listener handed over by the supervisor.
func InheritedListener() (net.Listener, error) {
	if !IsWorker() {
		return nil, errors.ErrNoInheritedSocket
	}
	file := os.NewFile(listenerFd, "listener")
	if file == nil {
		return nil, errors.ErrNoInheritedSocket
	}
	defer file.Close()
	listener, err := net.FileListener(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNoInheritedSocket, err)
	}
	return listener, nil
}

// NotifyReady tells the supervisor that the worker accepts connections.
func NotifyReady() error {
	file := os.NewFile(readyFd, "ready")
	if file == nil {
		return fmt.Errorf("readiness pipe missing")
	}
	defer file.Close()
	_, err := file.WriteString(readyMessage)
	return err
}
