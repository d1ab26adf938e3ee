package errors

import "fmt"

// Configuration
var ErrInvalidConfig = fmt.Errorf("invalid configuration")

// Resolution
var (
	ErrInvalidAppRef       = fmt.Errorf("invalid application reference, expected <module>:<attribute>")
	ErrApplicationNotFound = fmt.Errorf("could not import module")
	ErrAttributeNotFound   = fmt.Errorf("attribute not found in module")
	ErrAlreadyRegistered   = fmt.Errorf("application already registered")
	ErrNilFactory          = fmt.Errorf("application factory is nil")
)

// Binding and serving
var (
	ErrAddressInUse       = fmt.Errorf("address already in use")
	ErrBindFailed         = fmt.Errorf("bind failed")
	ErrNoInheritedSocket  = fmt.Errorf("no inherited socket")
	ErrInvalidTransition  = fmt.Errorf("invalid host state transition")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrWorkerStartFailed  = fmt.Errorf("worker process could not be started")
	ErrWorkerBootFailed   = fmt.Errorf("worker process exited before becoming ready")
	ErrWorkerBootTimeout  = fmt.Errorf("worker process did not become ready in time")
	ErrWorkerExited       = fmt.Errorf("worker process exited")
	ErrNoWatchDirectories = fmt.Errorf("no directory to watch")
)

// Tooling
var (
	ErrUnknownTool    = fmt.Errorf("unknown tool")
	ErrToolNotFound   = fmt.Errorf("tool binary not found")
	ErrStyleViolation = fmt.Errorf("style violation")
	ErrBuildFailed    = fmt.Errorf("worker build failed")
)
