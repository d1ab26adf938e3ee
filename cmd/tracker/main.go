package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"os"
	"period-tracker/domain"
	"period-tracker/errors"
)

// Exit codes to provide meaningful status to the operating system or the calling shell.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// Thin wrapper: run() owns every defer, main only maps the exit code.
	code, err := run(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string) (int, error) {
	root := newRootCmd(newRegistry())
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return exitCode(err), err
	}
	return exitOK, nil
}

// exitCode mirrors a failing style tool's own code.
func exitCode(err error) int {
	var toolErr *domain.ToolError
	switch {
	case err == nil:
		return exitOK
	case goerrors.As(err, &toolErr) && toolErr.ExitCode > 0:
		return toolErr.ExitCode
	case goerrors.Is(err, errors.ErrInvalidConfig), goerrors.Is(err, errUsage):
		return exitConfig
	default:
		return exitRuntime
	}
}
