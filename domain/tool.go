package domain

import "fmt"

type ToolMode string

const (
	ModeFix   ToolMode = "fix"
	ModeCheck ToolMode = "check"
)

// Tool describes an external style checker. FailOnOutput marks tools such as
// gofmt -l that exit zero but list offending files on stdout.
type Tool struct {
	Name         string
	Bin          string
	FixArgs      []string
	CheckArgs    []string
	FailOnOutput bool
}

// Args returns the arguments for a mode. Tools without a fix mode run their
// check arguments in both modes.
func (t Tool) Args(mode ToolMode) []string {
	if mode == ModeFix && len(t.FixArgs) > 0 {
		return t.FixArgs
	}
	return t.CheckArgs
}

// ToolError carries the exit code of a failed tool so the CLI can mirror it.
type ToolError struct {
	Tool     string
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d: %v", e.Tool, e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
