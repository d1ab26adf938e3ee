package tooling

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"period-tracker/domain"
	"period-tracker/errors"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Runner invokes external style tools over a source directory.
type Runner struct {
	log    *slog.Logger
	dir    string
	stdout io.Writer
	stderr io.Writer
	tools  map[string]domain.Tool
}

func NewRunner(log *slog.Logger, dir string, stdout, stderr io.Writer) *Runner {
	return &Runner{
		log:    log,
		dir:    dir,
		stdout: stdout,
		stderr: stderr,
		tools:  lo.Assign(knownTools),
	}
}

// WithTool registers or replaces a tool definition.
func (r *Runner) WithTool(tool domain.Tool) *Runner {
	r.tools[tool.Name] = tool
	return r
}

func (r *Runner) Tool(name string) (domain.Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		names := lo.Keys(r.tools)
		sort.Strings(names)
		return domain.Tool{}, fmt.Errorf("%w %q, available: %s", errors.ErrUnknownTool, name, strings.Join(names, ", "))
	}
	return tool, nil
}

// Run executes one tool. Output is streamed as it comes; tools flagged
// FailOnOutput also fail a check when they print anything.
func (r *Runner) Run(ctx context.Context, name string, mode domain.ToolMode) error {
	tool, err := r.Tool(name)
	if err != nil {
		return err
	}
	bin, err := exec.LookPath(tool.Bin)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrToolNotFound, tool.Bin, err)
	}

	var captured bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, tool.Args(mode)...)
	cmd.Dir = r.dir
	cmd.Stdout = io.MultiWriter(r.stdout, &captured)
	cmd.Stderr = r.stderr

	r.log.Debug("Running tool", "tool", tool.Name, "mode", mode, "command", cmd.String())
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if goerrors.As(err, &exitErr) {
			return &domain.ToolError{Tool: tool.Name, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return &domain.ToolError{Tool: tool.Name, ExitCode: 1, Err: err}
	}
	if mode == domain.ModeCheck && tool.FailOnOutput && strings.TrimSpace(captured.String()) != "" {
		return &domain.ToolError{Tool: tool.Name, ExitCode: 1, Err: errors.ErrStyleViolation}
	}
	return nil
}

// Format fixes the tree with the formatter then the linter.
func (r *Runner) Format(ctx context.Context, formatter, linter string) error {
	return r.sequence(ctx, domain.ModeFix, formatter, linter)
}

// Lint checks the tree without modifying it.
func (r *Runner) Lint(ctx context.Context, formatter, linter string) error {
	return r.sequence(ctx, domain.ModeCheck, formatter, linter)
}

// sequence stops at the first failing tool, so the result is the one of the
// last tool that ran.
func (r *Runner) sequence(ctx context.Context, mode domain.ToolMode, names ...string) error {
	for _, name := range names {
		if err := r.Run(ctx, name, mode); err != nil {
			return err
		}
		r.log.Info("Tool succeeded", "tool", name, "mode", mode)
	}
	return nil
}
