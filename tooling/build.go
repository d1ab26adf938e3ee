package tooling

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"period-tracker/errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// OutputPlaceholder is replaced in a build command by the path of the binary to produce.
const OutputPlaceholder = "{bin}"

// BuildStep compiles a fresh worker binary before each reload.
// Every build gets its own output file so a running worker never has its
// executable overwritten.
type BuildStep struct {
	log    *slog.Logger
	args   []string
	dir    string
	stdout io.Writer
	stderr io.Writer

	mu     sync.Mutex
	outDir string
	builds int
}

// NewBuildStep parses command, e.g. "go build -o {bin} ./cmd/tracker", run from dir.
func NewBuildStep(log *slog.Logger, command, dir string, stdout, stderr io.Writer) (*BuildStep, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty build command", errors.ErrBuildFailed)
	}
	return &BuildStep{
		log:    log,
		args:   args,
		dir:    dir,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// Build runs the command and returns the produced binary, or an empty path when
// the command has no output placeholder.
func (b *BuildStep) Build(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bin, err := exec.LookPath(b.args[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", errors.ErrToolNotFound, b.args[0], err)
	}

	output := ""
	if lo.Contains(b.args, OutputPlaceholder) {
		if b.outDir == "" {
			if b.outDir, err = os.MkdirTemp("", "tracker-build-"); err != nil {
				return "", fmt.Errorf("%w: %v", errors.ErrBuildFailed, err)
			}
		}
		output = filepath.Join(b.outDir, "worker-"+strconv.Itoa(b.builds+1))
		if runtime.GOOS == "windows" {
			output += ".exe"
		}
	}
	args := lo.Map(b.args[1:], func(arg string, _ int) string {
		return lo.Ternary(arg == OutputPlaceholder, output, arg)
	})

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = b.dir
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr

	start := time.Now()
	b.log.Info("Building worker", "command", cmd.String())
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", errors.ErrBuildFailed, cmd.String(), err)
	}
	b.builds++
	b.log.Info("Worker built", "binary", output, "duration", time.Since(start).Round(time.Millisecond))
	return output, nil
}

// Close removes every binary produced so far.
func (b *BuildStep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outDir == "" {
		return nil
	}
	err := os.RemoveAll(b.outDir)
	b.outDir = ""
	return err
}
