//go:build !windows

package tooling

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"period-tracker/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCompiler writes an executable script to the path following -o, or fails while broken exists.
const fakeCompiler = `#!/bin/sh
if [ -f broken ]; then
  echo "main.go:3:1: syntax error" >&2
  exit 1
fi
printf '#!/bin/sh\necho built\n' > "$2"
chmod +x "$2"
`

func newBuildFixture(t *testing.T, command string) (*BuildStep, string, *bytes.Buffer) {
	t.Helper()
	bin := t.TempDir()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "fakecc"), []byte(fakeCompiler), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	stderr := &bytes.Buffer{}
	step, err := NewBuildStep(slog.Default(), command, src, &bytes.Buffer{}, stderr)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, step.Close()) })
	return step, src, stderr
}

func TestBuildStep_ProducesFreshBinaries(t *testing.T) {
	req := require.New(t)
	step, _, _ := newBuildFixture(t, "fakecc -o {bin} ./cmd/tracker")

	// When building twice
	first, err := step.Build(context.Background())
	req.NoError(err)
	second, err := step.Build(context.Background())
	req.NoError(err)

	// Then each build has its own executable
	req.NotEqual(first, second)
	for _, path := range []string{first, second} {
		info, err := os.Stat(path)
		req.NoError(err)
		req.NotZero(info.Mode() & 0o111)
	}

	// And Close removes them
	req.NoError(step.Close())
	_, err = os.Stat(first)
	req.True(os.IsNotExist(err))
}

func TestBuildStep_Failure(t *testing.T) {
	req := require.New(t)
	step, src, stderr := newBuildFixture(t, "fakecc -o {bin} ./cmd/tracker")

	// Given sources that do not compile
	req.NoError(os.WriteFile(filepath.Join(src, "broken"), nil, 0o644))

	_, err := step.Build(context.Background())

	// Then the failure is reported with the compiler output
	req.ErrorIs(err, errors.ErrBuildFailed)
	req.Contains(stderr.String(), "syntax error")
}

func TestBuildStep_WithoutPlaceholder(t *testing.T) {
	req := require.New(t)
	step, _, _ := newBuildFixture(t, "true")

	path, err := step.Build(context.Background())

	req.NoError(err)
	req.Empty(path)
}

func TestBuildStep_Invalid(t *testing.T) {
	req := require.New(t)

	_, err := NewBuildStep(slog.Default(), "  ", ".", nil, nil)
	req.ErrorIs(err, errors.ErrBuildFailed)

	step, err := NewBuildStep(slog.Default(), "no-such-compiler-here build", ".", nil, nil)
	req.NoError(err)
	_, err = step.Build(context.Background())
	req.ErrorIs(err, errors.ErrToolNotFound)
}
