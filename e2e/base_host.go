//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHostSuite struct {
	suite.Suite
	Config Config
	binary string
}

// SetupSuite loads the environment configuration and builds the binary when needed.
func (s *BaseHostSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.binary = s.Config.Binary
	if s.binary == "" {
		s.binary = filepath.Join(s.T().TempDir(), "tracker")
		build := exec.Command("go", "build", "-o", s.binary, "./cmd/tracker")
		build.Dir = ".."
		out, err := build.CombinedOutput()
		s.Require().NoError(err, string(out))
	}
}

// Step prints a colorized header for a test step.
func (s *BaseHostSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

func (s *BaseHostSuite) FreePort() int {
	l, err := net.Listen("tcp", net.JoinHostPort(s.Config.Host, "0"))
	s.Require().NoError(err)
	port := l.Addr().(*net.TCPAddr).Port
	s.Require().NoError(l.Close())
	return port
}

func (s *BaseHostSuite) URL(port int, path string) string {
	return "http://" + net.JoinHostPort(s.Config.Host, strconv.Itoa(port)) + path
}

// Tracker is a running tracker process with its captured output.
type Tracker struct {
	cmd    *exec.Cmd
	output *syncBuffer
	done   chan struct{}
	err    error
}

func (s *BaseHostSuite) Start(dir string, args ...string) *Tracker {
	cmd := exec.Command(s.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LOG_LEVEL=INFO", "GIN_MODE=release")
	output := &syncBuffer{}
	cmd.Stdout = output
	cmd.Stderr = output
	s.Require().NoError(cmd.Start())

	tracker := &Tracker{cmd: cmd, output: output, done: make(chan struct{})}
	go func() {
		tracker.err = cmd.Wait()
		close(tracker.done)
	}()
	s.T().Cleanup(func() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-tracker.done:
		case <-time.After(15 * time.Second):
			_ = cmd.Process.Kill()
		}
	})
	return tracker
}

// Wait returns the exit code once the process exited.
func (s *BaseHostSuite) Wait(tracker *Tracker, timeout time.Duration) int {
	select {
	case <-tracker.done:
	case <-time.After(timeout):
		s.Require().Fail("tracker did not exit", tracker.output.String())
	}
	return tracker.cmd.ProcessState.ExitCode()
}

// WaitHealthy polls /health until it answers or the startup timeout expires.
func (s *BaseHostSuite) WaitHealthy(port int, tracker *Tracker) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.StartupTimeout)
	defer cancel()
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(port, "/health"), nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		select {
		case <-ctx.Done():
			s.Require().Fail("application never became healthy", tracker.output.String())
		case <-tracker.done:
			s.Require().Fail("tracker exited before becoming healthy", tracker.output.String())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
