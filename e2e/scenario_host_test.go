//go:build e2e

package e2e

import (
	"encoding/json"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testHostSuite struct {
	BaseHostSuite
}

func TestHostSuite(t *testing.T) {
	suite.Run(t, &testHostSuite{})
}

func (s *testHostSuite) TestServesWithoutReload() {
	port := s.FreePort()
	tracker := s.Start(s.T().TempDir(), "run", "--no-reload", "--host", s.Config.Host, "--port", strconv.Itoa(port))

	s.Run("Step 1: listener accepts connections", func() {
		s.Step(s.T(), "Waiting for /health")
		s.WaitHealthy(port, tracker)
	})

	s.Run("Step 2: root surface answers", func() {
		resp, err := http.Get(s.URL(port, "/"))
		s.Require().NoError(err)
		defer resp.Body.Close()
		var body map[string]string
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
		s.Equal("SimplePeriodTracker API", body["message"])
		s.Equal("1.0.0", body["version"])
	})

	s.Run("Step 3: termination signal exits cleanly", func() {
		s.Require().NoError(tracker.cmd.Process.Signal(syscall.SIGTERM))
		s.Equal(0, s.Wait(tracker, 10*time.Second))
	})
}

func (s *testHostSuite) TestUnresolvableApplication() {
	port := s.FreePort()
	tracker := s.Start(s.T().TempDir(), "run", "--app", "app.missing:app", "--host", s.Config.Host, "--port", strconv.Itoa(port))

	s.NotEqual(0, s.Wait(tracker, 10*time.Second))
	s.Contains(tracker.output.String(), "could not import module")

	// No listener left behind
	l, err := net.Listen("tcp", net.JoinHostPort(s.Config.Host, strconv.Itoa(port)))
	s.Require().NoError(err)
	s.Require().NoError(l.Close())
}

func (s *testHostSuite) TestPortAlreadyBound() {
	taken, err := net.Listen("tcp", net.JoinHostPort(s.Config.Host, "0"))
	s.Require().NoError(err)
	defer taken.Close()
	port := taken.Addr().(*net.TCPAddr).Port

	tracker := s.Start(s.T().TempDir(), "run", "--host", s.Config.Host, "--port", strconv.Itoa(port))

	s.NotEqual(0, s.Wait(tracker, 10*time.Second))
	s.Contains(tracker.output.String(), "address already in use")
}

func (s *testHostSuite) TestReloadOnChange() {
	dir := s.T().TempDir()
	source := filepath.Join(dir, "main.go")
	s.Require().NoError(os.WriteFile(source, []byte("package main\n"), 0o644))

	port := s.FreePort()
	tracker := s.Start(dir, "run", "--host", s.Config.Host, "--port", strconv.Itoa(port), "--reload-dir", dir, "--reload-build", "none")
	s.WaitHealthy(port, tracker)
	serving := func() int { return strings.Count(tracker.output.String(), "[SERVING]") }
	s.Require().Equal(1, serving())

	s.Run("Step 1: one save triggers exactly one restart", func() {
		s.Step(s.T(), "Touching main.go")
		s.Require().NoError(os.WriteFile(source, []byte("package main\n\nfunc main() {}\n"), 0o644))
		s.Require().Eventually(func() bool { return serving() == 2 }, 10*time.Second, 50*time.Millisecond, tracker.output.String())
		time.Sleep(time.Second)
		s.Equal(2, serving(), tracker.output.String())
		s.Equal(1, strings.Count(tracker.output.String(), "[RESTARTING]"))
	})

	s.Run("Step 2: the new worker serves on the same port", func() {
		s.WaitHealthy(port, tracker)
	})

	s.Run("Step 3: termination stops watcher and worker", func() {
		s.Require().NoError(tracker.cmd.Process.Signal(syscall.SIGTERM))
		s.Equal(0, s.Wait(tracker, 15*time.Second))
		s.Contains(tracker.output.String(), "[STOPPED]")
	})
}

func (s *testHostSuite) TestReloadServesEditedSources() {
	dir := s.copyModule()
	port := s.FreePort()
	tracker := s.Start(dir, "run", "--host", s.Config.Host, "--port", strconv.Itoa(port), "--reload-dir", "api")
	s.WaitHealthy(port, tracker)
	serving := func() int { return strings.Count(tracker.output.String(), "[SERVING]") }
	message := func() string {
		resp, err := http.Get(s.URL(port, "/"))
		s.Require().NoError(err)
		defer resp.Body.Close()
		var body map[string]string
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
		return body["message"]
	}
	s.Require().Equal("SimplePeriodTracker API", message())

	s.Run("Step 1: editing the served payload rebuilds the worker", func() {
		s.Step(s.T(), "Editing api/router.go")
		router := filepath.Join(dir, "api", "router.go")
		source, err := os.ReadFile(router)
		s.Require().NoError(err)
		edited := strings.Replace(string(source), `"SimplePeriodTracker API"`, `"Edited API"`, 1)
		s.Require().NotEqual(string(source), edited)
		s.Require().NoError(os.WriteFile(router, []byte(edited), 0o644))
		s.Require().Eventually(func() bool { return serving() == 2 }, 2*time.Minute, 100*time.Millisecond, tracker.output.String())
	})

	s.Run("Step 2: the new worker serves the edited code", func() {
		s.WaitHealthy(port, tracker)
		s.Equal("Edited API", message())
	})

	s.Run("Step 3: a broken edit keeps the current worker", func() {
		router := filepath.Join(dir, "api", "router.go")
		s.Require().NoError(os.WriteFile(router, []byte("package api\n\nfunc broken( {\n"), 0o644))
		s.Require().Eventually(func() bool {
			return strings.Contains(tracker.output.String(), "Build failed")
		}, 2*time.Minute, 100*time.Millisecond, tracker.output.String())
		s.Equal(2, serving())
		s.Equal("Edited API", message())
	})
}

// copyModule copies the tracker sources to a scratch directory the test may edit.
func (s *testHostSuite) copyModule() string {
	root, err := filepath.Abs("..")
	s.Require().NoError(err)
	dir := s.T().TempDir()
	skipped := map[string]bool{".git": true, "_examples": true, "e2e": true}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipped[d.Name()] && rel != "." {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dir, rel), 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, rel), content, 0o644)
	})
	s.Require().NoError(err)
	return dir
}
