package internal

import (
	"os"
	"path/filepath"
	"period-tracker/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	isolate(t)

	config, err := Load()
	req.NoError(err)
	req.NoError(config.Validate())

	server, err := config.ServerConfig()
	req.NoError(err)
	req.Equal("app.main:app", server.App.String())
	req.Equal("0.0.0.0:8000", server.Address())
	req.True(server.Reload)

	host, err := config.HostConfig()
	req.NoError(err)
	req.Equal([]string{"."}, host.Watch.Dirs)
	req.Equal([]string{"*.go"}, host.Watch.Include)
	req.Equal([]string{".git", "vendor", "node_modules"}, host.Watch.Exclude)
	req.Equal(250*time.Millisecond, host.Watch.Delay)
	req.Equal("go build -o {bin} ./cmd/tracker", host.BuildCommand)
	req.Equal("gofmt", config.Formatter)
	req.Equal("golangci-lint", config.Linter)
}

func TestLoad_Environment(t *testing.T) {
	req := require.New(t)
	isolate(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("RELOAD", "false")
	t.Setenv("RELOAD_DIRS", "api, runtime ,api")
	t.Setenv("RESTART_INTERVAL", "2s")

	config, err := Load()
	req.NoError(err)
	req.NoError(config.Validate())

	req.Equal("127.0.0.1", config.Host)
	req.Equal(9000, config.Port)
	req.False(config.Reload)
	req.Equal([]string{"api", "runtime"}, config.Dirs())
	req.Equal(2*time.Second, config.RestartInterval)
}

func TestLoad_ReloadBuild(t *testing.T) {
	req := require.New(t)
	isolate(t)

	// Given a custom build command
	t.Setenv("RELOAD_BUILD", "go build -tags dev -o {bin} ./cmd/api")
	config, err := Load()
	req.NoError(err)
	host, err := config.HostConfig()
	req.NoError(err)
	req.Equal("go build -tags dev -o {bin} ./cmd/api", host.BuildCommand)

	// Given the build step turned off
	t.Setenv("RELOAD_BUILD", "none")
	config, err = Load()
	req.NoError(err)
	host, err = config.HostConfig()
	req.NoError(err)

	// Then reloads re-exec the running binary
	req.Empty(host.BuildCommand)
}

func TestLoad_DotEnv(t *testing.T) {
	req := require.New(t)
	isolate(t)
	req.NoError(os.WriteFile(filepath.Join(".", ".env"), []byte("PORT=8123\nLOG_LEVEL=DEBUG\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("PORT")
		_ = os.Unsetenv("LOG_LEVEL")
	})

	config, err := Load()
	req.NoError(err)
	req.Equal(8123, config.Port)
	req.Equal("DEBUG", config.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	isolate(t)
	valid, err := Load()
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"bad host", func(c *Config) { c.Host = "not a host!" }},
		{"bad log level", func(c *Config) { c.LogLevel = "LOUD" }},
		{"zero delay", func(c *Config) { c.ReloadDelay = 0 }},
		{"bad gin mode", func(c *Config) { c.GinMode = "prod" }},
		{"no watch dir", func(c *Config) { c.ReloadDirs = " , " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid
			tc.mutate(&config)
			require.ErrorIs(t, config.Validate(), errors.ErrInvalidConfig)
		})
	}

	t.Run("bad app reference", func(t *testing.T) {
		config := valid
		config.App = "app.main"
		require.ErrorIs(t, config.Validate(), errors.ErrInvalidAppRef)
	})
}
