package internal

import (
	"fmt"
	"log/slog"
	"period-tracker/domain"
	"period-tracker/errors"
	"period-tracker/runtime"
	"period-tracker/runtime/workers"
	"period-tracker/tooling"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

const DefaultApp = "app.main:app"

// List defaults hold commas, which the env tag syntax cannot carry.
const (
	DefaultReloadDirs    = "."
	DefaultReloadInclude = "*.go"
	DefaultReloadExclude = ".git,vendor,node_modules"
)

// DefaultReloadBuild compiles the served binary from the working directory before each reload.
const DefaultReloadBuild = "go build -o " + tooling.OutputPlaceholder + " ./cmd/tracker"

// NoReloadBuild turns the build step off: reloads re-exec the running binary.
const NoReloadBuild = "none"

var validate = validator.New()

type Config struct {
	App             string        `env:"APP,default=app.main:app" validate:"required"`
	Host            string        `env:"HOST,default=0.0.0.0" validate:"required,ip|hostname"`
	Port            int           `env:"PORT,default=8000" validate:"gte=0,lte=65535"`
	Reload          bool          `env:"RELOAD,default=true"`
	ReloadDirs      string        `env:"RELOAD_DIRS"`
	ReloadInclude   string        `env:"RELOAD_INCLUDE"`
	ReloadExclude   string        `env:"RELOAD_EXCLUDE"`
	ReloadBuild     string        `env:"RELOAD_BUILD"`
	ReloadDelay     time.Duration `env:"RELOAD_DELAY,default=250ms" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	BootTimeout     time.Duration `env:"BOOT_TIMEOUT,default=30s" validate:"gt=0"`
	StopTimeout     time.Duration `env:"STOP_TIMEOUT,default=10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=5s" validate:"gt=0"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	SourceDir       string        `env:"SOURCE_DIR,default=." validate:"required"`
	Formatter       string        `env:"FORMATTER,default=gofmt" validate:"required"`
	Linter          string        `env:"LINTER,default=golangci-lint" validate:"required"`
	GinMode         string        `env:"GIN_MODE,default=debug" validate:"oneof=debug release test"`
}

// Load reads an optional .env file then the process environment.
// Variables already set in the environment win over the .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	config.ReloadDirs = lo.Ternary(config.ReloadDirs == "", DefaultReloadDirs, config.ReloadDirs)
	config.ReloadInclude = lo.Ternary(config.ReloadInclude == "", DefaultReloadInclude, config.ReloadInclude)
	config.ReloadExclude = lo.Ternary(config.ReloadExclude == "", DefaultReloadExclude, config.ReloadExclude)
	config.ReloadBuild = lo.Ternary(strings.TrimSpace(config.ReloadBuild) == "", DefaultReloadBuild, config.ReloadBuild)
	return config, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if _, err := domain.ParseAppRef(c.App); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	if len(c.Dirs()) == 0 {
		return fmt.Errorf("%w: RELOAD_DIRS is empty", errors.ErrInvalidConfig)
	}
	return nil
}

func (c Config) Dirs() []string {
	return SplitList(c.ReloadDirs)
}

// SplitList parses a comma separated variable, dropping blanks and duplicates.
func SplitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Uniq(lo.Compact(items))
}

// BuildCommand is the reload build step, empty when disabled.
func (c Config) BuildCommand() string {
	command := strings.TrimSpace(c.ReloadBuild)
	if strings.EqualFold(command, NoReloadBuild) {
		return ""
	}
	return command
}

func (c Config) Logger() *slog.Logger {
	return logs.GetLoggerFromString(strings.ToUpper(c.LogLevel))
}

func (c Config) ServerConfig() (domain.ServerConfig, error) {
	app, err := domain.ParseAppRef(c.App)
	if err != nil {
		return domain.ServerConfig{}, err
	}
	return domain.NewServerConfig(app, c.Host, c.Port, c.Reload), nil
}

func (c Config) HostConfig() (runtime.HostConfig, error) {
	server, err := c.ServerConfig()
	if err != nil {
		return runtime.HostConfig{}, err
	}
	return runtime.HostConfig{
		Server: server,
		Watch: workers.WatchConfig{
			Dirs:    c.Dirs(),
			Include: SplitList(c.ReloadInclude),
			Exclude: SplitList(c.ReloadExclude),
			Delay:   c.ReloadDelay,
		},
		RestartInterval: c.RestartInterval,
		BootTimeout:     c.BootTimeout,
		StopTimeout:     c.StopTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		MetricInterval:  c.MetricInterval,
		BuildCommand:    c.BuildCommand(),
	}, nil
}
