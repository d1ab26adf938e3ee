//go:build e2e

package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_BINARY points to a built tracker binary; empty builds one from ../cmd/tracker
	Binary string `envconfig:"E2E_BINARY"`
	Host   string `envconfig:"E2E_HOST" default:"127.0.0.1"`
	// E2E_STARTUP_TIMEOUT bounds the time a listener may take to accept connections
	StartupTimeout time.Duration `envconfig:"E2E_STARTUP_TIMEOUT" default:"10s"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
