package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"period-tracker/errors"
)

// AppRef points at an application object exported by a module, written
// as "<module>:<attribute>" (e.g. "app.main:app").
type AppRef struct {
	Module    string
	Attribute string
}

func (r AppRef) String() string {
	return r.Module + ":" + r.Attribute
}

// ParseAppRef splits a "<module>:<attribute>" reference.
func ParseAppRef(raw string) (AppRef, error) {
	module, attribute, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found || module == "" || attribute == "" || strings.Contains(attribute, ":") {
		return AppRef{}, fmt.Errorf("%w: %q", errors.ErrInvalidAppRef, raw)
	}
	return AppRef{Module: module, Attribute: attribute}, nil
}

// ServerConfig is created once at process start and never mutated.
type ServerConfig struct {
	App    AppRef
	Host   string
	Port   int
	Reload bool
}

func NewServerConfig(app AppRef, host string, port int, reload bool) ServerConfig {
	return ServerConfig{
		App:    app,
		Host:   host,
		Port:   port,
		Reload: reload,
	}
}

// Address renders host:port, bracketing IPv6 literals.
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL is the address an operator would open in a browser.
func (c ServerConfig) URL() string {
	return "http://" + c.Address()
}
