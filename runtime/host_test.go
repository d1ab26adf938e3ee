package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"period-tracker/contract"
	"period-tracker/domain"
	"period-tracker/errors"
	"period-tracker/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func helloFactory(log *slog.Logger) (http.Handler, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello")
	}), nil
}

func newHostConfig(port int, reload bool) HostConfig {
	app, _ := domain.ParseAppRef("app.main:app")
	return HostConfig{
		Server:          domain.NewServerConfig(app, "127.0.0.1", port, reload),
		ShutdownTimeout: time.Second,
	}
}

func TestBind_AddressInUse(t *testing.T) {
	req := require.New(t)

	// Given a port already bound
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	defer taken.Close()
	port := taken.Addr().(*net.TCPAddr).Port

	// When binding it again
	_, err = Bind(domain.ServerConfig{Host: "127.0.0.1", Port: port})

	// Then the error says so
	req.ErrorIs(err, errors.ErrAddressInUse)
}

func TestBind_InvalidHost(t *testing.T) {
	req := require.New(t)
	_, err := Bind(domain.ServerConfig{Host: "127.0.0.1", Port: 99999})
	req.ErrorIs(err, errors.ErrBindFailed)
}

func TestHost_UnresolvableAppLeavesNoListener(t *testing.T) {
	req := require.New(t)
	t.Setenv(EnvWorker, "")
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	port := freePort(t)
	config := newHostConfig(port, false)

	// Given a reference the registry does not know
	registry.EXPECT().Resolve(config.Server.App).
		Return(nil, fmt.Errorf("%w %q", errors.ErrApplicationNotFound, "app.main")).
		Times(1)

	// When the host starts
	err := NewHost(slog.Default(), registry, config).Start(context.Background())

	// Then it fails and the port is still free
	req.ErrorIs(err, errors.ErrApplicationNotFound)
	l, err := net.Listen("tcp", config.Server.Address())
	req.NoError(err)
	req.NoError(l.Close())
}

func TestHost_FactoryError(t *testing.T) {
	req := require.New(t)
	t.Setenv(EnvWorker, "")
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	config := newHostConfig(freePort(t), false)

	registry.EXPECT().Resolve(config.Server.App).
		Return(contract.AppFactory(func(*slog.Logger) (http.Handler, error) {
			return nil, fmt.Errorf("boom")
		}), nil)

	err := NewHost(slog.Default(), registry, config).Start(context.Background())
	req.ErrorContains(err, "boom")
}

func TestHost_ServesWithoutReload(t *testing.T) {
	req := require.New(t)
	t.Setenv(EnvWorker, "")
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	config := newHostConfig(freePort(t), false)
	registry.EXPECT().Resolve(config.Server.App).Return(contract.AppFactory(helloFactory), nil)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- NewHost(slog.Default(), registry, config).Start(ctx) }()

	// Then the listener accepts connections within a bounded time
	var body string
	req.Eventually(func() bool {
		resp, err := http.Get(config.Server.URL())
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		body = string(raw)
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)
	req.Equal("hello", body)

	// When the termination signal arrives, the host exits cleanly
	cancel()
	select {
	case err := <-result:
		req.NoError(err)
	case <-time.After(3 * time.Second):
		req.Fail("host did not stop")
	}
}

func TestServe_ReadyAndGracefulShutdown(t *testing.T) {
	req := require.New(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	ready := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- Serve(ctx, slog.Default(), listener, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}), time.Second, func() { close(ready) })
	}()

	<-ready
	resp, err := http.Get("http://" + listener.Addr().String())
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusNoContent, resp.StatusCode)

	cancel()
	req.NoError(<-result)
}

func TestInheritedListener_NotAWorker(t *testing.T) {
	req := require.New(t)
	t.Setenv(EnvWorker, "")
	_, err := InheritedListener()
	req.ErrorIs(err, errors.ErrNoInheritedSocket)
}
