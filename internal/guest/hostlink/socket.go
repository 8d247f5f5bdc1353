package hostlink

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/log"
)

const defaultDialTimeout = 15 * time.Second

// socketTransport is a Transport over a socket.io client.
type socketTransport struct {
	io *socket.Socket
}

func (s *socketTransport) On(event string, fn func(args ...any)) {
	s.io.On(types.EventName(event), fn)
}

func (s *socketTransport) Emit(event string, args ...any) {
	s.io.Emit(event, args...)
}

func (s *socketTransport) Close() error {
	s.io.Disconnect()
	return nil
}

// Dial connects to the host described by cfg over a websocket and waits for
// the connection to be acknowledged.
func Dial(ctx context.Context, cfg config.HostConfig) (Transport, error) {
	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host url: %w", err)
	}

	opts := socket.DefaultOptions()
	path := cfg.Path
	if path == "" {
		path = parsedURL.Path
	}
	if path != "" {
		opts.SetPath(path)
	}
	if cfg.InsecureSkipVerify {
		log.Warn(log.CatHost, "skipping TLS certificate verification", "url", cfg.URL)
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402 -- opt-in for local hosts
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		log.Info(log.CatHost, "connected to host", "url", baseURL, "namespace", cfg.Namespace, "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		log.Warn(log.CatHost, "disconnected from host", "reason", fmt.Sprint(reason...))
	})

	log.Debug(log.CatHost, "connecting", "url", baseURL, "path", path)
	io.Connect()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &socketTransport{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}
