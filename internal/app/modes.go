package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giantswarm/mcpkit/pkg/logging"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// ErrEndpointDisabled is returned by stdio mode when mcp.enabled is false.
// Stdio has nothing else to serve.
var ErrEndpointDisabled = errors.New("mcp endpoint is disabled (mcp.enabled: false), nothing to serve over stdio")

// NewHTTPHandler builds the mux served in HTTP mode: the MCP routes when
// enabled and the Prometheus endpoint when a metrics path is set.
func NewHTTPHandler(services *Services) http.Handler {
	mux := http.NewServeMux()
	if services.Config.MCP.Enabled {
		services.Dispatcher.Mount(mux)
	} else {
		logging.Info("HTTP", "MCP endpoint disabled")
	}
	if path := services.Config.Server.MetricsPath; path != "" {
		mux.Handle(path, promhttp.Handler())
	}
	return mux
}

// runHTTPMode serves the MCP routes over streamable HTTP until ctx is
// cancelled.
//
// Behavior:
//   - Starts the cache sweeper when the store needs sweeping
//   - Notifies systemd once the listener is bound (READY=1)
//   - On cancellation notifies STOPPING=1 and shuts the server down
//     gracefully
func runHTTPMode(ctx context.Context, services *Services) error {
	cfg := services.Config.Server
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           NewHTTPHandler(services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if services.Cache != nil && services.Config.Cache.SweepSchedule != "" {
		sweeper, err := NewSweeper(services.Cache, services.Config.Cache.SweepSchedule)
		if err != nil {
			_ = listener.Close()
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logging.Info("HTTP", "Serving %s on http://%s%s", services.Config.MCP.Name, listener.Addr(), services.Config.MCP.Route)
	notify(daemon.SdNotifyReady)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}

	logging.Info("HTTP", "Shutting down")
	notify(daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return <-errCh
}

// runStdioMode serves the default route over standard I/O. Handler
// middleware does not apply in this mode.
func runStdioMode(ctx context.Context, services *Services) error {
	if !services.Config.MCP.Enabled {
		return ErrEndpointDisabled
	}
	logging.Info("Stdio", "Serving %s over stdio", services.Config.MCP.Name)
	notify(daemon.SdNotifyReady)
	defer notify(daemon.SdNotifyStopping)

	err := services.Dispatcher.ServeStdio(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// notify sends state to systemd. It is a no-op outside a notify unit.
func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Systemd", "Failed to notify %s: %v", state, err)
		return
	}
	if sent {
		logging.Debug("Systemd", "Notified %s", state)
	}
}
