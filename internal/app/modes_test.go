package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T, configYAML string) *Services {
	t.Helper()
	dir := testProject(t, configYAML, definitions)
	s, err := InitializeServices(context.Background(), loadTestConfig(t, dir))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func ping(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestNewHTTPHandler_ServesMCPAndMetrics(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(newTestServices(t, "")))
	t.Cleanup(srv.Close)

	assert.Equal(t, http.StatusOK, ping(t, srv.URL+"/mcp").StatusCode)
	assert.Equal(t, http.StatusOK, ping(t, srv.URL+"/mcp/admin").StatusCode)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mcpkit_requests_total")
	assert.Contains(t, string(body), "mcpkit_registry_capabilities")
}

func TestNewHTTPHandler_DisabledEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(newTestServices(t, "mcp:\n  enabled: false\nserver:\n  metricsPath: \"\"\n")))
	t.Cleanup(srv.Close)

	assert.Equal(t, http.StatusNotFound, ping(t, srv.URL+"/mcp").StatusCode)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunHTTPMode_ShutsDownOnCancel(t *testing.T) {
	s := newTestServices(t, "server:\n  port: 0\n  host: 127.0.0.1\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runHTTPMode(ctx, s) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runHTTPMode did not return after cancel")
	}
}

func TestRunHTTPMode_ListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = taken.Close() })
	port := taken.Addr().(*net.TCPAddr).Port

	s := newTestServices(t, fmt.Sprintf("server:\n  host: 127.0.0.1\n  port: %d\n", port))
	err = runHTTPMode(context.Background(), s)
	assert.ErrorContains(t, err, "failed to listen")
}

func TestRunStdioMode_DisabledEndpoint(t *testing.T) {
	s := newTestServices(t, "mcp:\n  enabled: false\n")

	err := runStdioMode(context.Background(), s)
	assert.ErrorIs(t, err, ErrEndpointDisabled)
}
