package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	server := NewServer(":19999")

	assert.NotNil(t, server)
	assert.NotNil(t, server.server)
	assert.Equal(t, ":19999", server.server.Addr)
}

func TestServerStartAndShutdown(t *testing.T) {
	server := NewServer(":19998")

	server.Start()

	// Give the server a moment to bind.
	time.Sleep(100 * time.Millisecond)
	assert.NoError(t, server.Err())

	resp, err := http.Get("http://localhost:19998/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))

	time.Sleep(100 * time.Millisecond)
	_, err = http.Get("http://localhost:19998/metrics")
	assert.Error(t, err)
}

func TestServerServesRegisteredMetrics(t *testing.T) {
	// Touch a counter so the scrape carries at least one series.
	DispatchesTotal.WithLabelValues("server-test", "ok").Inc()

	server := NewServer(":19997")
	server.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19997/metrics")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ballast_dispatches_total")
}

func TestServerErrReturnsStartupErrors(t *testing.T) {
	first := NewServer(":19996")
	first.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = first.Shutdown(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	// Same port again must fail to bind.
	second := NewServer(":19996")
	second.Start()
	time.Sleep(100 * time.Millisecond)

	assert.Error(t, second.Err())
}
