package metrics_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/galaxy-morphology/galfitkit/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestListenAndServe(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		addr string

		wantErr bool
	}{
		"Free port on loopback": {addr: "127.0.0.1:0"},

		"Error on bad port": {addr: "127.0.0.1:-1", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reg := prometheus.NewRegistry()
			col, err := metrics.NewWatchCollectors(reg)
			require.NoError(t, err, "Setup: collectors should register")
			col.Observe(metrics.OutcomeSummarized, 20*time.Millisecond)

			server := metrics.New(newConfig(tc.addr), reg)
			require.Empty(t, server.Addr(), "Addr should be empty before ListenAndServe")

			errCh := listenAndServeAsync(t, server)
			defer server.Close()

			select {
			case err := <-errCh:
				if tc.wantErr {
					require.Error(t, err, "ListenAndServe should fail")
					require.Empty(t, server.Addr(), "Addr should stay empty when ListenAndServe fails")
					return
				}
				require.Failf(t, "ListenAndServe returned unexpectedly", "Got possible error: %v", err)
			case <-time.After(500 * time.Millisecond):
				require.False(t, tc.wantErr, "ListenAndServe should have returned an error")
			}

			status, body := get(t, server)
			require.Equal(t, http.StatusOK, status, "Metrics endpoint should return 200 OK")
			require.Contains(t, body, `galfitkit_watch_files_total{outcome="summarized"} 1`, "Metrics endpoint should expose the registry")
		})
	}
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	server := metrics.New(newConfig("127.0.0.1:0"), prometheus.NewRegistry())
	errCh := listenAndServeAsync(t, server)
	defer server.Close()

	select {
	case err := <-errCh:
		require.Failf(t, "ListenAndServe returned unexpectedly", "Got possible error: %v", err)
	case <-time.After(500 * time.Millisecond):
	}

	status, _ := get(t, server)
	require.Equal(t, http.StatusOK, status, "Metrics endpoint should return 200 OK")

	require.NoError(t, server.Shutdown(t.Context()), "Shutdown should succeed")
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, http.ErrServerClosed, "ListenAndServe should return ErrServerClosed after shutdown")
	case <-time.After(time.Second):
		require.Fail(t, "ListenAndServe should return after shutdown")
	}
}

func TestWatchCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	col, err := metrics.NewWatchCollectors(reg)
	require.NoError(t, err, "NewWatchCollectors should not return an error")

	col.Observe(metrics.OutcomeSummarized, time.Millisecond)
	col.Observe(metrics.OutcomeSummarized, 2*time.Millisecond)
	col.Observe(metrics.OutcomeSkipped, time.Millisecond)

	want := `
# HELP galfitkit_watch_files_total Output images handled by the watcher, by outcome.
# TYPE galfitkit_watch_files_total counter
galfitkit_watch_files_total{outcome="failed"} 0
galfitkit_watch_files_total{outcome="skipped"} 1
galfitkit_watch_files_total{outcome="summarized"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "galfitkit_watch_files_total"),
		"Counters should be kept per outcome")
	n, err := testutil.GatherAndCount(reg, "galfitkit_watch_handle_duration_seconds")
	require.NoError(t, err, "GatherAndCount should not return an error")
	require.Equal(t, 1, n, "Handling durations should be registered")

	_, err = metrics.NewWatchCollectors(reg)
	require.Error(t, err, "Registering the collectors twice should fail")
}

func newConfig(addr string) metrics.Config {
	return metrics.Config{Addr: addr, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
}

func listenAndServeAsync(t *testing.T, server *metrics.Server) chan error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		errCh <- server.ListenAndServe()
	}()
	return errCh
}

func get(t *testing.T, server *metrics.Server) (int, string) {
	t.Helper()

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err, "Request to the metrics endpoint should succeed")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Reading the metrics response should succeed")
	return resp.StatusCode, string(body)
}
