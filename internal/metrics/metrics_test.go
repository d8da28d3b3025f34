package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRunCounters(t *testing.T) {
	run := NewRun("gauges")
	run.Calls.WithLabelValues("ok").Add(3)
	run.Calls.WithLabelValues("failed").Inc()
	run.GaugesMatched.Set(2)

	require.Equal(t, 3.0, testutil.ToFloat64(run.Calls.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(run.Calls.WithLabelValues("failed")))
	require.Equal(t, 2.0, testutil.ToFloat64(run.GaugesMatched))

	run.Succeeded()
	require.Greater(t, testutil.ToFloat64(run.LastSuccess), 0.0)

	count, err := testutil.GatherAndCount(run.Registry(), "gaugescope_multicall_calls_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRunsUsePrivateRegistries(t *testing.T) {
	first := NewRun("gauges")
	second := NewRun("lockers")
	first.RecordsWritten.Set(5)

	count, err := testutil.GatherAndCount(second.Registry(), "gaugescope_records_written")
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Zero(t, testutil.ToFloat64(second.RecordsWritten))
}

func TestPush(t *testing.T) {
	var hits atomic.Int32
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		path.Store(r.Method + " " + r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	run := NewRun("gauges")
	run.Push(server.URL, nil)

	require.Equal(t, int32(1), hits.Load())
	require.Equal(t, "PUT /metrics/job/gauges", path.Load())
}

func TestPushDisabled(t *testing.T) {
	run := NewRun("gauges")
	run.Push("", nil)
}
