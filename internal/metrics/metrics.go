package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const namespace = "gaugescope"

// Run collects the metrics of one job run on a private registry.
type Run struct {
	job      string
	registry *prometheus.Registry
	started  time.Time

	Skipped         prometheus.Gauge
	Calls           *prometheus.CounterVec
	GaugesMatched   prometheus.Gauge
	GaugesUnmatched prometheus.Gauge
	HistoryWrites   prometheus.Counter
	RecordsWritten  prometheus.Gauge
	Duration        prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewRun registers the run metrics for job.
func NewRun(job string) *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"job_name": job}

	return &Run{
		job:      job,
		registry: reg,
		started:  time.Now(),
		Skipped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_skipped",
			Help:        "1 when the last run was skipped for lack of a live RPC endpoint",
			ConstLabels: labels,
		}),
		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "multicall_calls_total",
			Help:        "Batched contract calls by outcome",
			ConstLabels: labels,
		}, []string{"status"}),
		GaugesMatched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "gauges_matched",
			Help:        "Gauges with pool metadata in the last run",
			ConstLabels: labels,
		}),
		GaugesUnmatched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "gauges_unmatched",
			Help:        "Gauges skipped for lack of pool metadata in the last run",
			ConstLabels: labels,
		}),
		HistoryWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "history_writes_total",
			Help:        "Per-gauge history files written",
			ConstLabels: labels,
		}),
		RecordsWritten: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "records_written",
			Help:        "Records in the output file of the last run",
			ConstLabels: labels,
		}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall time of the last run",
			ConstLabels: labels,
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run",
			ConstLabels: labels,
		}),
	}
}

// Registry exposes the run's registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// Succeeded stamps duration and success time.
func (r *Run) Succeeded() {
	r.Duration.Set(time.Since(r.started).Seconds())
	r.LastSuccess.SetToCurrentTime()
}

// Push sends the run's metrics to a Pushgateway. An empty url is a no-op.
// Push failures are logged and never fail the job.
func (r *Run) Push(url string, logger *zap.Logger) {
	if url == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := push.New(url, r.job).Gatherer(r.registry).Push(); err != nil {
		logger.Warn("push metrics failed", zap.String("url", url), zap.Error(fmt.Errorf("push %s: %w", r.job, err)))
		return
	}
	logger.Debug("metrics pushed", zap.String("url", url))
}
