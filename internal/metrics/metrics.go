package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "near_transfer"

// Recorder keeps per-process counters. A short-lived CLI has nothing to
// scrape it, so the registry is pushed to a Pushgateway on exit when configured.
type Recorder struct {
	registry    *prometheus.Registry
	transfers   *prometheus.CounterVec
	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfers attempted, by asset kind and outcome.",
		}, []string{"kind", "status"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests sent to the NEAR node.",
		}, []string{"method", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "JSON-RPC round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	r.registry.MustRegister(r.transfers, r.rpcRequests, r.rpcDuration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveRPC(method string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.rpcRequests.WithLabelValues(method, outcome).Inc()
	r.rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveTransfer(kind, status string) {
	r.transfers.WithLabelValues(kind, status).Inc()
}

// Push sends the registry to a Pushgateway. An empty url is a no-op.
func (r *Recorder) Push(url, job string) error {
	if url == "" {
		return nil
	}
	if job == "" {
		job = namespace
	}
	if err := push.New(url, job).Gatherer(r.registry).Push(); err != nil {
		return errors.Wrapf(err, "push metrics to %s", url)
	}
	return nil
}
