package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rbright/minerbridge/internal/minerapi"
)

// Command outcomes recorded on the duration histogram.
const (
	outcomeOK              = "ok"
	outcomeDaemonError     = "daemon_error"
	outcomeConnectionError = "connection_error"
	outcomeTimeout         = "timeout"
	outcomeCodecError      = "codec_error"
	outcomeError           = "error"
)

type metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	commands    *prometheus.HistogramVec
	rateLimited prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerbridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "code"}),
		commands: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "minerbridge",
			Subsystem: "miner",
			Name:      "command_duration_seconds",
			Help:      "Miner API round trip latency, by command and outcome.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"command", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "minerbridge",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "HTTP requests rejected by the per-client rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.commands,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *metrics) observeCommand(command string, started time.Time, status minerapi.Status, err error) {
	m.commands.WithLabelValues(command, outcome(status, err)).Observe(time.Since(started).Seconds())
}

func outcome(status minerapi.Status, err error) string {
	var (
		connErr    *minerapi.ConnectionError
		timeoutErr *minerapi.TimeoutError
		codecErr   *minerapi.CodecError
	)
	switch {
	case err == nil && status.Failed():
		return outcomeDaemonError
	case err == nil:
		return outcomeOK
	case errors.As(err, &timeoutErr):
		return outcomeTimeout
	case errors.As(err, &connErr):
		return outcomeConnectionError
	case errors.As(err, &codecErr):
		return outcomeCodecError
	default:
		return outcomeError
	}
}

// instrumentedAPI records a duration sample for every miner call.
type instrumentedAPI struct {
	next    MinerAPI
	metrics *metrics
}

var _ MinerAPI = instrumentedAPI{}

func (a instrumentedAPI) Summary(ctx context.Context) (minerapi.SummaryResult, error) {
	started := time.Now()
	result, err := a.next.Summary(ctx)
	a.metrics.observeCommand("summary", started, result.Status, err)
	return result, err
}

func (a instrumentedAPI) GPU(ctx context.Context, index int) (minerapi.GPUResult, error) {
	started := time.Now()
	result, err := a.next.GPU(ctx, index)
	a.metrics.observeCommand("gpu", started, result.Status, err)
	return result, err
}

func (a instrumentedAPI) GPUCount(ctx context.Context) (minerapi.CountResult, error) {
	started := time.Now()
	result, err := a.next.GPUCount(ctx)
	a.metrics.observeCommand("gpucount", started, result.Status, err)
	return result, err
}

func (a instrumentedAPI) EnableGPU(ctx context.Context, index int) (minerapi.Status, error) {
	started := time.Now()
	status, err := a.next.EnableGPU(ctx, index)
	a.metrics.observeCommand("gpuenable", started, status, err)
	return status, err
}

func (a instrumentedAPI) DisableGPU(ctx context.Context, index int) (minerapi.Status, error) {
	started := time.Now()
	status, err := a.next.DisableGPU(ctx, index)
	a.metrics.observeCommand("gpudisable", started, status, err)
	return status, err
}
