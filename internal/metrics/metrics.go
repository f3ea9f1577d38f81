// Package metrics экспортирует Prometheus метрики run.
//
// Metrics реализует runner.Observer: подпишите его на runner,
// а /metrics отдавайте через promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/stairs/internal/runner"
)

// Результаты run для label "result".
const (
	ResultDone  = "done"
	ResultError = "error"
)

// Metrics — набор метрик run.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	StepsTotal  *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
// nil reg — prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stairs_runs_total",
			Help: "Finished runs by stairs title and result",
		}, []string{"title", "result"}),

		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stairs_steps_total",
			Help: "Started steps by stairs title and step name",
		}, []string{"title", "step"}),

		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stairs_run_duration_seconds",
			Help:    "Run duration from Run call to done or error",
			Buckets: prometheus.DefBuckets,
		}, []string{"title", "result"}),
	}

	reg.MustRegister(m.RunsTotal, m.StepsTotal, m.RunDuration)
	return m
}

// OnStep реализует runner.Observer.
func (m *Metrics) OnStep(ev runner.StepEvent) {
	m.StepsTotal.WithLabelValues(ev.Title, ev.Name).Inc()
}

// OnDone реализует runner.Observer.
func (m *Metrics) OnDone(ev runner.DoneEvent) {
	m.RunsTotal.WithLabelValues(ev.Title, ResultDone).Inc()
	m.RunDuration.WithLabelValues(ev.Title, ResultDone).Observe(ev.Elapsed.Seconds())
}

// OnError реализует runner.Observer.
func (m *Metrics) OnError(ev runner.ErrorEvent) {
	m.RunsTotal.WithLabelValues(ev.Title, ResultError).Inc()
	m.RunDuration.WithLabelValues(ev.Title, ResultError).Observe(ev.Elapsed.Seconds())
}
