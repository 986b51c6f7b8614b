// Package metrics holds the Prometheus collectors for the request pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dashboard"

// Pipeline groups the request pipeline counters. A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	Requests     *prometheus.CounterVec
	Injections   *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec
}

// NewPipeline creates the pipeline counters and registers them with reg when reg is non-nil.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Backend requests dispatched by the pipeline, by tenant, route category and status.",
		}, []string{"tenant", "category", "status"}),
		Injections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_injections_total",
			Help:      "Requests that had stored credentials merged into them.",
		}, []string{"tenant"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Authorization failures observed, by tenant and handling outcome.",
		}, []string{"tenant", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(p.Requests, p.Injections, p.AuthFailures)
	}
	return p
}

func (p *Pipeline) ObserveRequest(tenant, category, status string) {
	if p == nil {
		return
	}
	p.Requests.WithLabelValues(tenant, category, status).Inc()
}

func (p *Pipeline) ObserveInjection(tenant string) {
	if p == nil {
		return
	}
	p.Injections.WithLabelValues(tenant).Inc()
}

func (p *Pipeline) ObserveAuthFailure(tenant, outcome string) {
	if p == nil {
		return
	}
	p.AuthFailures.WithLabelValues(tenant, outcome).Inc()
}

// Handler exposes the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
