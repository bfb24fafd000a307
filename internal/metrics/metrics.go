// Package metrics содержит Prometheus-метрики сервиса cygree.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics хранит коллекторы сервиса в собственном реестре.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	rewardClaims *prometheus.CounterVec
	recycledKg   prometheus.Counter
}

// New создаёт и регистрирует коллекторы.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cygree",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cygree",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cygree",
			Subsystem: "collections",
			Name:      "transitions_total",
			Help:      "Collection request status transitions by target status.",
		}, []string{"status"}),
		rewardClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cygree",
			Subsystem: "rewards",
			Name:      "claims_total",
			Help:      "Reward claim attempts by result.",
		}, []string{"result"}),
		recycledKg: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cygree",
			Subsystem: "collections",
			Name:      "recycled_kilograms_total",
			Help:      "Plastic mass collected, in kilograms.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.transitions,
		m.rewardClaims,
		m.recycledKg,
	)

	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		// ответ сжимает общий gzip middleware
		Registry:           m.registry,
		DisableCompression: true,
	})
}

// Registry возвращает реестр коллекторов.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest учитывает обработанный HTTP-запрос.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Transition учитывает переход заявки в статус status.
func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// Recycled учитывает собранную массу.
func (m *Metrics) Recycled(kg float64) {
	if m == nil {
		return
	}
	m.recycledKg.Add(kg)
}

// RewardClaim учитывает попытку получить награду.
func (m *Metrics) RewardClaim(result string) {
	if m == nil {
		return
	}
	m.rewardClaims.WithLabelValues(result).Inc()
}
