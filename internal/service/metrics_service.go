package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// planner.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	planRuns      *prometheus.CounterVec
	planDuration  prometheus.Observer
	blocksPlanned prometheus.Histogram
	atRiskTasks   prometheus.Gauge
	missedMeals   prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	planRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_plan_runs_total",
		Help: "Planning runs by outcome",
	}, []string{"outcome"})

	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_plan_duration_seconds",
		Help:    "Wall time of one planning run",
		Buckets: prometheus.DefBuckets,
	})

	blocksPlanned := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_blocks_planned",
		Help:    "Blocks produced per planning run",
		Buckets: []float64{10, 25, 50, 100, 200, 400},
	})

	atRiskTasks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_at_risk_tasks",
		Help: "At-risk tasks reported by the most recent planning run",
	})

	missedMeals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_missed_meals_total",
		Help: "Meal windows that found no free slot",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache lookups served from Redis",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache lookups that fell through to the database",
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		planRuns, planDuration, blocksPlanned, atRiskTasks, missedMeals,
		cacheHits, cacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		planRuns:        planRuns,
		planDuration:    planDuration,
		blocksPlanned:   blocksPlanned,
		atRiskTasks:     atRiskTasks,
		missedMeals:     missedMeals,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return s.handler
}

// RecordRequest observes one HTTP request.
func (s *MetricsService) RecordRequest(method, path, status string, duration time.Duration) {
	if s == nil {
		return
	}
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordPlanRun observes the outcome of one planning run.
func (s *MetricsService) RecordPlanRun(outcome string, duration time.Duration, blocks, atRisk, missedMeals int) {
	if s == nil {
		return
	}
	s.planRuns.WithLabelValues(outcome).Inc()
	s.planDuration.Observe(duration.Seconds())
	if outcome == "success" {
		s.blocksPlanned.Observe(float64(blocks))
		s.atRiskTasks.Set(float64(atRisk))
		s.missedMeals.Add(float64(missedMeals))
	}
}

// RecordCacheLookup tracks read-through cache effectiveness.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if s == nil {
		return
	}
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
