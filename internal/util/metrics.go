package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Latency of requests to the FashionStock backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Total number of requests to the FashionStock backend",
	}, []string{"endpoint", "status"})

	FallbackServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fallback_snapshots_served_total",
		Help: "Total number of cached or mock snapshots served instead of live data",
	}, []string{"source", "kind"})

	StaleResponsesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_stale_responses_discarded_total",
		Help: "Total number of report responses superseded by a newer request",
	}, []string{"kind"})

	DashboardRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_refresh_total",
		Help: "Dashboard refreshes by outcome",
	}, []string{"outcome"})

	DashboardRefreshLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_refresh_latency_seconds",
		Help:    "Latency of a full dashboard refresh",
		Buckets: prometheus.DefBuckets,
	})

	PollerTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_poller_ticks_skipped_total",
		Help: "Poller ticks skipped because the previous refresh was still running",
	})

	CartRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_rejections_total",
		Help: "Cart operations rejected by reason",
	}, []string{"reason"})

	SalesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Total number of point-of-sale checkouts confirmed by the backend",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of point-of-sale checkouts that failed",
	}, []string{"reason"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Domain events published by type and outcome",
	}, []string{"type", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
