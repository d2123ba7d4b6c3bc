package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion service

var (
	// Upstream provider metrics
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridiron_upstream_calls_total",
			Help: "Total number of upstream provider API calls",
		},
		[]string{"provider", "endpoint", "status"},
	)

	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridiron_upstream_call_duration_seconds",
			Help:    "Duration of upstream provider API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridiron_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridiron_store_writes_total",
			Help: "Total number of upserted records by outcome",
		},
		[]string{"entity", "result"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridiron_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridiron_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridiron_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridiron_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridiron_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Refresh metrics
	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridiron_refresh_runs_total",
			Help: "Total number of refresh runs per entity class",
		},
		[]string{"class", "status"},
	)

	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridiron_refresh_duration_seconds",
			Help:    "Duration of refresh runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"class"},
	)

	RefreshUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridiron_refresh_units_total",
			Help: "Refresh units processed by outcome (fresh, fetched, empty, failed)",
		},
		[]string{"class", "outcome"},
	)

	LastSuccessfulRefresh = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridiron_last_successful_refresh_timestamp",
			Help: "Timestamp of the last successful refresh per entity class",
		},
		[]string{"class"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridiron_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridiron_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordUpstreamCall records an upstream API call
func RecordUpstreamCall(provider, endpoint, status string, duration float64) {
	UpstreamCallsTotal.WithLabelValues(provider, endpoint, status).Inc()
	UpstreamCallDuration.WithLabelValues(provider, endpoint).Observe(duration)
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration float64) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordStoreWrites adds upsert outcome counts for an entity
func RecordStoreWrites(entity string, inserted, updated, failed int) {
	StoreWritesTotal.WithLabelValues(entity, "inserted").Add(float64(inserted))
	StoreWritesTotal.WithLabelValues(entity, "updated").Add(float64(updated))
	StoreWritesTotal.WithLabelValues(entity, "failed").Add(float64(failed))
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordRefresh records a refresh run
func RecordRefresh(class, status string, duration float64) {
	RefreshRunsTotal.WithLabelValues(class, status).Inc()
	RefreshDuration.WithLabelValues(class).Observe(duration)

	if status == "success" {
		LastSuccessfulRefresh.WithLabelValues(class).SetToCurrentTime()
	}
}

// RecordRefreshUnits adds processed unit counts for a refresh run
func RecordRefreshUnits(class string, fresh, fetched, empty, failed int) {
	RefreshUnitsTotal.WithLabelValues(class, "fresh").Add(float64(fresh))
	RefreshUnitsTotal.WithLabelValues(class, "fetched").Add(float64(fetched))
	RefreshUnitsTotal.WithLabelValues(class, "empty").Add(float64(empty))
	RefreshUnitsTotal.WithLabelValues(class, "failed").Add(float64(failed))
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
