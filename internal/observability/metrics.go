package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts announcement queries answered from the cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_cache_hits_total",
		Help: "Total number of announcement queries answered from the cache",
	})

	// CacheMisses counts announcement queries that fell through to the stores.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_cache_misses_total",
		Help: "Total number of announcement queries that fell through to the stores",
	})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// FetchBatchLatency records end-to-end batch fetch latency.
	FetchBatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "herald_fetch_batch_seconds",
		Help:    "Batch announcement fetch latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// FetchAuthorsOmitted counts authors dropped from a batch under the
	// partial-results policy.
	FetchAuthorsOmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_fetch_authors_omitted_total",
		Help: "Total number of authors omitted from batch results after a store failure",
	})

	// CounterInconsistencies counts comment counters left over-counting after
	// a failed compensation. Each increment warrants operational follow-up.
	CounterInconsistencies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_counter_inconsistencies_total",
		Help: "Total number of comment counters left inconsistent after failed compensation",
	})

	// EventsPublished counts domain events shipped to the bus, by destination.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_events_published_total",
		Help: "Total number of domain events published, by destination topic",
	}, []string{"destination"})
)
