// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface handlers and services record through.
type Recorder interface {
	RecordRatingSubmitted()
	RecordRatingRejected(reason string)
	RecordPostCreated()
	RecordStreakUpdate(streak int)
	RecordCacheHit()
	RecordCacheMiss()
}

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	ratingsSubmitted prometheus.Counter
	ratingsRejected  *prometheus.CounterVec
	postsCreated     prometheus.Counter
	streakValue      prometheus.Histogram
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
}

// NewCollector builds a Collector and registers its metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ratingsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridgegram_ratings_submitted_total",
			Help: "Total number of accepted egg ratings.",
		}),
		ratingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridgegram_ratings_rejected_total",
			Help: "Total number of rejected egg ratings by reason.",
		}, []string{"reason"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridgegram_posts_created_total",
			Help: "Total number of fridge posts created.",
		}),
		streakValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fridgegram_streak_days",
			Help:    "Distribution of streak values written after a post.",
			Buckets: []float64{1, 2, 3, 5, 7, 14, 30, 90, 365},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridgegram_profile_cache_hits_total",
			Help: "Profile cache lookups served from memory.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridgegram_profile_cache_misses_total",
			Help: "Profile cache lookups that went to storage.",
		}),
	}

	reg.MustRegister(
		c.ratingsSubmitted,
		c.ratingsRejected,
		c.postsCreated,
		c.streakValue,
		c.cacheHits,
		c.cacheMisses,
	)

	return c
}

// RecordRatingSubmitted counts an accepted rating.
func (c *Collector) RecordRatingSubmitted() {
	c.ratingsSubmitted.Inc()
}

// RecordRatingRejected counts a rejected rating with its reason label.
func (c *Collector) RecordRatingRejected(reason string) {
	c.ratingsRejected.WithLabelValues(reason).Inc()
}

// RecordPostCreated counts a new fridge post.
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordStreakUpdate observes the streak value written after an upload.
func (c *Collector) RecordStreakUpdate(streak int) {
	c.streakValue.Observe(float64(streak))
}

// RecordCacheHit counts a profile cache hit.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss counts a profile cache miss.
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// Nop is a Recorder that discards every event, for tests and optional wiring.
type Nop struct{}

func (Nop) RecordRatingSubmitted()      {}
func (Nop) RecordRatingRejected(string) {}
func (Nop) RecordPostCreated()          {}
func (Nop) RecordStreakUpdate(int)      {}
func (Nop) RecordCacheHit()             {}
func (Nop) RecordCacheMiss()            {}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
