package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRatingSubmitted()
	c.RecordRatingSubmitted()
	c.RecordRatingRejected("duplicate")
	c.RecordRatingRejected("duplicate")
	c.RecordRatingRejected("out_of_range")
	c.RecordPostCreated()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordStreakUpdate(3)

	if got := testutil.ToFloat64(c.ratingsSubmitted); got != 2 {
		t.Fatalf("ratings submitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.ratingsRejected.WithLabelValues("duplicate")); got != 2 {
		t.Fatalf("duplicate rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.ratingsRejected.WithLabelValues("out_of_range")); got != 1 {
		t.Fatalf("range rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.postsCreated); got != 1 {
		t.Fatalf("posts created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheHits); got != 1 {
		t.Fatalf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheMisses); got != 1 {
		t.Fatalf("cache misses = %v, want 1", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPostCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fridgegram_posts_created_total 1") {
		t.Fatalf("scrape output missing counter:\n%s", rec.Body.String())
	}
}
