package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ Recorder    = (*NoopRecorder)(nil)
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Recorder    = (*PrometheusRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncUserCreated()
	m.IncUserCreated()
	m.IncExerciseLogged()
	m.ObserveLogQuery(3, 2*time.Millisecond)
	m.ObserveLogQuery(2, time.Millisecond)
	m.IncUserCacheHit()
	m.IncUserCacheMiss()
	m.IncUserCacheMiss()
	m.IncEventPublished(StatusSuccess)
	m.IncEventPublished(StatusFailed)

	snap := m.Snapshot()

	if snap.UsersCreated != 2 {
		t.Errorf("UsersCreated = %d, want 2", snap.UsersCreated)
	}
	if snap.ExercisesLogged != 1 {
		t.Errorf("ExercisesLogged = %d, want 1", snap.ExercisesLogged)
	}
	if snap.LogQueries != 2 || snap.LogEntriesReturned != 5 {
		t.Errorf("LogQueries = %d, LogEntriesReturned = %d, want 2 and 5", snap.LogQueries, snap.LogEntriesReturned)
	}
	if snap.LogQueryDurationNs != (3 * time.Millisecond).Nanoseconds() {
		t.Errorf("LogQueryDurationNs = %d", snap.LogQueryDurationNs)
	}
	if snap.UserCacheHits != 1 || snap.UserCacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", snap.UserCacheHits, snap.UserCacheMisses)
	}
	if snap.EventsPublished != 1 || snap.EventsPublishFailures != 1 {
		t.Errorf("events = %d/%d, want 1/1", snap.EventsPublished, snap.EventsPublishFailures)
	}
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	t.Parallel()

	r := NewPrometheus()
	r.IncUserCreated()
	r.IncExerciseLogged()
	r.IncExerciseLogged()
	r.IncUserCacheHit()
	r.IncEventPublished(StatusFailed)

	if got := testutil.ToFloat64(r.usersCreated); got != 1 {
		t.Errorf("users_created_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.exercisesLogged); got != 2 {
		t.Errorf("exercises_logged_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("user_cache_lookups_total{result=hit} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.eventsPublished.WithLabelValues(StatusFailed)); got != 1 {
		t.Errorf("events_published_total{status=failed} = %v, want 1", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	r := NewPrometheus()
	r.IncUserCreated()
	r.ObserveLogQuery(4, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"exlog_users_created_total 1",
		"exlog_log_query_entries_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
