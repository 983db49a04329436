package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated          uint64
	ExercisesLogged       uint64
	LogQueries            uint64
	LogEntriesReturned    uint64
	LogQueryDurationNs    int64
	UserCacheHits         uint64
	UserCacheMisses       uint64
	EventsPublished       uint64
	EventsPublishFailures uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersCreated          uint64
	exercisesLogged       uint64
	logQueries            uint64
	logEntriesReturned    uint64
	logQueryDurationNs    int64
	userCacheHits         uint64
	userCacheMisses       uint64
	eventsPublished       uint64
	eventsPublishFailures uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:          atomic.LoadUint64(&m.usersCreated),
		ExercisesLogged:       atomic.LoadUint64(&m.exercisesLogged),
		LogQueries:            atomic.LoadUint64(&m.logQueries),
		LogEntriesReturned:    atomic.LoadUint64(&m.logEntriesReturned),
		LogQueryDurationNs:    atomic.LoadInt64(&m.logQueryDurationNs),
		UserCacheHits:         atomic.LoadUint64(&m.userCacheHits),
		UserCacheMisses:       atomic.LoadUint64(&m.userCacheMisses),
		EventsPublished:       atomic.LoadUint64(&m.eventsPublished),
		EventsPublishFailures: atomic.LoadUint64(&m.eventsPublishFailures),
	}
}

// IncUserCreated increments the users created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncExerciseLogged increments the exercises logged counter.
func (m *InMemoryRecorder) IncExerciseLogged() {
	atomic.AddUint64(&m.exercisesLogged, 1)
}

// ObserveLogQuery records a log query's result size and duration.
func (m *InMemoryRecorder) ObserveLogQuery(size int, duration time.Duration) {
	atomic.AddUint64(&m.logQueries, 1)
	atomic.AddUint64(&m.logEntriesReturned, uint64(size))
	atomic.AddInt64(&m.logQueryDurationNs, duration.Nanoseconds())
}

// IncUserCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncUserCacheHit() {
	atomic.AddUint64(&m.userCacheHits, 1)
}

// IncUserCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncUserCacheMiss() {
	atomic.AddUint64(&m.userCacheMisses, 1)
}

// IncEventPublished counts a publication attempt by outcome.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsPublishFailures, 1)
}
