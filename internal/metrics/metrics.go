// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Event publication outcomes.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Domain writes
	IncUserCreated()
	IncExerciseLogged()

	// Log queries
	ObserveLogQuery(size int, duration time.Duration)

	// User lookup cache
	IncUserCacheHit()
	IncUserCacheMiss()

	// Event publication; status is StatusSuccess or StatusFailed.
	IncEventPublished(status string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
