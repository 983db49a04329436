// Package events publishes domain events about logged exercises.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/exlog/exlog/internal/model"
)

// TypeExerciseLogged is the event type emitted after an exercise is stored.
const TypeExerciseLogged = "exercise.logged"

// ExerciseLogged is the payload of a TypeExerciseLogged event.
type ExerciseLogged struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ExerciseID  string    `json:"exercise_id"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        string    `json:"date"`
}

// NewExerciseLogged builds the event for a stored exercise.
func NewExerciseLogged(user *model.User, exercise *model.Exercise) ExerciseLogged {
	return ExerciseLogged{
		EventID:     uuid.NewString(),
		Type:        TypeExerciseLogged,
		OccurredAt:  time.Now().UTC(),
		UserID:      user.ID,
		Username:    user.Username,
		ExerciseID:  exercise.ID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        model.CalendarDate(exercise.Date).Format("2006-01-02"),
	}
}

// Encode serializes the event as JSON.
func (e ExerciseLogged) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return b, nil
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	PublishExerciseLogged(ctx context.Context, event ExerciseLogged) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

// NewNoop returns a Publisher that discards events.
func NewNoop() Publisher {
	return NoopPublisher{}
}

// PublishExerciseLogged is a no-op.
func (NoopPublisher) PublishExerciseLogged(ctx context.Context, event ExerciseLogged) error {
	return nil
}

// Close is a no-op.
func (NoopPublisher) Close() error {
	return nil
}
