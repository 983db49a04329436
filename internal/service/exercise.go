package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exlog/exlog/internal/events"
	"github.com/exlog/exlog/internal/logquery"
	"github.com/exlog/exlog/internal/metrics"
	"github.com/exlog/exlog/internal/model"
	"github.com/exlog/exlog/internal/repository"
)

const publishTimeout = 5 * time.Second

// ExerciseService appends exercises to users and answers log queries.
type ExerciseService struct {
	store     repository.ExerciseStore
	users     *UserService
	publisher events.Publisher
	metrics   metrics.Recorder
}

// NewExerciseService creates an ExerciseService. publisher and recorder may be nil.
func NewExerciseService(store repository.ExerciseStore, users *UserService, publisher events.Publisher, recorder metrics.Recorder) *ExerciseService {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExerciseService{
		store:     store,
		users:     users,
		publisher: publisher,
		metrics:   recorder,
	}
}

// AddExerciseInput carries the raw client fields for a new exercise.
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	// Date is optional; empty means today.
	Date string
}

// AddExercise validates input and appends an exercise to the user's log.
func (s *ExerciseService) AddExercise(ctx context.Context, input AddExerciseInput) (*model.User, *model.Exercise, error) {
	user, err := s.users.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, nil, ErrDescriptionRequired
	}

	duration, err := parseDuration(input.Duration)
	if err != nil {
		return nil, nil, err
	}

	date := model.Today()
	if raw := strings.TrimSpace(input.Date); raw != "" {
		date, err = logquery.ParseDate(raw)
		if err != nil {
			return nil, nil, err
		}
	}

	exercise := &model.Exercise{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Description: description,
		Duration:    duration,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddExercise(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("add exercise: %w", err)
	}

	s.metrics.IncExerciseLogged()
	slog.InfoContext(ctx, "exercise_logged", "user_id", user.ID, "exercise_id", exercise.ID)
	s.publish(ctx, user, exercise)

	return user, exercise, nil
}

// Log is the result of a log query.
type Log struct {
	User      *model.User
	Exercises []*model.Exercise
	Count     int
}

// GetLog returns the user's exercises narrowed by filter.
func (s *ExerciseService) GetLog(ctx context.Context, userID string, filter logquery.Filter) (*Log, error) {
	start := time.Now()

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.store.ExercisesFor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}

	selected := logquery.Apply(all, filter)
	s.metrics.ObserveLogQuery(len(selected), time.Since(start))

	return &Log{
		User:      user,
		Exercises: selected,
		Count:     len(selected),
	}, nil
}

func (s *ExerciseService) publish(ctx context.Context, user *model.User, exercise *model.Exercise) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishExerciseLogged(ctx, events.NewExerciseLogged(user, exercise)); err != nil {
		s.metrics.IncEventPublished(metrics.StatusFailed)
		slog.WarnContext(ctx, "exercise event publish failed", "exercise_id", exercise.ID, "error", err)
		return
	}
	s.metrics.IncEventPublished(metrics.StatusSuccess)
}

func parseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrDurationRequired
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0, ErrInvalidDuration
	}
	return int(n), nil
}
