package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/exlog/exlog/internal/model"
	"github.com/exlog/exlog/internal/repository"
)

// AddExercise inserts a new exercise. The foreign key on user_id rejects
// exercises for unknown users.
func (s *Store) AddExercise(ctx context.Context, exercise *model.Exercise) error {
	query := `
		INSERT INTO exercises (id, user_id, description, duration, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		model.CalendarDate(exercise.Date),
		exercise.CreatedAt,
	)

	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return repository.ErrUserNotFound
		}
		return fmt.Errorf("failed to create exercise: %w", err)
	}

	return nil
}

// ExercisesFor retrieves a user's exercises in insertion order.
func (s *Store) ExercisesFor(ctx context.Context, userID string) ([]*model.Exercise, error) {
	query := `
		SELECT id, user_id, description, duration, date, created_at
		FROM exercises
		WHERE user_id = $1
		ORDER BY seq
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]*model.Exercise, 0)
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exercises: %w", err)
	}

	return exercises, nil
}

// scanExercise scans a row into an Exercise model.
func scanExercise(row pgx.Row) (*model.Exercise, error) {
	var exercise model.Exercise
	err := row.Scan(
		&exercise.ID,
		&exercise.UserID,
		&exercise.Description,
		&exercise.Duration,
		&exercise.Date,
		&exercise.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	exercise.Date = model.CalendarDate(exercise.Date)
	return &exercise, nil
}
