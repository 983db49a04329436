// Package repository defines the storage seam for users and their exercises.
//
// Backends live in sub-packages (memory, postgres, sqlite) and all satisfy Store.
package repository

import (
	"context"
	"errors"

	"github.com/exlog/exlog/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user id already exists")
)

// UserStore holds user records.
type UserStore interface {
	// CreateUser persists a user whose ID has already been assigned.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUser returns ErrUserNotFound when no user has the given ID.
	GetUser(ctx context.Context, id string) (*model.User, error)
	// ListUsers returns every user in insertion order.
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// ExerciseStore holds exercises owned by users.
type ExerciseStore interface {
	// AddExercise persists an exercise. It returns ErrUserNotFound and stores
	// nothing when the owning user does not exist.
	AddExercise(ctx context.Context, exercise *model.Exercise) error
	// ExercisesFor returns a user's exercises in insertion order.
	ExercisesFor(ctx context.Context, userID string) ([]*model.Exercise, error)
}

// Store is the full storage backend used by the service layer.
type Store interface {
	UserStore
	ExerciseStore

	Ping(ctx context.Context) error
	Close() error
}
