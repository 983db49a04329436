// Package memory provides an in-process Store. Data is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/exlog/exlog/internal/model"
	"github.com/exlog/exlog/internal/repository"
)

// Store keeps users and exercises in memory.
// Records are copied on the way in and out so callers cannot mutate stored state.
type Store struct {
	mu        sync.RWMutex
	users     []*model.User
	byID      map[string]*model.User
	exercises map[string][]*model.Exercise
}

var _ repository.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		byID:      make(map[string]*model.User),
		exercises: make(map[string][]*model.Exercise),
	}
}

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[user.ID]; ok {
		return repository.ErrUserExists
	}

	stored := *user
	s.users = append(s.users, &stored)
	s.byID[stored.ID] = &stored
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	out := *user
	return &out, nil
}

// ListUsers returns all users in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.User, len(s.users))
	for i, u := range s.users {
		cp := *u
		out[i] = &cp
	}
	return out, nil
}

// AddExercise appends an exercise to its owner's log.
func (s *Store) AddExercise(ctx context.Context, exercise *model.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[exercise.UserID]; !ok {
		return repository.ErrUserNotFound
	}

	stored := *exercise
	s.exercises[stored.UserID] = append(s.exercises[stored.UserID], &stored)
	return nil
}

// ExercisesFor returns the user's exercises in insertion order.
func (s *Store) ExercisesFor(ctx context.Context, userID string) ([]*model.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.exercises[userID]
	out := make([]*model.Exercise, len(stored))
	for i, e := range stored {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
