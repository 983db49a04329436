package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/exlog/exlog/internal/cache"
	"github.com/exlog/exlog/internal/metrics"
	"github.com/exlog/exlog/internal/model"
	"github.com/exlog/exlog/internal/repository"
)

// UserCache is the read-through cache consulted before the store.
// *cache.Cache satisfies it.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// UserService handles user registration and lookup.
type UserService struct {
	store   repository.UserStore
	cache   UserCache
	metrics metrics.Recorder
	ids     *idSource
}

// NewUserService creates a UserService. userCache may be nil.
func NewUserService(store repository.UserStore, userCache UserCache, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		cache:   userCache,
		metrics: recorder,
		ids:     newIDSource(),
	}
}

// CreateUser registers a new user under a freshly allocated ID.
func (s *UserService) CreateUser(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	now := time.Now().UTC()
	id, err := s.ids.next(now)
	if err != nil {
		return nil, fmt.Errorf("allocate user id: %w", err)
	}

	user := &model.User{
		ID:        id,
		Username:  username,
		CreatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserCreated()
	slog.InfoContext(ctx, "user_created", "user_id", user.ID)

	return user, nil
}

// ListUsers returns all users in registration order.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser resolves a user by ID, checking the cache first.
// Cache errors are logged and the store is used instead.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if s.cache == nil {
		return s.loadUser(ctx, id)
	}

	cached, err := s.cache.GetUser(ctx, id)
	if err == nil {
		s.metrics.IncUserCacheHit()
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		slog.WarnContext(ctx, "user cache read failed", "user_id", id, "error", err)
	}
	s.metrics.IncUserCacheMiss()

	if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
		return nil, ErrUserNotFound
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = s.cache.SetNegativeCache(ctx, id)
		}
		return nil, err
	}

	if err := s.cache.SetUser(ctx, user); err != nil {
		slog.WarnContext(ctx, "user cache write failed", "user_id", id, "error", err)
	}
	return user, nil
}

func (s *UserService) loadUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
