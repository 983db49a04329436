// Package storetest provides a conformance suite shared by every Store backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exlog/exlog/internal/model"
	"github.com/exlog/exlog/internal/repository"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) repository.Store

// Run exercises the behaviour every backend must share.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGetUser", func(t *testing.T) { testCreateAndGetUser(t, newStore(t)) })
	t.Run("GetUnknownUser", func(t *testing.T) { testGetUnknownUser(t, newStore(t)) })
	t.Run("DuplicateUserID", func(t *testing.T) { testDuplicateUserID(t, newStore(t)) })
	t.Run("ListUsersInsertionOrder", func(t *testing.T) { testListUsersInsertionOrder(t, newStore(t)) })
	t.Run("ListUsersEmpty", func(t *testing.T) { testListUsersEmpty(t, newStore(t)) })
	t.Run("AddExerciseUnknownUser", func(t *testing.T) { testAddExerciseUnknownUser(t, newStore(t)) })
	t.Run("ExercisesInsertionOrder", func(t *testing.T) { testExercisesInsertionOrder(t, newStore(t)) })
	t.Run("MaxDuration", func(t *testing.T) { testMaxDuration(t, newStore(t)) })
	t.Run("ExercisesScopedToOwner", func(t *testing.T) { testExercisesScopedToOwner(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

// NewUser builds a user with a unique ID.
func NewUser(username string) *model.User {
	return &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewExercise builds an exercise for the given owner.
func NewExercise(userID, description string, duration int, date time.Time) *model.Exercise {
	return &model.Exercise{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: description,
		Duration:    duration,
		Date:        model.CalendarDate(date),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func testCreateAndGetUser(t *testing.T, s repository.Store) {
	ctx := context.Background()
	user := NewUser("alice")

	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
}

func testGetUnknownUser(t *testing.T, s repository.Store) {
	_, err := s.GetUser(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func testDuplicateUserID(t *testing.T, s repository.Store) {
	ctx := context.Background()
	user := NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	dup := *user
	dup.Username = "mallory"
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), repository.ErrUserExists)

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func testListUsersInsertionOrder(t *testing.T, s repository.Store) {
	ctx := context.Background()

	// Same username twice: usernames are not unique.
	names := []string{"zoe", "alice", "mike", "alice"}
	var want []string
	for _, name := range names {
		u := NewUser(name)
		require.NoError(t, s.CreateUser(ctx, u))
		want = append(want, u.ID)
	}

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)

	var got []string
	for _, u := range users {
		got = append(got, u.ID)
	}
	assert.Equal(t, want, got)
}

func testListUsersEmpty(t *testing.T, s repository.Store) {
	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func testAddExerciseUnknownUser(t *testing.T, s repository.Store) {
	ctx := context.Background()
	e := NewExercise("ghost", "run", 30, time.Now())

	assert.ErrorIs(t, s.AddExercise(ctx, e), repository.ErrUserNotFound)

	got, err := s.ExercisesFor(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testExercisesInsertionOrder(t *testing.T, s repository.Store) {
	ctx := context.Background()
	user := NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	// Dates deliberately out of order.
	base := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	offsets := []int{3, -10, 0, 7, -1}
	var want []*model.Exercise
	for i, off := range offsets {
		e := NewExercise(user.ID, fmt.Sprintf("session %d", i), 10*(i+1), base.AddDate(0, 0, off))
		require.NoError(t, s.AddExercise(ctx, e))
		want = append(want, e)
	}

	got, err := s.ExercisesFor(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].UserID, got[i].UserID)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].Duration, got[i].Duration)
		assert.True(t, want[i].Date.Equal(got[i].Date), "date %d: want %v got %v", i, want[i].Date, got[i].Date)
	}
}

func testMaxDuration(t *testing.T, s repository.Store) {
	ctx := context.Background()
	user := NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	e := NewExercise(user.ID, "ultra", model.MaxDuration, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.AddExercise(ctx, e))

	got, err := s.ExercisesFor(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.MaxDuration, got[0].Duration)
}

func testExercisesScopedToOwner(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := NewUser("alice")
	bob := NewUser("bob")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	require.NoError(t, s.AddExercise(ctx, NewExercise(alice.ID, "run", 30, time.Now())))
	require.NoError(t, s.AddExercise(ctx, NewExercise(bob.ID, "swim", 45, time.Now())))
	require.NoError(t, s.AddExercise(ctx, NewExercise(alice.ID, "bike", 60, time.Now())))

	got, err := s.ExercisesFor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run", got[0].Description)
	assert.Equal(t, "bike", got[1].Description)

	got, err = s.ExercisesFor(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "swim", got[0].Description)
}

func testConcurrentAppends(t *testing.T, s repository.Store) {
	ctx := context.Background()
	user := NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				e := NewExercise(user.ID, fmt.Sprintf("w%d-%d", w, i), i, time.Now())
				if err := s.AddExercise(ctx, e); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.ExercisesFor(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, got, writers*perWriter)
}
