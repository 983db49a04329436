package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exlog/exlog/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleEvent() ExerciseLogged {
	user := &model.User{ID: "user-1", Username: "alice"}
	exercise := &model.Exercise{
		ID:          "ex-1",
		UserID:      "user-1",
		Description: "run",
		Duration:    30,
		Date:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	return NewExerciseLogged(user, exercise)
}

func TestNewExerciseLogged(t *testing.T) {
	t.Parallel()

	e := sampleEvent()

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, TypeExerciseLogged, e.Type)
	assert.Equal(t, "user-1", e.UserID)
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "ex-1", e.ExerciseID)
	assert.Equal(t, 30, e.Duration)
	assert.Equal(t, "2024-01-01", e.Date)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestKafkaPublisher_WritesKeyedMessage(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{topic: "exercises", writer: w}
	event := sampleEvent()

	require.NoError(t, p.PublishExerciseLogged(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "user-1", string(msg.Key))

	var decoded ExerciseLogged
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "run", decoded.Description)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TypeExerciseLogged, headers["event_type"])
	assert.Equal(t, event.EventID, headers["event_id"])
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker unavailable")
	p := &KafkaPublisher{topic: "exercises", writer: &fakeWriter{err: boom}}

	err := p.PublishExerciseLogged(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "exercises")
}

func TestKafkaPublisher_Close(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{topic: "exercises", writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNoopPublisher(t *testing.T) {
	t.Parallel()

	p := NewNoop()
	assert.NoError(t, p.PublishExerciseLogged(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
