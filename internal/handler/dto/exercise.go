package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/exlog/exlog/internal/model"
)

// FlexString decodes a JSON string or number into its textual form.
// Clients send duration either as 30, 30.0 or "30"; an integral number is
// rendered without its fraction or exponent.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(integralText(n))
	return nil
}

// integralText renders 30.0 or 3e1 as "30". Anything with a real fraction,
// or too large to be exact, is returned unchanged for the caller to reject.
func integralText(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return s
	}
	return strconv.FormatInt(int64(v), 10)
}

// CreateExerciseRequest is the JSON body of POST /api/users/{id}/exercises.
type CreateExerciseRequest struct {
	Description string     `json:"description"`
	Duration    FlexString `json:"duration"`
	Date        string     `json:"date,omitempty"`
}

// ExerciseResponse is returned after an exercise is logged.
type ExerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntry is one exercise in a log response.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogResponse is the body of GET /api/users/{id}/logs.
type LogResponse struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

// ToExerciseResponse combines the owner and the new exercise.
func ToExerciseResponse(user *model.User, exercise *model.Exercise) ExerciseResponse {
	return ExerciseResponse{
		ID:          user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.DisplayDate(),
	}
}

// ToLogResponse builds a log response. Log is never null.
func ToLogResponse(user *model.User, exercises []*model.Exercise) LogResponse {
	entries := make([]LogEntry, 0, len(exercises))
	for _, e := range exercises {
		entries = append(entries, LogEntry{
			Description: e.Description,
			Duration:    e.Duration,
			Date:        e.DisplayDate(),
		})
	}
	return LogResponse{
		ID:       user.ID,
		Username: user.Username,
		Count:    len(entries),
		Log:      entries,
	}
}
