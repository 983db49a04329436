// Package logquery filters and truncates a user's exercise log.
//
// The engine is a pure function over a snapshot of exercises: it never
// re-sorts, never mutates its input and keeps insertion order.
package logquery

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/exlog/exlog/internal/model"
)

// Query errors.
var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidLimit = errors.New("invalid limit")
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	model.DisplayDateLayout,
}

// Filter holds the optional log query parameters.
// A nil field means the bound or limit is absent.
type Filter struct {
	From  *time.Time
	To    *time.Time
	Limit *int
}

// ParseFilter builds a Filter from raw query values.
// Empty strings are treated as absent.
func ParseFilter(from, to, limit string) (Filter, error) {
	var f Filter

	if from = strings.TrimSpace(from); from != "" {
		d, err := ParseDate(from)
		if err != nil {
			return Filter{}, err
		}
		f.From = &d
	}

	if to = strings.TrimSpace(to); to != "" {
		d, err := ParseDate(to)
		if err != nil {
			return Filter{}, err
		}
		f.To = &d
	}

	if limit = strings.TrimSpace(limit); limit != "" {
		n, err := parseLimit(limit)
		if err != nil {
			return Filter{}, err
		}
		f.Limit = &n
	}

	return f, nil
}

// parseLimit accepts a non-negative integer. A value too large for int
// truncates nothing, so it is clamped to math.MaxInt.
func parseLimit(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err == nil {
		if n < 0 {
			return 0, ErrInvalidLimit
		}
		return n, nil
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange && s[0] != '-' {
		return math.MaxInt, nil
	}
	return 0, ErrInvalidLimit
}

// ParseDate parses a caller-supplied date and normalizes it to a calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.CalendarDate(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Apply returns the exercises within the filter's date bounds, in their
// insertion order, truncated to the first Limit entries.
func Apply(exercises []*model.Exercise, f Filter) []*model.Exercise {
	out := make([]*model.Exercise, 0, len(exercises))

	for _, e := range exercises {
		if f.Limit != nil && len(out) >= *f.Limit {
			break
		}
		if !f.Matches(e) {
			continue
		}
		out = append(out, e)
	}

	return out
}

// Matches reports whether the exercise date lies within [From, To].
func (f Filter) Matches(e *model.Exercise) bool {
	date := model.CalendarDate(e.Date)
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

// IsEmpty reports whether the filter has no bounds and no limit.
func (f Filter) IsEmpty() bool {
	return f.From == nil && f.To == nil && f.Limit == nil
}
