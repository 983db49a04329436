package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHasCode(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: codeUniqueViolation}
	fk := &pgconn.PgError{Code: codeForeignKeyViolation}

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"unique", unique, codeUniqueViolation, true},
		{"wrapped unique", fmt.Errorf("insert: %w", unique), codeUniqueViolation, true},
		{"foreign key", fk, codeForeignKeyViolation, true},
		{"different code", fk, codeUniqueViolation, false},
		{"plain error", errors.New("23505 unique"), codeUniqueViolation, false},
		{"nil", nil, codeUniqueViolation, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := hasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("hasCode(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "://not a url")
	if err == nil {
		t.Fatal("expected error for invalid database URL")
	}
}
