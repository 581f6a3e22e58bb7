package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "record not found", in: gorm.ErrRecordNotFound, want: ErrNotFound},
		{name: "wrapped not found", in: fmt.Errorf("first: %w", gorm.ErrRecordNotFound), want: ErrNotFound},
		{name: "unique violation", in: &pgconn.PgError{Code: pgUniqueViolation}, want: ErrDuplicate},
		{name: "other driver error", in: other, want: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("translate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !retryable(&pgconn.PgError{Code: pgSerializationFailure}) {
		t.Error("serialization failure should be retryable")
	}
	if !retryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgDeadlockDetected})) {
		t.Error("wrapped deadlock should be retryable")
	}
	if retryable(&pgconn.PgError{Code: pgUniqueViolation}) {
		t.Error("unique violation is not retryable")
	}
	if retryable(errors.New("boom")) {
		t.Error("plain error is not retryable")
	}
}
