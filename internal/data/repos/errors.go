package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("repo: not found")
	// ErrConflict indicates a unique constraint or concurrency conflict.
	ErrConflict = errors.New("repo: conflict")
	// ErrPrecondition indicates a referenced row is missing.
	ErrPrecondition = errors.New("repo: precondition failed")
	// ErrRetryable indicates a transient failure worth retrying.
	ErrRetryable = errors.New("repo: retryable")
)

// MapError classifies driver failures so callers can branch on sentinel
// errors instead of postgres error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrPrecondition),
		errors.Is(err, ErrRetryable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tag(op, ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return tag(op, ErrRetryable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return tag(op, ErrConflict, err) // unique_violation
		case "23503":
			return tag(op, ErrPrecondition, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return tag(op, ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "already exists"):
		return tag(op, ErrConflict, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return tag(op, ErrRetryable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func tag(op string, sentinel, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(sentinel, err))
}
