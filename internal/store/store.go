// Package store is the persistence boundary for health records and users.
// The aggregation code never talks to a database directly; it receives the
// records a RecordStore returned.
package store

import (
	"context"
	"errors"

	"fitdiary/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// RecordStore keeps at most one record per (user, date).
type RecordStore interface {
	// Save upserts r under its date, overwriting any existing record.
	Save(ctx context.Context, userID int, r models.HealthRecord) error
	// Query returns records with start <= date <= end, ascending by date.
	Query(ctx context.Context, userID int, start, end string) ([]models.HealthRecord, error)
}

// UserStore backs signup and login.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}
