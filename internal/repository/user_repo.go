package repository

import (
	"context"

	"github.com/ricirt/consent-sync/internal/domain"
)

// UserRepository defines the persistence operations over the host's user
// tables. The pgx implementation is in pg_user_repo.go.
// Tests use a hand-written mock (mock_user_repo.go).
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetFlag returns the subscription flag; a missing row reads as FlagUnset.
	GetFlag(ctx context.Context, userID int64) (domain.Flag, error)
	SetFlag(ctx context.Context, userID int64, flag domain.Flag) error

	// FindEligible returns up to limit ids greater than lastID, ascending,
	// whose email is non-empty and whose flag row is missing, '' or '0'.
	FindEligible(ctx context.Context, lastID int64, limit int) ([]int64, error)
}
