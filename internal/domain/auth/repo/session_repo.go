package repo

import (
	"context"

	"github.com/filevault/auth-service/internal/domain/auth/model"
	"github.com/google/uuid"
)

type SessionRepo interface {
	// Create inserts a new session row for the account and returns it
	// with a server-generated id.
	Create(ctx context.Context, accountID string) (model.Session, error)

	// GetByID returns ErrNotFound when no session matches.
	GetByID(ctx context.Context, id uuid.UUID) (model.Session, error)

	// DeleteByID reports how many rows were removed so that callers can
	// tell a revocation from a no-op.
	DeleteByID(ctx context.Context, id uuid.UUID) (int64, error)
}
