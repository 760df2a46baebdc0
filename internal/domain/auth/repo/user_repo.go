package repo

import (
	"context"

	"github.com/filevault/auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	// Create persists a new account. Returns ErrAlreadyExists when an
	// account with the same id is already stored.
	Create(ctx context.Context, u model.Account) error

	// GetByID returns ErrNotFound when no account matches.
	GetByID(ctx context.Context, id string) (model.Account, error)
}
