package postgres

import (
	"context"
	"errors"

	customErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	"github.com/filevault/auth-service/internal/domain/auth/model"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) Create(ctx context.Context, user model.Account) error {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return customErrors.ErrAlreadyExists
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateUser")
	}
	return nil
}

func (p *PostgresUserRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	var u model.Account
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetUserByID")
	}
	return u, nil
}
