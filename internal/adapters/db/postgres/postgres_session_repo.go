package postgres

import (
	"context"
	"errors"

	customErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	"github.com/filevault/auth-service/internal/domain/auth/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresSessionRepo struct {
	db *gorm.DB
}

func NewPostgresSessionRepo(db *gorm.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

func (p *PostgresSessionRepo) Create(ctx context.Context, accountID string) (model.Session, error) {
	sess := model.Session{
		ID:        uuid.New(),
		AccountID: accountID,
	}
	res := p.db.WithContext(ctx).Create(&sess)
	if err := res.Error; err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "CreateSession")
	}
	return sess, nil
}

func (p *PostgresSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	var s model.Session
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&s)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Session{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "GetSessionByID")
	}
	return s, nil
}

func (p *PostgresSessionRepo) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	res := p.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Session{})
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteSession")
	}
	return res.RowsAffected, nil
}
