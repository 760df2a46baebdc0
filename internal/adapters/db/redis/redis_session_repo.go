package redis

import (
	"context"
	"encoding/json"
	"time"

	customErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	"github.com/filevault/auth-service/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisSessionRepo keeps session rows as JSON values. Keys are written
// without TTL: sessions do not expire on their own, only logout removes
// them, and DEL's reply doubles as the affected-row count.
type RedisSessionRepo struct {
	client *redis.Client
}

func NewRedisSessionRepo(client *redis.Client) *RedisSessionRepo {
	return &RedisSessionRepo{client: client}
}

func (r *RedisSessionRepo) Create(ctx context.Context, accountID string) (model.Session, error) {
	sess := model.Session{
		ID:        uuid.New(),
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "CreateSession")
	}
	if err := r.client.Set(ctx, keyPrefix+sess.ID.String(), payload, 0).Err(); err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "CreateSession")
	}
	return sess, nil
}

func (r *RedisSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	raw, err := r.client.Get(ctx, keyPrefix+id.String()).Bytes()
	switch {
	case err == redis.Nil:
		return model.Session{}, customErrors.ErrNotFound
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "GetSessionByID")
	}

	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "GetSessionByID")
	}
	return sess, nil
}

func (r *RedisSessionRepo) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := r.client.Del(ctx, keyPrefix+id.String()).Result()
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteSession")
	}
	return n, nil
}
