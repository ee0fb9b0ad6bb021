package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/todoapp/internal/model"
)

const keyCredentialPrefix = "credential:"

// RedisCredentialRepo はRedisを使用した認証情報リポジトリ。
type RedisCredentialRepo struct {
	rdb *redis.Client
}

// NewRedisCredentialRepo はRedisCredentialRepoを生成する。
func NewRedisCredentialRepo(rdb *redis.Client) *RedisCredentialRepo {
	return &RedisCredentialRepo{rdb: rdb}
}

// FindByEmail はメールアドレスで認証情報を取得する。見つからない場合はnilを返す。
func (r *RedisCredentialRepo) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	b, err := r.rdb.Get(ctx, keyCredentialPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	var cred model.Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return &cred, nil
}

// Create は認証情報をSETNXで登録する。既に存在する場合はErrCredentialExistsを返す。
func (r *RedisCredentialRepo) Create(ctx context.Context, cred *model.Credential) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, keyCredentialPrefix+cred.Email, b, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	if !ok {
		return ErrCredentialExists
	}
	return nil
}

// compile-time interface check
var _ CredentialRepository = (*RedisCredentialRepo)(nil)
