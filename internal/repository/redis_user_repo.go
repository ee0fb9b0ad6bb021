package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/todoapp/internal/model"
)

const (
	keyUserPrefix      = "user:"
	keyUserEmailPrefix = "user:email:"
)

// RedisUserRepo はRedisを使用したユーザーリポジトリ。
// メールアドレス検索用に user:email:{email} → ID の索引を持つ。
type RedisUserRepo struct {
	rdb *redis.Client
}

// NewRedisUserRepo はRedisUserRepoを生成する。
func NewRedisUserRepo(rdb *redis.Client) *RedisUserRepo {
	return &RedisUserRepo{rdb: rdb}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *RedisUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	b, err := r.rdb.Get(ctx, keyUserPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	var user model.User
	if err := json.Unmarshal(b, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *RedisUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := r.rdb.Get(ctx, keyUserEmailPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Save はユーザー本体とメール索引を同一MULTIで書き込む。
// メールアドレスが変わった場合は古い索引を外す。
func (r *RedisUserRepo) Save(ctx context.Context, user *model.User) error {
	prev, err := r.FindByID(ctx, user.ID)
	if err != nil {
		return err
	}
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prev != nil && prev.Email != user.Email {
			pipe.Del(ctx, keyUserEmailPrefix+prev.Email)
		}
		pipe.Set(ctx, keyUserPrefix+user.ID, b, 0)
		pipe.Set(ctx, keyUserEmailPrefix+user.Email, user.ID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Delete は指定IDのユーザーと索引を削除する。
func (r *RedisUserRepo) Delete(ctx context.Context, id string) error {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keyUserPrefix+id, keyUserEmailPrefix+user.Email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*RedisUserRepo)(nil)
