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
	keyTodoPrefix     = "todo:"
	keyUserTodoPrefix = "todos:user:"
)

// RedisTodoRepo はRedisを使用したTodoリポジトリ。
// TodoはJSONで todo:{id} に保存し、所有者ごとの作成順を
// ソート済みセット todos:user:{userId} で保持する。
type RedisTodoRepo struct {
	rdb *redis.Client
}

// NewRedisTodoRepo はRedisTodoRepoを生成する。
func NewRedisTodoRepo(rdb *redis.Client) *RedisTodoRepo {
	return &RedisTodoRepo{rdb: rdb}
}

// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
func (r *RedisTodoRepo) FindByID(ctx context.Context, id string) (*model.Todo, error) {
	b, err := r.rdb.Get(ctx, keyTodoPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	var todo model.Todo
	if err := json.Unmarshal(b, &todo); err != nil {
		return nil, fmt.Errorf("failed to decode todo: %w", err)
	}
	return &todo, nil
}

// FindByUserID はユーザーが所有するTodoを作成順で返す。
func (r *RedisTodoRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Todo, error) {
	ids, err := r.rdb.ZRange(ctx, keyUserTodoPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list todo ids: %w", err)
	}
	todos := []*model.Todo{}
	if len(ids) == 0 {
		return todos, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyTodoPrefix + id
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get todos: %w", err)
	}

	for _, v := range values {
		// インデックスだけ残っている項目は読み飛ばす
		s, ok := v.(string)
		if !ok {
			continue
		}
		var todo model.Todo
		if err := json.Unmarshal([]byte(s), &todo); err != nil {
			return nil, fmt.Errorf("failed to decode todo: %w", err)
		}
		todos = append(todos, &todo)
	}
	return todos, nil
}

// Save はTodo本体と所有者インデックスを同一MULTIで書き込む。
func (r *RedisTodoRepo) Save(ctx context.Context, todo *model.Todo) error {
	b, err := json.Marshal(todo)
	if err != nil {
		return fmt.Errorf("failed to encode todo: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyTodoPrefix+todo.ID, b, 0)
		pipe.ZAdd(ctx, keyUserTodoPrefix+todo.UserID, redis.Z{
			Score:  float64(todo.CreatedAt.UnixMicro()),
			Member: todo.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save todo: %w", err)
	}
	return nil
}

// Delete は指定IDのTodoとインデックスを削除する。
func (r *RedisTodoRepo) Delete(ctx context.Context, id string) error {
	todo, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if todo == nil {
		return nil
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keyTodoPrefix+id)
		pipe.ZRem(ctx, keyUserTodoPrefix+todo.UserID, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TodoRepository = (*RedisTodoRepo)(nil)
