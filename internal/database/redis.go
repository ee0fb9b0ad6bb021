package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OpenRedis はRedis接続URL（例: "redis://localhost:6379/0"）からクライアントを生成する。
// Openと異なり、生成時にPINGで疎通を確認する。
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// RedisPinger は*redis.ClientにPingContextを持たせ、
// *sql.DBと同じ形でヘルスチェックに渡せるようにする。
type RedisPinger struct {
	Client *redis.Client
}

// PingContext はPINGを送り、疎通できなければエラーを返す。
func (p RedisPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
