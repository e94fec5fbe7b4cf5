package state

import (
	"context"
	"fmt"
	"time"

	logging "usage-report-bot/internal/infra/log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLedger stores one key per sent period with a TTL of the retention window.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

func NewRedisLedger(ctx context.Context, opts Options) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
		Protocol: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", opts.RedisAddr, err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "usage-report"
	}
	logging.LogInfo("Redis state ledger connected", zap.String("addr", opts.RedisAddr), zap.Int("db", opts.RedisDB))
	return &RedisLedger{client: client, prefix: prefix}, nil
}

func (l *RedisLedger) key(kind, period string) string {
	return fmt.Sprintf("%s:sent:%s:%s", l.prefix, kind, period)
}

func (l *RedisLedger) IsSent(ctx context.Context, kind, period string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(kind, period)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check sent marker: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLedger) MarkSent(ctx context.Context, kind, period string, at time.Time) error {
	if err := l.client.Set(ctx, l.key(kind, period), at.Format(time.RFC3339), retention).Err(); err != nil {
		return fmt.Errorf("failed to store sent marker: %w", err)
	}
	return nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
