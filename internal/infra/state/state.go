package state

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown state backend")

// retention is how long sent markers are kept.
const retention = 90 * 24 * time.Hour

// Ledger records which report periods were already delivered, so restarts
// and overlapping timers do not post the same report twice.
type Ledger interface {
	IsSent(ctx context.Context, kind, period string) (bool, error)
	MarkSent(ctx context.Context, kind, period string, at time.Time) error
	Close() error
}

type Options struct {
	Backend       string // file or redis
	File          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

func New(ctx context.Context, opts Options) (Ledger, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileLedger(opts.File), nil
	case "redis":
		return NewRedisLedger(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
