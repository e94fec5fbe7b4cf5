package usage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrUnknownDriver     = errors.New("unknown database driver")
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")
)

const DefaultTable = "usage_metrics"

// Row is one recorded usage session.
type Row struct {
	App        string
	Minutes    float64
	RecordedAt time.Time
}

// Source reads usage rows with from <= RecordedAt < to, ordered by time.
type Source interface {
	FetchRows(ctx context.Context, from, to time.Time) ([]Row, error)
	Close() error
}

// Store is a Source that can also create its table and insert rows. The
// sample commands and tests use it to seed data.
type Store interface {
	Source
	Migrate(ctx context.Context) error
	Insert(ctx context.Context, rows ...Row) error
}

type Options struct {
	Driver string // postgres or sqlite
	DSN    string
	Table  string
	Schema string // postgres only
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open connects to the configured database.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if !identifier.MatchString(opts.Table) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, opts.Table)
	}
	if opts.Schema != "" && !identifier.MatchString(opts.Schema) {
		return nil, fmt.Errorf("%w: schema %q", ErrInvalidIdentifier, opts.Schema)
	}

	switch opts.Driver {
	case "postgres", "postgresql", "pgx":
		return NewPostgresSource(ctx, opts.DSN, opts.Schema, opts.Table)
	case "sqlite", "sqlite3":
		return NewSQLiteSource(opts.DSN, opts.Table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
