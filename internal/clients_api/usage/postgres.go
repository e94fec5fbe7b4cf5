package usage

import (
	"context"
	"fmt"
	"time"

	logging "usage-report-bot/internal/infra/log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresSource reads usage rows from PostgreSQL.
type PostgresSource struct {
	pool   *pgxpool.Pool
	schema string
	table  string
}

func NewPostgresSource(ctx context.Context, dsn, schema, table string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresSourceFromPool(pool, schema, table), nil
}

func NewPostgresSourceFromPool(pool *pgxpool.Pool, schema, table string) *PostgresSource {
	if schema == "" {
		schema = "public"
	}
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{pool: pool, schema: schema, table: table}
}

// tableName returns the fully qualified table name.
func (s *PostgresSource) tableName() string {
	return fmt.Sprintf("%s.%s", s.schema, s.table)
}

func (s *PostgresSource) FetchRows(ctx context.Context, from, to time.Time) ([]Row, error) {
	start := time.Now()
	query := fmt.Sprintf(`
		SELECT app_name, duration_minutes, recorded_at
		FROM %s
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at
	`, s.tableName())

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage rows: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Row, error) {
		var row Row
		err := r.Scan(&row.App, &row.Minutes, &row.RecordedAt)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan usage rows: %w", err)
	}

	logging.LogDebug("Usage rows fetched",
		zap.String("table", s.tableName()),
		zap.Int("rows", len(result)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return result, nil
}

func (s *PostgresSource) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			app_name TEXT NOT NULL,
			duration_minutes DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[2]s_recorded_at_idx ON %[1]s (recorded_at);
	`, s.tableName(), s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate usage table: %w", err)
	}
	return nil
}

// Insert bulk loads rows with COPY.
func (s *PostgresSource) Insert(ctx context.Context, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{s.schema, s.table},
		[]string{"app_name", "duration_minutes", "recorded_at"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{rows[i].App, rows[i].Minutes, rows[i].RecordedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage rows: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("inserted %d of %d usage rows", n, len(rows))
	}
	return nil
}

func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}
