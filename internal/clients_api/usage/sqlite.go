package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteSource reads usage rows from SQLite. recorded_at is stored as unix seconds.
type SQLiteSource struct {
	db    *sql.DB
	table string
}

func NewSQLiteSource(dsn, table string) (*SQLiteSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is empty")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// in-memory databases exist per connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if table == "" {
		table = DefaultTable
	}
	return &SQLiteSource{db: db, table: table}, nil
}

func (s *SQLiteSource) Migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_name TEXT NOT NULL,
			duration_minutes REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_recorded_at ON %[1]s(recorded_at);
	`, s.table)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate usage table: %w", err)
	}
	return nil
}

func (s *SQLiteSource) Insert(ctx context.Context, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (app_name, duration_minutes, recorded_at) VALUES (?, ?, ?)`, s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.App, r.Minutes, r.RecordedAt.Unix()); err != nil {
			return fmt.Errorf("failed to insert usage row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage rows: %w", err)
	}
	return nil
}

func (s *SQLiteSource) FetchRows(ctx context.Context, from, to time.Time) ([]Row, error) {
	query := fmt.Sprintf(`
		SELECT app_name, duration_minutes, recorded_at
		FROM %s
		WHERE recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at, id
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query usage rows: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		var ts int64
		if err := rows.Scan(&r.App, &r.Minutes, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		r.RecordedAt = time.Unix(ts, 0).UTC()
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage rows: %w", err)
	}
	return result, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
