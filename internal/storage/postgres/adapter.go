package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/storage"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL config: %w", err)
	}

	db, err := sql.Open("pgx", config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS course_matches (
			id BIGSERIAL PRIMARY KEY,
			university_1 VARCHAR(255) NOT NULL,
			university_2 VARCHAR(255) NOT NULL,
			match_result TEXT NOT NULL,
			score INTEGER DEFAULT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_course_matches_universities
			ON course_matches (university_1, university_2)`,
	}

	for _, query := range queries {
		if _, err := a.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

func (a *Adapter) CreateMatch(ctx context.Context, record *storage.MatchRecord) error {
	row := a.db.QueryRowContext(ctx,
		`INSERT INTO course_matches (university_1, university_2, match_result, score)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		record.University1, record.University2, record.MatchResult, nullableScore(record.Score))

	if err := row.Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return errors.StorageError("failed to create match record", err)
	}
	return nil
}

func (a *Adapter) GetMatch(ctx context.Context, id int64) (*storage.MatchRecord, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT `+storage.MatchColumns+` FROM course_matches WHERE id = $1`, id)

	record, err := storage.ScanMatch(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundError(fmt.Sprintf("match record %d", id))
	}
	if err != nil {
		return nil, errors.StorageError("failed to get match record", err)
	}
	return record, nil
}

func (a *Adapter) ListMatches(ctx context.Context, filter storage.MatchFilter) ([]*storage.MatchRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.University1 != "" {
		args = append(args, filter.University1)
		conditions = append(conditions, fmt.Sprintf("university_1 = $%d", len(args)))
	}
	if filter.University2 != "" {
		args = append(args, filter.University2)
		conditions = append(conditions, fmt.Sprintf("university_2 = $%d", len(args)))
	}

	query := `SELECT ` + storage.MatchColumns + ` FROM course_matches`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.NormalizeLimit(), max(filter.Offset, 0))
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StorageError("failed to list match records", err)
	}
	defer rows.Close()

	records := []*storage.MatchRecord{}
	for rows.Next() {
		record, err := storage.ScanMatch(rows)
		if err != nil {
			return nil, errors.StorageError("failed to scan match record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("failed to list match records", err)
	}

	return records, nil
}

func (a *Adapter) UpdateMatchResult(ctx context.Context, id int64, matchResult string, score *int) (*storage.MatchRecord, error) {
	row := a.db.QueryRowContext(ctx,
		`UPDATE course_matches SET match_result = $1, score = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+storage.MatchColumns,
		matchResult, nullableScore(score), id)

	record, err := storage.ScanMatch(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundError(fmt.Sprintf("match record %d", id))
	}
	if err != nil {
		return nil, errors.StorageError("failed to update match record", err)
	}
	return record, nil
}

func (a *Adapter) DeleteMatch(ctx context.Context, id int64) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM course_matches WHERE id = $1`, id)
	if err != nil {
		return errors.StorageError("failed to delete match record", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.StorageError("failed to delete match record", err)
	}
	if affected == 0 {
		return errors.NotFoundError(fmt.Sprintf("match record %d", id))
	}
	return nil
}

func nullableScore(score *int) interface{} {
	if score == nil {
		return nil
	}
	return int64(*score)
}
