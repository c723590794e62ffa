package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/storage"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(); err != nil {
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

func (a *Adapter) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS course_matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			university_1 TEXT NOT NULL,
			university_2 TEXT NOT NULL,
			match_result TEXT NOT NULL,
			score INTEGER DEFAULT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_course_matches_universities
			ON course_matches (university_1, university_2)`,
	}

	for _, query := range queries {
		if _, err := a.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

func (a *Adapter) CreateMatch(ctx context.Context, record *storage.MatchRecord) error {
	now := time.Now().UTC()
	result, err := a.db.ExecContext(ctx,
		`INSERT INTO course_matches (university_1, university_2, match_result, score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.University1, record.University2, record.MatchResult, nullableScore(record.Score), now, now)
	if err != nil {
		return errors.StorageError("failed to create match record", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.StorageError("failed to read match record id", err)
	}

	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

func (a *Adapter) GetMatch(ctx context.Context, id int64) (*storage.MatchRecord, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT `+storage.MatchColumns+` FROM course_matches WHERE id = ?`, id)

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
		conditions = append(conditions, "university_1 = ?")
		args = append(args, filter.University1)
	}
	if filter.University2 != "" {
		conditions = append(conditions, "university_2 = ?")
		args = append(args, filter.University2)
	}

	query := `SELECT ` + storage.MatchColumns + ` FROM course_matches`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.NormalizeLimit(), max(filter.Offset, 0))

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
	result, err := a.db.ExecContext(ctx,
		`UPDATE course_matches SET match_result = ?, score = ?, updated_at = ? WHERE id = ?`,
		matchResult, nullableScore(score), time.Now().UTC(), id)
	if err != nil {
		return nil, errors.StorageError("failed to update match record", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.StorageError("failed to update match record", err)
	}
	if affected == 0 {
		return nil, errors.NotFoundError(fmt.Sprintf("match record %d", id))
	}

	return a.GetMatch(ctx, id)
}

func (a *Adapter) DeleteMatch(ctx context.Context, id int64) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM course_matches WHERE id = ?`, id)
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
