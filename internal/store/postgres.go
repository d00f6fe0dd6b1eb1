package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskline-app/taskline/internal/model"
)

// documentName is the primary key of the single document row. The
// table keeps document granularity on purpose: load is one SELECT,
// save is one upsert, and the read-modify-write cycle stays the
// visible unit of consistency.
const documentName = "tasks"

// PostgresStore keeps the task document as one JSON value in a
// task_documents row.
type PostgresStore struct {
	db     *sql.DB
	strict bool
}

func NewPostgres(db *sql.DB, strict bool) *PostgresStore {
	return &PostgresStore{db: db, strict: strict}
}

// NewDB opens and pings a Postgres connection.
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]model.Task, error) {
	query := `SELECT doc FROM task_documents WHERE name = $1`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, documentName).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("%w: select document: %v", ErrUnavailable, err)
	}
	tasks, err := decode(raw, s.strict)
	if err != nil {
		return nil, fmt.Errorf("decode document row: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) SaveAll(ctx context.Context, tasks []model.Task) error {
	raw, err := encode(tasks)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `
		INSERT INTO task_documents (name, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, documentName, raw); err != nil {
		return fmt.Errorf("%w: upsert document: %v", ErrUnavailable, err)
	}
	return nil
}
