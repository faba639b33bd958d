package deadline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AmimerNabil/achieveai/internal/adapter/db"
	"github.com/AmimerNabil/achieveai/internal/app/engine"
)

const (
	createTableQuery = `
CREATE TABLE IF NOT EXISTS timer_deadlines (
  owner TEXT NOT NULL,
  task_id TEXT NOT NULL,
  deadline_ms INTEGER NOT NULL,
  PRIMARY KEY (owner, task_id)
);
`
	upsertQuery = `
INSERT INTO timer_deadlines (owner, task_id, deadline_ms) VALUES (?, ?, ?)
ON CONFLICT (owner, task_id) DO UPDATE SET deadline_ms = excluded.deadline_ms;
`
	deleteQuery = `DELETE FROM timer_deadlines WHERE owner = ? AND task_id = ?;`
	listQuery   = `SELECT task_id, deadline_ms FROM timer_deadlines WHERE owner = ?;`
)

// Store keeps running-timer deadlines in a local SQLite file, so a countdown
// survives between client runs.
type Store struct {
	db *sqlx.DB
}

type deadlineRow struct {
	TaskID     string `db:"task_id"`
	DeadlineMS int64  `db:"deadline_ms"`
}

var _ engine.DeadlineStore = (*Store)(nil)

// Open opens or creates the store at path. ":memory:" gives a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create deadline store directory: %w", err)
		}
	}

	conn, err := db.ConnectSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open deadline store: %w", err)
	}
	if _, err := conn.ExecContext(ctx, createTableQuery); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create deadline table: %w", err)
	}
	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveDeadline(ctx context.Context, owner, taskID string, deadline time.Time) error {
	if _, err := s.db.ExecContext(ctx, upsertQuery, owner, taskID, deadline.UnixMilli()); err != nil {
		return fmt.Errorf("save deadline %s: %w", taskID, err)
	}
	return nil
}

func (s *Store) DeleteDeadline(ctx context.Context, owner, taskID string) error {
	if _, err := s.db.ExecContext(ctx, deleteQuery, owner, taskID); err != nil {
		return fmt.Errorf("delete deadline %s: %w", taskID, err)
	}
	return nil
}

func (s *Store) ListDeadlines(ctx context.Context, owner string) (map[string]time.Time, error) {
	var rows []deadlineRow
	if err := s.db.SelectContext(ctx, &rows, listQuery, owner); err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}

	deadlines := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		deadlines[row.TaskID] = time.UnixMilli(row.DeadlineMS).UTC()
	}
	return deadlines, nil
}
