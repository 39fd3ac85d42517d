package repositoryimpl

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twominute/twominute/internal/task"
	"github.com/twominute/twominute/pkg/cerr"
)

// SQLiteRepository stores tasks in the tasks table created by sqlstore.Open.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *task.Task) error {
	steps, err := json.Marshal(t.Steps)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal steps: %w", err))
	}
	var completedAt sql.NullTime
	if t.CompletedAt != nil {
		completedAt = sql.NullTime{Time: t.CompletedAt.UTC(), Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, text, starter, steps, sprint_length, mode, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Text, t.Starter, string(steps), t.SprintLength, t.Mode, t.Status, t.CreatedAt.UTC(), completedAt,
	)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert task: %w", err))
	}
	return nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*task.Task, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, text, starter, steps, sprint_length, mode, status, created_at, completed_at
		FROM tasks WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to query tasks: %w", err))
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		var (
			t           task.Task
			steps       string
			createdAt   time.Time
			completedAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &t.Starter, &steps, &t.SprintLength, &t.Mode, &t.Status, &createdAt, &completedAt); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to scan task: %w", err))
		}
		if err := json.Unmarshal([]byte(steps), &t.Steps); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal steps of %s: %w", t.ID, err))
		}
		t.CreatedAt = createdAt
		if completedAt.Valid {
			at := completedAt.Time
			t.CompletedAt = &at
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to iterate tasks: %w", err))
	}
	return tasks, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete task: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete task: %w", err))
	}
	if n == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}
