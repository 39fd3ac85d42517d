package task

import "context"

type Repository interface {
	Create(ctx context.Context, t *Task) error
	// ListRecent returns the user's tasks newest first. limit <= 0 means all.
	ListRecent(ctx context.Context, userID string, limit int) ([]*Task, error)
	// Delete removes the task only if it belongs to userID.
	Delete(ctx context.Context, id, userID string) error
}
