package repositoryimpl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/twominute/twominute/internal/task"
	"github.com/twominute/twominute/pkg/cerr"
	"github.com/twominute/twominute/pkg/storage"
)

// TasksPrefix is the storage directory holding one subdirectory per user.
const TasksPrefix = "tasks"

// YAMLRepository stores one YAML document per task under tasks/<user>/.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func userDir(userID string) string {
	return fmt.Sprintf("%s/%s", TasksPrefix, userID)
}

func path(userID, id string) string {
	return fmt.Sprintf("%s/%s.yaml", userDir(userID), id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	p := path(t.UserID, t.ID)
	exists, err := r.storage.Exists(ctx, p)
	if err != nil {
		return cerr.FromStorage("write", "task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, p, data); err != nil {
		return cerr.FromStorage("write", "task", err)
	}
	return nil
}

func (r *YAMLRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*task.Task, error) {
	paths, err := r.storage.List(ctx, userDir(userID))
	if err != nil {
		return nil, cerr.FromStorage("read", "tasks", err)
	}

	all := make([]*task.Task, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable task", "path", p, "error", err)
			continue
		}
		var t task.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			slog.WarnContext(ctx, "skipping corrupt task", "path", p, "error", err)
			continue
		}
		all = append(all, &t)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id, userID string) error {
	if err := r.storage.Delete(ctx, path(userID, id)); err != nil {
		return cerr.FromStorage("delete", "task", err)
	}
	return nil
}
