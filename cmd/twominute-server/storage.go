package main

import (
	"context"
	"fmt"

	"github.com/twominute/twominute/internal/config"
	"github.com/twominute/twominute/internal/task"
	taskrepo "github.com/twominute/twominute/internal/task/repositoryimpl"
	"github.com/twominute/twominute/internal/user"
	userrepo "github.com/twominute/twominute/internal/user/repositoryimpl"
	"github.com/twominute/twominute/pkg/sqlstore"
	"github.com/twominute/twominute/pkg/storage"
)

type repositories struct {
	users user.Repository
	tasks task.Repository
	// ping backs the gRPC health check.
	ping func(ctx context.Context) error
}

// openRepositories picks the backend named by STORAGE_TYPE. The returned
// func releases it.
func openRepositories(ctx context.Context, env *config.StorageEnv) (*repositories, func(), error) {
	switch env.Type {
	case "sqlite":
		db, err := sqlstore.Open(env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return &repositories{
			users: userrepo.NewSQLiteRepository(db),
			tasks: taskrepo.NewSQLiteRepository(db),
			ping:  db.PingContext,
		}, func() { db.Close() }, nil
	case "s3":
		store, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, nil, err
		}
		return yamlRepositories(store), func() {}, nil
	case "local", "":
		store, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, nil, err
		}
		return yamlRepositories(store), func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}

func yamlRepositories(store storage.Storage) *repositories {
	return &repositories{
		users: userrepo.NewYAMLRepository(store),
		tasks: taskrepo.NewYAMLRepository(store),
		ping: func(ctx context.Context) error {
			_, err := store.List(ctx, taskrepo.TasksPrefix)
			return err
		},
	}
}
