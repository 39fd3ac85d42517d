package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/twominute/twominute/internal/user"
	"github.com/twominute/twominute/pkg/cerr"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, user.NormalizeEmail(u.Email), u.Name, u.PasswordHash, u.CreatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return cerr.NewError(cerr.AlreadyExists, "email already registered", err)
		}
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert user: %w", err))
	}
	return nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`,
		user.NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerr.NewError(cerr.NotFound, "user not found", err)
	}
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to query user: %w", err))
	}
	return &u, nil
}
