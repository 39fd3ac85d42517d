package repositoryimpl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/twominute/twominute/internal/user"
	"github.com/twominute/twominute/pkg/cerr"
	"github.com/twominute/twominute/pkg/storage"
)

const usersPrefix = "users"

// YAMLRepository keys users by a hash of their email so the address never
// appears in a path.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(email string) string {
	sum := sha256.Sum256([]byte(user.NormalizeEmail(email)))
	return fmt.Sprintf("%s/%s.yaml", usersPrefix, hex.EncodeToString(sum[:]))
}

func (r *YAMLRepository) Create(ctx context.Context, u *user.User) error {
	p := path(u.Email)
	exists, err := r.storage.Exists(ctx, p)
	if err != nil {
		return cerr.FromStorage("write", "user", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "email already registered", nil)
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal user: %w", err))
	}
	if err := r.storage.Write(ctx, p, data); err != nil {
		return cerr.FromStorage("write", "user", err)
	}
	return nil
}

func (r *YAMLRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	data, err := r.storage.Read(ctx, path(email))
	if err != nil {
		return nil, cerr.FromStorage("read", "user", err)
	}
	var u user.User
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal user: %w", err))
	}
	return &u, nil
}
