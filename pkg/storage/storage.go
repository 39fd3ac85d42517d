// Package storage holds opaque objects addressed by slash-separated paths.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Storage is implemented by LocalStorage and S3Storage. List is not
// recursive.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
