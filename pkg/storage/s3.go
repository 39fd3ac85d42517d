package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage keeps objects under a key prefix in one bucket. Credentials come
// from the default AWS chain.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Storage(ctx context.Context, bucket, prefix, region string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Storage{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Storage) key(p string) *string {
	return aws.String(s.prefix + strings.TrimPrefix(p, "/"))
}

func (s *S3Storage) fail(op, p string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return fmt.Errorf("failed to %s s3://%s/%s%s: %w", op, s.bucket, s.prefix, p, err)
}

func (s *S3Storage) Read(ctx context.Context, p string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: s.key(p)})
	if err != nil {
		return nil, s.fail("get", p, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.fail("read", p, err)
	}
	return data, nil
}

func (s *S3Storage) Write(ctx context.Context, p string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    s.key(p),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return s.fail("put", p, err)
	}
	return nil
}

// Delete reports ErrNotFound for a missing object. S3 itself treats deleting
// nothing as success, hence the HEAD first.
func (s *S3Storage) Delete(ctx context.Context, p string) error {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: s.key(p)}); err != nil {
		return s.fail("head", p, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: s.key(p)}); err != nil {
		return s.fail("delete", p, err)
	}
	return nil
}

// List returns the objects directly under prefix, like LocalStorage.List.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := aws.ToString(s.key(strings.TrimSuffix(prefix, "/") + "/"))
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    &s.bucket,
		Prefix:    &dir,
		Delimiter: aws.String("/"),
	})
	var out []string
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, s.fail("list", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return out, nil
}

func (s *S3Storage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: s.key(p)})
	if err == nil {
		return true, nil
	}
	if err = s.fail("head", p, err); errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}
