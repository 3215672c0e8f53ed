package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MediaStore persists uploaded files and returns their public URL.
type MediaStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalMediaStore writes files under a directory served at urlPath.
type LocalMediaStore struct {
	dir     string
	urlPath string
}

// NewLocalMediaStore creates the directory if needed.
func NewLocalMediaStore(dir, urlPath string) (*LocalMediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalMediaStore{dir: dir, urlPath: "/" + strings.Trim(urlPath, "/")}, nil
}

// Save writes data to dir/key.
func (s *LocalMediaStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", err
	}
	return path.Join(s.urlPath, key), nil
}

// Delete removes dir/key; a missing file is not an error.
func (s *LocalMediaStore) Delete(_ context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalMediaStore) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// S3API is the part of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3MediaStore keeps uploads in an S3 bucket.
type S3MediaStore struct {
	client    S3API
	bucket    string
	prefix    string
	publicURL string
}

// NewS3MediaStore loads AWS credentials from the environment.
func NewS3MediaStore(ctx context.Context, bucket, prefix, publicURL string) (*S3MediaStore, error) {
	if bucket == "" {
		return nil, errors.New("S3_BUCKET is required for s3 media storage")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3MediaStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix, publicURL), nil
}

// NewS3MediaStoreWithClient uses an existing client. Without publicURL the
// virtual-hosted bucket URL is used.
func NewS3MediaStoreWithClient(client S3API, bucket, prefix, publicURL string) *S3MediaStore {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3MediaStore{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Save uploads data under prefix/key.
func (s *S3MediaStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	objectKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return s.publicURL + "/" + objectKey, nil
}

// Delete removes prefix/key.
func (s *S3MediaStore) Delete(ctx context.Context, key string) error {
	objectKey := s.objectKey(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	return nil
}

func (s *S3MediaStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}
