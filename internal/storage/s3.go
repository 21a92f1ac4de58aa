package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nbsearch/nbsearch/internal/config"
	interrors "github.com/nbsearch/nbsearch/internal/errors"
	"github.com/nbsearch/nbsearch/internal/logger"
)

// Store keeps notebook files in an S3-compatible bucket, keyed by
// notebook id. MinIO works through the custom endpoint.
type Store struct {
	client *s3.Client
	bucket string
}

func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(regionOrDefault(cfg.S3RegionName)),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3EndpointURL != "" {
			o.BaseEndpoint = &cfg.S3EndpointURL
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: cfg.S3BucketName}, nil
}

func regionOrDefault(region string) string {
	if region == "" {
		return "us-east-1"
	}
	return region
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		logger.Debug("head bucket %s: %v", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &s.bucket})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	logger.Info("Created bucket %s", s.bucket)
	return nil
}

// Upload stores the raw notebook content under the notebook id.
func (s *Store) Upload(ctx context.Context, notebookID string, content []byte) error {
	contentType := "application/json"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &notebookID,
		Body:        bytes.NewReader(content),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload notebook %s: %w", notebookID, err)
	}
	return nil
}

// Download retrieves the raw notebook content for a notebook id.
func (s *Store) Download(ctx context.Context, notebookID string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &notebookID,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", interrors.ErrNotebookNotFound, notebookID)
		}
		return nil, fmt.Errorf("failed to download notebook %s: %w", notebookID, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook %s: %w", notebookID, err)
	}
	return data, nil
}

// Delete removes a stored notebook. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, notebookID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &notebookID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete notebook %s: %w", notebookID, err)
	}
	return nil
}
