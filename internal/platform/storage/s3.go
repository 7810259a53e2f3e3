// Package storage persists uploaded capsule media in S3-compatible object
// storage and issues presigned URLs so clients never see raw object keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/config"
)

// MediaStore stores and serves capsule media objects.
type MediaStore struct {
	client        s3iface.S3API
	uploader      s3manageriface.UploaderAPI
	bucket        string
	presignExpiry time.Duration
	logger        *slog.Logger
}

// NewMediaStore builds a MediaStore from storage configuration.
// Static credentials are optional; when absent the default AWS credential
// chain applies.
func NewMediaStore(cfg config.StorageConfig) (*MediaStore, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.S3Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	if cfg.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(
			credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	expiry := time.Duration(cfg.PresignExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &MediaStore{
		client:        s3.New(sess),
		uploader:      s3manager.NewUploader(sess),
		bucket:        cfg.S3Bucket,
		presignExpiry: expiry,
		logger:        slog.Default().With(slog.String("component", "media_store")),
	}, nil
}

// NewMediaStoreWithClients creates a MediaStore with injected clients. Used in tests.
func NewMediaStoreWithClients(
	client s3iface.S3API,
	uploader s3manageriface.UploaderAPI,
	bucket string,
	presignExpiry time.Duration,
) *MediaStore {
	return &MediaStore{
		client:        client,
		uploader:      uploader,
		bucket:        bucket,
		presignExpiry: presignExpiry,
		logger:        slog.Default().With(slog.String("component", "media_store")),
	}
}

// ObjectKey builds the storage key for a capsule media file. Keys are
// namespaced per capsule and salted with a fresh UUID so file names never
// collide or leak across capsules.
func ObjectKey(capsuleID uuid.UUID, fileName string) string {
	return path.Join("capsules", capsuleID.String(), uuid.New().String()+"-"+path.Base(fileName))
}

// Upload streams a media file to the bucket under the given key.
func (s *MediaStore) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		s.logger.Error("failed to upload object",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Debug("object uploaded", slog.String("key", key))
	return nil
}

// PresignedURL returns a time-limited download URL for the given key.
func (s *MediaStore) PresignedURL(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(s.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign object URL: %w", err)
	}
	return url, nil
}

// Delete removes a stored object. Missing objects are not an error.
func (s *MediaStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("failed to delete object",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
