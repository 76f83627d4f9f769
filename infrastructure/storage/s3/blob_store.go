// Package s3 keeps uploaded files in an S3 bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// API is the part of the S3 client the store needs
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobStore implements ports.BlobStore on S3
type BlobStore struct {
	client  API
	bucket  string
	baseURL string
	logger  *zap.Logger
}

var _ ports.BlobStore = (*BlobStore)(nil)

// NewBlobStore returns virtual-hosted style URLs for the bucket's region
func NewBlobStore(client API, bucket, region string, logger *zap.Logger) *BlobStore {
	return &BlobStore{
		client:  client,
		bucket:  bucket,
		baseURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region),
		logger:  logger,
	}
}

// WithBaseURL serves objects from a CDN or custom domain instead
func (s *BlobStore) WithBaseURL(base string) *BlobStore {
	s.baseURL = strings.TrimRight(base, "/")
	return s
}

func (s *BlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", pkgerrors.NewExternalError("s3", err)
	}

	s.logger.Info("Object uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return s.objectURL(key), nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return pkgerrors.NewExternalError("s3", err)
	}
	return nil
}

func (s *BlobStore) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}
