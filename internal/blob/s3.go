package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/patrickmn/go-cache"

	"contrackt-ai/internal/contextutil"
)

// DefaultPresignTTL is how long a presigned link stays valid.
const DefaultPresignTTL = time.Hour

// S3Store keeps files in an S3 bucket and links to them with presigned GET URLs.
// Links are cached for half their lifetime so a cached link is never close to expiry.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	urls    *cache.Cache
}

// NewS3Store loads AWS credentials from the environment.
func NewS3Store(ctx context.Context, bucket, region string, ttl time.Duration) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StoreFromClient(s3.NewFromConfig(cfg), bucket, ttl), nil
}

// NewS3StoreFromClient wraps an existing client. ttl <= 0 means DefaultPresignTTL.
func NewS3StoreFromClient(client *s3.Client, bucket string, ttl time.Duration) *S3Store {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		ttl:     ttl,
		urls:    cache.New(ttl/2, ttl),
	}
}

// Put uploads body under key.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}
	s.urls.Delete(key)
	return nil
}

// URL returns a presigned GET link for key.
func (s *S3Store) URL(ctx context.Context, key string) (string, bool) {
	if u, ok := s.urls.Get(key); ok {
		return u.(string), true
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to presign file url", "key", key, "error", err)
		return "", false
	}
	s.urls.Set(key, req.URL, cache.DefaultExpiration)
	return req.URL, true
}

// Delete removes the object and forgets its cached link.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	s.urls.Delete(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete %s from s3: %w", key, err)
	}
	return nil
}
