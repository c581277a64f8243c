// Package objectstore issues time-limited signed URLs for S3 objects and
// performs the one direct storage call the service needs: deleting an object
// whose link could not be recorded.
package objectstore

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sundayezeilo/filedrop/internal/errx"
)

// DefaultPresignTTL is how long an upload or download URL stays valid.
const DefaultPresignTTL = 300 * time.Second

// SignedURL is a capability for one storage operation on one key.
type SignedURL struct {
	URL       string
	Method    string
	Key       string
	ExpiresAt time.Time
}

// Config holds the per-bucket settings of a Store.
type Config struct {
	Bucket     string
	PresignTTL time.Duration
	// Now is used to stamp SignedURL.ExpiresAt. Defaults to time.Now.
	Now func() time.Time
}

// Store signs URLs against a single bucket.
type Store struct {
	presign *s3.PresignClient
	client  *s3.Client
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

// New builds a Store on top of an S3 client.
func New(client *s3.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("objectstore: nil s3 client")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("objectstore: bucket is required")
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		presign: s3.NewPresignClient(client),
		client:  client,
		bucket:  cfg.Bucket,
		ttl:     ttl,
		now:     now,
	}, nil
}

// Bucket returns the bucket the store signs against.
func (s *Store) Bucket() string { return s.bucket }

// PresignUpload returns a PUT URL for key. Signing is local; nothing is sent
// to S3 and the key is not reserved.
func (s *Store) PresignUpload(ctx context.Context, key string) (SignedURL, error) {
	const op = "objectstore.PresignUpload"

	issuedAt := s.now()
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return SignedURL{}, errx.E(op, errx.Unavailable, err)
	}

	return SignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresAt: issuedAt.Add(s.ttl),
	}, nil
}

// PresignDownload returns a GET URL for key.
func (s *Store) PresignDownload(ctx context.Context, key string) (SignedURL, error) {
	const op = "objectstore.PresignDownload"

	issuedAt := s.now()
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return SignedURL{}, errx.E(op, errx.Unavailable, err)
	}

	return SignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresAt: issuedAt.Add(s.ttl),
	}, nil
}

// Delete removes key from the bucket. S3 reports success for keys that do
// not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "objectstore.Delete"

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}
