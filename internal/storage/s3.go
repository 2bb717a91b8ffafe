package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrStorageFailure marks a failed upload or URL generation.
var ErrStorageFailure = errors.New("object storage failure")

// S3Store uploads chart images to S3 and issues presigned GET URLs.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Store builds an S3Store from the ambient AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", ErrStorageFailure)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrStorageFailure, err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// BuildKey places a chart under charts/YYYY/MM/DD/<filename>.
func BuildKey(filename string, now time.Time) string {
	return fmt.Sprintf("charts/%s/%s", now.Format("2006/01/02"), filename)
}

// Upload puts a local PNG file at the given key.
func (s *S3Store) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStorageFailure, localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrStorageFailure, s.bucket, key, err)
	}
	return nil
}

// PresignGet returns a time-limited HTTPS URL for the uploaded object.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: presign s3://%s/%s: %v", ErrStorageFailure, s.bucket, key, err)
	}
	return req.URL, nil
}
