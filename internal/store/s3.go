package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/taskline-app/taskline/internal/model"
)

// S3API is the slice of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the task document as a single object in a bucket.
type S3Store struct {
	client S3API
	bucket string
	key    string
	strict bool
}

// NewS3 creates an S3-backed store using the default AWS credential
// chain.
func NewS3(ctx context.Context, region, bucket, key string, strict bool) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), bucket, key, strict), nil
}

// NewS3WithClient creates an S3-backed store with an explicit client.
func NewS3WithClient(client S3API, bucket, key string, strict bool) *S3Store {
	return &S3Store{client: client, bucket: bucket, key: key, strict: strict}
}

func (s *S3Store) LoadAll(ctx context.Context) ([]model.Task, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isMissingObject(err) {
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	tasks, err := decode(raw, s.strict)
	if err != nil {
		return nil, fmt.Errorf("decode s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return tasks, nil
}

func (s *S3Store) SaveAll(ctx context.Context, tasks []model.Task) error {
	raw, err := encode(tasks)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	return nil
}

// isMissingObject reports whether the error means the document simply
// does not exist yet.
func isMissingObject(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
