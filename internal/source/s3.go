package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Source reads a document stored as an S3 (or MinIO) object.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3 creates a source for s3://bucket/key. A custom endpoint switches the
// client to path-style addressing, as MinIO requires.
func NewS3(ctx context.Context, bucket, key string, cfg S3Config) (*S3Source, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Source{client: client, bucket: bucket, key: key}, nil
}

func (s *S3Source) Location() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3Source) Type() string { return TypeS3 }

// Fetch downloads the object. The SDK retries transient failures itself.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get object %s: %w", s.Location(), ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", s.Location(), err)
	}
	defer result.Body.Close()

	if result.ContentLength != nil && *result.ContentLength > maxDocumentSize {
		return nil, fmt.Errorf("get object %s: document exceeds %d bytes", s.Location(), maxDocumentSize)
	}

	data, err := io.ReadAll(io.LimitReader(result.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", s.Location(), err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("get object %s: document exceeds %d bytes", s.Location(), maxDocumentSize)
	}
	return data, nil
}
