package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds construction parameters for S3ExportStore.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for S3-compatible servers such as MinIO
	Prefix    string
	PathStyle bool
}

// S3ExportStore keeps exports as objects in a single bucket.
type S3ExportStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3ExportStore creates a store using the default AWS credential chain.
func NewS3ExportStore(ctx context.Context, cfg S3Config) (*S3ExportStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3ExportStore(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3ExportStore(client *s3.Client, bucket, prefix string) *S3ExportStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3ExportStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3ExportStore) Save(ctx context.Context, name string, version time.Time, format Format, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	key := versionedName(name, version, format)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(format.ContentType()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export %s: %w", key, err)
	}
	return key, nil
}

func (s *S3ExportStore) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrExportNotFound, key)
		}
		return nil, fmt.Errorf("failed to download export %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export %s: %w", key, err)
	}
	return data, nil
}

func (s *S3ExportStore) RemoveStaleVersions(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	prefix := s.prefix + name + "_"
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stale exports: %w", err)
		}
		for _, obj := range page.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return fmt.Errorf("failed to remove stale export %s: %w", aws.ToString(obj.Key), err)
			}
		}
	}
	return nil
}
