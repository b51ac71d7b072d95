package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store implements blob operations against S3 or any S3-compatible
// endpoint (MinIO in development).
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
}

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Store builds the client. Static credentials are used when provided,
// otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// Upload stores raw bytes under the key.
func (s *S3Store) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (Asset, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Asset{}, &StorageError{Op: "upload", Bucket: bucket, Key: key, Err: err}
	}

	url, err := s.SignedURL(ctx, bucket, key, time.Hour)
	if err != nil {
		return Asset{}, err
	}

	return Asset{
		Bucket:     bucket,
		Key:        key,
		URL:        url,
		Type:       AssetTypeOf(key),
		Size:       int64(len(body)),
		UploadedAt: time.Now(),
	}, nil
}

// UploadJSON marshals v and stores it under the key.
func (s *S3Store) UploadJSON(ctx context.Context, bucket, key string, v any) (Asset, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Asset{}, &StorageError{Op: "upload", Bucket: bucket, Key: key, Err: err}
	}
	return s.Upload(ctx, bucket, key, body, "application/json")
}

// Download fetches the raw bytes stored under the key.
func (s *S3Store) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	return body, nil
}

// DownloadJSON fetches and unmarshals the object stored under the key.
func (s *S3Store) DownloadJSON(ctx context.Context, bucket, key string, v any) error {
	body, err := s.Download(ctx, bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &StorageError{Op: "download", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

// List returns the assets under a prefix, each with a time-limited URL.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]Asset, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, &StorageError{Op: "list", Bucket: bucket, Key: prefix, Err: err}
	}

	assets := make([]Asset, 0, len(out.Contents))
	for _, item := range out.Contents {
		if item.Key == nil {
			continue
		}
		url, err := s.SignedURL(ctx, bucket, *item.Key, time.Hour)
		if err != nil {
			return nil, err
		}
		a := Asset{
			Bucket: bucket,
			Key:    *item.Key,
			URL:    url,
			Type:   AssetTypeOf(*item.Key),
		}
		if item.Size != nil {
			a.Size = *item.Size
		}
		if item.LastModified != nil {
			a.UploadedAt = *item.LastModified
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// SignedURL produces a time-limited retrieval URL for the object.
func (s *S3Store) SignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", &StorageError{Op: "sign", Bucket: bucket, Key: key, Err: err}
	}
	return req.URL, nil
}
