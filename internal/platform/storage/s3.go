// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config holds configuration for S3 storage.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string // Optional: for S3-compatible services
	PublicURL string // Optional: overrides the derived bucket URL
}

// S3API is the subset of the S3 client the backend calls.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3 implements [Blob] for S3-compatible object storage.
// Works with AWS S3, MinIO, Cloudflare R2 and similar services.
type S3 struct {
	client    S3API
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewS3 creates an S3 client from static or ambient credentials.
func NewS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	var options []func(*awsconfig.LoadOptions) error
	options = append(options, awsconfig.WithRegion(cfg.Region))

	// Add static credentials if provided
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint == "" {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		} else {
			publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		}
	}

	logger.Info("s3_storage_initialized",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region),
		slog.String("endpoint", cfg.Endpoint),
	)

	return NewS3WithClient(client, cfg.Bucket, publicURL, logger), nil
}

// NewS3WithClient wraps an already configured client.
func NewS3WithClient(client S3API, bucket, publicURL string, logger *slog.Logger) *S3 {
	return &S3{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
	}
}

// Exists implements [Blob].
func (store *S3) Exists(ctx context.Context, p string) (bool, error) {
	key, err := Clean(p)
	if err != nil {
		return false, err
	}

	_, err = store.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if isMissing(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: head %s: %w", key, err)
	}

	return true, nil
}

// Get implements [Blob].
func (store *S3) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := Clean(p)
	if err != nil {
		return nil, err
	}

	output, err := store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if isMissing(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}

	return output.Body, nil
}

// Put implements [Blob] using a conditional write so existing keys are never replaced.
func (store *S3) Put(ctx context.Context, p string, content io.Reader) error {
	key, err := Clean(p)
	if err != nil {
		return err
	}

	_, err = store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        content,
		IfNoneMatch: aws.String("*"),
	})
	if isPreconditionFailed(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}

	return nil
}

/*
Move streams the object to its new key and deletes the original.

The copy is a conditional PutObject, so an occupied target fails with
[ErrExists] instead of being replaced. If the source cannot be deleted the
copy is removed again, leaving only the source.
*/
func (store *S3) Move(ctx context.Context, from, to string) error {
	sourceKey, err := Clean(from)
	if err != nil {
		return err
	}

	targetKey, err := Clean(to)
	if err != nil {
		return err
	}

	source, err := store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(sourceKey),
	})
	if isMissing(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", sourceKey, err)
	}
	defer source.Body.Close()

	_, err = store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(store.bucket),
		Key:           aws.String(targetKey),
		Body:          source.Body,
		ContentLength: source.ContentLength,
		ContentType:   source.ContentType,
		IfNoneMatch:   aws.String("*"),
	})
	if isPreconditionFailed(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("storage: copy %s: %w", sourceKey, err)
	}

	_, err = store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(sourceKey),
	})
	if err != nil {
		if _, rollbackErr := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(store.bucket),
			Key:    aws.String(targetKey),
		}); rollbackErr != nil {
			store.logger.Error("s3_move_rollback_failed",
				slog.String("key", targetKey),
				slog.String("error", rollbackErr.Error()),
			)
		}
		return fmt.Errorf("storage: delete %s after copy: %w", sourceKey, err)
	}

	return nil
}

// Delete implements [Blob].
func (store *S3) Delete(ctx context.Context, p string) error {
	key, err := Clean(p)
	if err != nil {
		return err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}

	return nil
}

// MakeDirectory is a no-op: object stores have no directories.
func (store *S3) MakeDirectory(_ context.Context, _ string) error {
	return nil
}

// URL implements [Blob].
func (store *S3) URL(p string) string {
	key, err := Clean(p)
	if err != nil {
		return ""
	}
	return store.publicURL + "/" + key
}

// Ping implements [Blob].
func (store *S3) Ping(ctx context.Context) error {
	_, err := store.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(store.bucket)})
	if err != nil {
		return fmt.Errorf("storage: bucket %s unreachable: %w", store.bucket, err)
	}
	return nil
}

func isMissing(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}

	var apiError smithy.APIError
	return errors.As(err, &apiError) && apiError.ErrorCode() == "NotFound"
}

func isPreconditionFailed(err error) bool {
	var apiError smithy.APIError
	return errors.As(err, &apiError) && apiError.ErrorCode() == "PreconditionFailed"
}
