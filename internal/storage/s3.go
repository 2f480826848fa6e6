// Package storage はS3互換オブジェクトストレージへのファイル保存を提供する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotConfigured はバケットが設定されていないことを示す。
var ErrNotConfigured = errors.New("object storage is not configured")

// Config はS3接続設定。
type Config struct {
	Endpoint  string // MinIOなどS3互換サービスのURL。空ならAWS S3
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // 公開URLのベース。空ならエンドポイントから組み立てる
}

// Enabled はアップロードに必要な設定が揃っているかを返す。
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// ObjectAPI はS3クライアントのうち使用する操作の部分集合。
// *s3.Client がこのインターフェースを満たす。
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store はオブジェクトの保存と公開URLの生成を行う。
type S3Store struct {
	client ObjectAPI
	cfg    Config
}

// NewS3Store は設定からS3クライアントを構築する。
// エンドポイント指定時はパススタイルでアクセスする。
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	slog.Info("object storage configured",
		slog.String("bucket", cfg.Bucket),
		slog.String("endpoint", cfg.Endpoint),
	)

	return NewS3StoreWithClient(client, cfg), nil
}

// NewS3StoreWithClient は既存のクライアントでS3Storeを生成する。
func NewS3StoreWithClient(client ObjectAPI, cfg Config) *S3Store {
	return &S3Store{client: client, cfg: cfg}
}

// Put はオブジェクトを保存し、公開URLを返す。
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL はオブジェクトキーから公開URLを組み立てる。
func (s *S3Store) PublicURL(key string) string {
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
	case s.cfg.Endpoint != "":
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
	}
}

// Health はバケットにアクセスできるかを確認する。
func (s *S3Store) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ObjectAPI = (*s3.Client)(nil)
