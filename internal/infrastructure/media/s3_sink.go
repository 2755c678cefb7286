package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/finsite/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// S3Sink uploads images to an S3-compatible bucket (AWS S3, MinIO, RustFS).
type S3Sink struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	prefix        string
	logger        *zap.Logger
	now           func() time.Time
}

// S3SinkOption is a functional option for configuring S3Sink
type S3SinkOption func(*S3Sink)

// WithLogger sets a custom logger for S3Sink
func WithLogger(logger *zap.Logger) S3SinkOption {
	return func(s *S3Sink) {
		s.logger = logger
	}
}

// WithKeyPrefix sets the object key prefix. Default is "console".
func WithKeyPrefix(prefix string) S3SinkOption {
	return func(s *S3Sink) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// NewS3Sink creates an S3Sink from configuration. Without static keys the
// default AWS credential chain is used.
func NewS3Sink(cfg *config.StorageConfig, opts ...S3SinkOption) (*S3Sink, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, errors.New("storage access key and secret key must be set together")
		}
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" {
		if _, err := url.ParseRequestURI(endpoint); err != nil || !strings.Contains(endpoint, "://") {
			return nil, fmt.Errorf("invalid storage endpoint: %q", cfg.Endpoint)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		switch {
		case endpoint != "" && cfg.UsePathStyle:
			publicBase = endpoint + "/" + cfg.Bucket
		case endpoint != "":
			u, _ := url.Parse(endpoint)
			publicBase = u.Scheme + "://" + cfg.Bucket + "." + u.Host
		default:
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	sink := &S3Sink{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
		prefix:        "console",
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(sink)
	}
	return sink, nil
}

// Store uploads data under a fresh key and returns its public URL
func (s *S3Sink) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	ct, err := DetectImageType(contentType, data)
	if err != nil {
		return "", err
	}
	key := s.objectKey(name, ct)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ct),
	})
	if err != nil {
		s.logger.Warn("Image upload failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Info("Image uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return s.publicBaseURL + "/" + key, nil
}

// objectKey is prefix/yyyy/mm/<uuid><ext>
func (s *S3Sink) objectKey(name, contentType string) string {
	now := s.now().UTC()
	key := fmt.Sprintf("%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), extensionFor(contentType, name))
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Bucket returns the bucket name
func (s *S3Sink) Bucket() string {
	return s.bucket
}

var _ ImageSink = (*S3Sink)(nil)

// NewSink returns an S3Sink when storage is enabled, otherwise a DataURISink
func NewSink(cfg config.StorageConfig, logger *zap.Logger) (ImageSink, error) {
	if !cfg.Enabled {
		return NewDataURISink(), nil
	}
	return NewS3Sink(&cfg, WithLogger(logger.Named("media")))
}
