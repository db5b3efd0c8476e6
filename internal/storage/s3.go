// Package storage reads uploaded resume documents from an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
)

// ObjectAPI is the subset of the S3 client used to fetch documents.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store fetches resume documents from one bucket.
type Store struct {
	client    ObjectAPI
	bucket    string
	keyPrefix string
	maxBytes  int64
	logger    *errors.Logger
}

// New builds an S3 client from cfg. Static keys are used when both are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.S3Config, maxBytes int64, logger *errors.Logger) (*Store, error) {
	if !cfg.Enabled {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "S3 storage is not enabled", nil)
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load S3 configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	if logger != nil {
		logger.Info("S3 resume storage configured",
			"bucket", cfg.Bucket,
			"region", region,
			"endpoint", cfg.Endpoint,
			"access_key", config.MaskSecret(cfg.AccessKey))
	}

	return NewWithClient(client, cfg.Bucket, cfg.KeyPrefix, maxBytes, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectAPI, bucket, keyPrefix string, maxBytes int64, logger *errors.Logger) *Store {
	if maxBytes <= 0 {
		maxBytes = profile.MaxResumeSize
	}
	return &Store{
		client:    client,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// Fetch downloads key from the configured bucket and returns it as a data URI.
func (s *Store) Fetch(ctx context.Context, key string) (string, error) {
	return s.FetchObject(ctx, s.bucket, s.objectKey(key))
}

// FetchURL downloads an "s3://bucket/key" location.
func (s *Store) FetchURL(ctx context.Context, url string) (string, error) {
	bucket, key, err := ParseURL(url)
	if err != nil {
		return "", err
	}
	return s.FetchObject(ctx, bucket, key)
}

// FetchObject checks the object size before downloading it. The MIME type is
// taken from the object's content type, or from the key's extension when the
// content type is missing or generic.
func (s *Store) FetchObject(ctx context.Context, bucket, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "object key is required", nil)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", s.wrapError(err, "failed to stat object", bucket, key)
	}

	if size := aws.ToInt64(head.ContentLength); size > 0 {
		if err := profile.CheckSize(size, s.maxBytes); err != nil {
			return "", err
		}
	}

	mime, err := resolveMIMEType(aws.ToString(head.ContentType), key)
	if err != nil {
		return "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", s.wrapError(err, "failed to get object", bucket, key)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	// read one byte past the limit so an object that grew after HeadObject is caught
	if _, err := io.Copy(buf, io.LimitReader(out.Body, s.maxBytes+1)); err != nil {
		return "", errors.NewIOError(errors.ErrCodeStorageFailed, "failed to read object body", err).
			WithContext("bucket", bucket).
			WithContext("key", key)
	}
	if err := profile.CheckSize(int64(buf.Len()), s.maxBytes); err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Debug("Fetched resume from object storage",
			"bucket", bucket,
			"key", key,
			"bytes", buf.Len(),
			"mime_type", mime)
	}

	return profile.EncodeDataURI(mime, buf.Bytes()), nil
}

func (s *Store) objectKey(key string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if s.keyPrefix == "" || key == "" {
		return key
	}
	return path.Join(s.keyPrefix, key)
}

func (s *Store) wrapError(err error, message, bucket, key string) error {
	var noKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if stderrors.As(err, &noKey) || stderrors.As(err, &notFound) {
		return errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("object %q not found in bucket %q", key, bucket), err)
	}
	return errors.NewIOError(errors.ErrCodeStorageFailed, message, err).
		WithContext("bucket", bucket).
		WithContext("key", key)
}

// resolveMIMEType prefers the stored content type over the extension.
func resolveMIMEType(contentType, key string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if profile.SupportedMIMEType(ct) {
		return ct, nil
	}

	if mime, ok := profile.MIMETypeForExtension(key); ok {
		return mime, nil
	}

	if ct == "" {
		ct = "unknown"
	}
	return "", errors.NewValidationError(errors.ErrCodeUnsupportedMediaType,
		fmt.Sprintf("unsupported resume type %q for %s, expected PDF or DOCX", ct, key), nil)
}

// IsURL reports whether s looks like an "s3://" location.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// ParseURL splits "s3://bucket/key" into its bucket and key.
func ParseURL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("not an s3:// URL: %s", url), nil)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("s3 URL must name a bucket and a key: %s", url), nil)
	}
	return bucket, key, nil
}
