// Package s3 stores product media in S3-compatible object storage.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/media"
)

// Config configures the media bucket.
type Config struct {
	Bucket string `usage:"Media bucket name"`
	Region string `default:"us-east-1" usage:"Bucket region"`
	// Endpoint overrides the AWS endpoint for MinIO and similar services.
	Endpoint  string `usage:"Custom S3 endpoint"`
	AccessKey string `usage:"Static access key"`
	SecretKey string `usage:"Static secret key"`
	// PublicURL is the base address objects are served from.
	PublicURL string `usage:"Public base URL of stored objects" flag:"s3-public-url"`
}

// API is the part of the S3 client used by ObjectStore.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ media.ObjectStore = (*ObjectStore)(nil)

// ObjectStore implements media.ObjectStore on a single bucket.
type ObjectStore struct {
	api     API
	bucket  string
	baseURL string
}

// New builds an S3 client from cfg. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewWithAPI(s3.NewFromConfig(awsCfg, clientOpts...), cfg), nil
}

// NewWithAPI returns an ObjectStore using api.
func NewWithAPI(api API, cfg Config) *ObjectStore {
	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	switch {
	case baseURL != "":
	case cfg.Endpoint != "":
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &ObjectStore{api: api, bucket: cfg.Bucket, baseURL: baseURL}
}

// Put uploads obj.
func (s *ObjectStore) Put(ctx context.Context, obj media.Object) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		in.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return errors.Wrapf(err, "put %s", obj.Key)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// URL returns the public address of key.
func (s *ObjectStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
