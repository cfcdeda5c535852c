package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Bucket string
	Region string
	// Endpoint points at an S3 compatible service such as R2 or MinIO.
	Endpoint string
	// Prefix is the key prefix and the path part of stored paths.
	Prefix string
	// PublicURL, when set, is prepended to stored paths.
	PublicURL string
}

// S3Storage keeps files in a bucket under Prefix.
type S3Storage struct {
	client S3API
	opts   S3Options
}

func NewS3Storage(client S3API, opts S3Options) *S3Storage {
	opts.Prefix = strings.Trim(opts.Prefix, "/")
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &S3Storage{client: client, opts: opts}
}

// NewS3Client builds a client from the default AWS credential chain.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Storage) objectKey(name string) string {
	if s.opts.Prefix == "" {
		return name
	}
	return s.opts.Prefix + "/" + name
}

func (s *S3Storage) Save(ctx context.Context, name string, data io.Reader, contentType string) (string, error) {
	key := s.objectKey(name)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   data,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("storage: put object %s: %w", key, err)
	}
	return s.opts.PublicURL + "/" + key, nil
}

func (s *S3Storage) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	key, err := s.keyFromPath(storedPath)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, storedPath)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get object %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, storedPath string) error {
	key, err := s.keyFromPath(storedPath)
	if err != nil {
		return nil
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) keyFromPath(storedPath string) (string, error) {
	key, err := keyFor("/"+s.opts.Prefix, storedPath)
	if err != nil {
		return "", err
	}
	return s.objectKey(key), nil
}
