package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kendall-kelly/workshop-manager/config"
)

// S3API is the subset of the S3 client the file store needs
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client loads AWS configuration for the configured region. Static
// credentials are used when both keys are set, the default chain otherwise.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsConfig), nil
}

// S3FileStore keeps files under a key prefix of an S3 bucket. Stored paths
// have the form s3://bucket/prefix/name.
type S3FileStore struct {
	client S3API
	bucket string
	prefix string
}

// NewS3FileStore creates a store writing below prefix in bucket
func NewS3FileStore(client S3API, bucket, prefix string) *S3FileStore {
	return &S3FileStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3FileStore) key(name string) string {
	name = filepath.Base(name)
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3FileStore) keyFromPath(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "s3://"+s.bucket+"/")
	if !ok || rest == "" {
		return "", fmt.Errorf("path %q is not in bucket %s", path, s.bucket)
	}
	return rest, nil
}

// Save uploads the file, replacing an object with the same key
func (s *S3FileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := s.key(name)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// Open downloads a stored object
func (s *S3FileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := s.keyFromPath(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return out.Body, nil
}

// Remove deletes a stored object
func (s *S3FileStore) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	key, err := s.keyFromPath(path)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
