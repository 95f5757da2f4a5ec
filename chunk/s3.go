package chunk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for an S3 object source.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Key is the object key within the bucket (required).
	Key string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
	// Gzip decompresses the object body transparently.
	Gzip bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	if c.Key == "" {
		return errors.New("S3 object key is required")
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/key".
func ParseS3Path(path string) (bucket, key string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, key
}

// FromS3 opens an S3 object as a byte-pull source.
// Uses AWS SDK default credential chain (env vars, shared config, IAM role).
func FromS3(ctx context.Context, cfg S3Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &cfg.Bucket,
		Key:    &cfg.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", cfg.Bucket, cfg.Key, err)
	}

	if cfg.Gzip {
		src, err := FromGzipReader(out.Body)
		if err != nil {
			_ = out.Body.Close()
			return nil, err
		}
		return src, nil
	}
	return FromReadCloser(out.Body), nil
}
