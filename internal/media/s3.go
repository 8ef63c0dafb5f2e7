package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Lifetime        time.Duration
}

// S3Resolver hands out presigned GET URLs for logos kept in a private bucket
type S3Resolver struct {
	presigner *s3.PresignClient
	bucket    string
	lifetime  time.Duration
}

func NewS3Resolver(ctx context.Context, cfg S3Config) (*S3Resolver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("invalid S3 logo configuration: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	return &S3Resolver{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		lifetime:  lifetime,
	}, nil
}

func (r *S3Resolver) Resolve(ctx context.Context, ref *string) (string, error) {
	switch Classify(ref) {
	case RefNone:
		return PlaceholderLogo, nil
	case RefAbsolute:
		return strings.TrimSpace(*ref), nil
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(strings.TrimLeft(strings.TrimSpace(*ref), "/")),
	}, s3.WithPresignExpires(r.lifetime))
	if err != nil {
		return "", fmt.Errorf("failed to presign logo %q: %w", *ref, err)
	}
	return req.URL, nil
}
