package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"autek/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// S3Store keeps assets in an S3-compatible bucket (AWS, Cloudflare R2,
// MinIO) under the uploads/ key prefix.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// NewS3Store builds the bucket client from static credentials. A custom
// endpoint switches the client to path-style addressing.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3_BUCKET is not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    logger,
	}, nil
}

// Save uploads content as uploads/<generated name> and returns its public path
func (s *S3Store) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	// A seekable body lets the SDK compute the payload checksum up front
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", filename, err)
	}

	name := newName(filename)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset %s: %w", name, err)
	}

	s.logger.Info("Asset uploaded",
		zap.String("bucket", s.bucket),
		zap.String("name", name),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)

	return s.publicURL + URLPrefix + name, nil
}

// Remove deletes the object behind a public asset path
func (s *S3Store) Remove(ctx context.Context, assetPath string) error {
	name, err := nameFromPath(strings.TrimPrefix(assetPath, s.publicURL))
	if err != nil {
		return fmt.Errorf("%w: %q", err, assetPath)
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ErrNotExist, assetPath)
		}
		return fmt.Errorf("failed to look up asset %s: %w", assetPath, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", assetPath, err)
	}

	s.logger.Info("Asset deleted", zap.String("bucket", s.bucket), zap.String("path", assetPath))
	return nil
}

func (s *S3Store) key(name string) string {
	return strings.TrimPrefix(URLPrefix, "/") + name
}
