// Package archive keeps raw payment callback payloads in S3 so operators can
// replay or audit them after the dedup records have been purged.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	bucket string
	client S3API
	clock  clock.Clock
	logger *logging.Logger
}

func NewStore(client S3API, bucket string, clk clock.Clock, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Store{bucket: bucket, client: client, clock: clk, logger: logger}
}

// NewS3Client builds a client from static settings. A non-empty endpoint
// switches to path-style addressing for MinIO and LocalStack.
func NewS3Client(cfg *config.Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.AWSRegion,
	}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.client != nil
}

// ObjectKey places payloads under a per-day prefix.
func ObjectKey(day string, dedupKey string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(dedupKey)
	return fmt.Sprintf("callbacks/v1/by-date/%s/%s.json", day, safe)
}

func (s *Store) Archive(ctx context.Context, key string, payload []byte) error {
	if !s.Enabled() {
		return nil
	}

	objectKey := ObjectKey(s.clock.Now().UTC().Format("2006/01/02"), key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", objectKey, err)
	}

	s.logger.Debug("archived callback", "s3_key", objectKey)
	return nil
}

// Compile-time check
var _ payment.Archiver = (*Store)(nil)
