package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectPutter is the part of the S3 API the gateway needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Gateway stores files under their sha256 digest, so the object key is
// the content hash.
type S3Gateway struct {
	client ObjectPutter
	bucket string
	logger *zap.SugaredLogger
}

// NewS3Gateway wraps an S3 client
func NewS3Gateway(client ObjectPutter, bucket string, logger *zap.SugaredLogger) *S3Gateway {
	return &S3Gateway{client: client, bucket: bucket, logger: logger}
}

// NewS3Client builds a path-style S3 client from the default AWS config chain.
// endpoint may be empty for AWS itself.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}
	return s3.New(opts), nil
}

// ObjectKey is where content with the given hash lives
func ObjectKey(hash string) string {
	return path.Join("reports", hash)
}

// Pin writes data to reports/<sha256> and returns the hex digest
func (g *S3Gateway) Pin(ctx context.Context, name string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(ObjectKey(hash)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata:    map[string]string{"file-name": name},
	})
	if err != nil {
		return "", fmt.Errorf("pin %s: put object: %w", name, err)
	}

	g.logger.Debugw("File stored", "bucket", g.bucket, "hash", hash, "bytes", len(data))
	return hash, nil
}
