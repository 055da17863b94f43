// Package s3 implements the blob gateway on AWS S3 and S3-compatible stores.
package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/cmorandi/docvault"
)

// Config options for the S3 gateway.
type Config struct {
	Region          string `mapstructure:"region"`            // AWS region
	Bucket          string `mapstructure:"bucket"`            // S3 bucket name
	AccessKeyID     string `mapstructure:"access_key_id"`     // AWS access key ID
	SecretAccessKey string `mapstructure:"secret_access_key"` // AWS secret access key
	Endpoint        string `mapstructure:"endpoint"`          // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   `mapstructure:"use_path_style"`    // Use path-style addressing (MinIO and friends)
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // Handle validity in seconds (default 900)
}

// Gateway issues presigned S3 URLs as capability handles. Issuance is a pure
// signature operation: the gateway keeps no ledger of issued handles and a
// read handle for a dangling key only fails when the URL is used.
type Gateway struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

func New(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 gateway: bucket is required")
	}

	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 900
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
		return nil, fmt.Errorf("new s3 gateway: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Gateway{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: time.Duration(cfg.PresignExpiry) * time.Second,
	}, nil
}

// IssueWriteHandle mints a namespaced storage key and a presigned PUT URL
// bound to the declared content type.
func (g *Gateway) IssueWriteHandle(ctx context.Context, ownerID, fileName, contentType string) (docvault.WriteGrant, error) {
	storageKey := docvault.NewStorageKey(ownerID, fileName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := g.presignClient.PresignPutObject(ctx, input,
		s3.WithPresignExpires(g.presignExpiry))
	if err != nil {
		return docvault.WriteGrant{}, wrapErr("issue write handle", err)
	}

	return docvault.WriteGrant{
		URL:        result.URL,
		Method:     result.Method,
		StorageKey: storageKey,
		ExpiresAt:  time.Now().Add(g.presignExpiry),
	}, nil
}

// IssueReadHandle returns a presigned GET URL for the key.
func (g *Gateway) IssueReadHandle(ctx context.Context, storageKey string) (docvault.ReadGrant, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	}

	result, err := g.presignClient.PresignGetObject(ctx, input,
		s3.WithPresignExpires(g.presignExpiry))
	if err != nil {
		return docvault.ReadGrant{}, wrapErr("issue read handle", err)
	}

	return docvault.ReadGrant{
		URL:       result.URL,
		ExpiresAt: time.Now().Add(g.presignExpiry),
	}, nil
}

// DeleteObject removes the object. S3 object deletion is idempotent; a
// missing key is not an error.
func (g *Gateway) DeleteObject(ctx context.Context, storageKey string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil
		}
		return wrapErr("delete object", err)
	}

	return nil
}

// wrapErr marks downstream failures as the retryable gateway condition.
func wrapErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, docvault.ErrGatewayUnavailable)
}
