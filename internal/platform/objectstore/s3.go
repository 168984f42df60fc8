// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package objectstore stores uploaded binaries (account avatars) in an
S3-compatible bucket such as AWS S3 or MinIO.
*/
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/taibuivan/contactbook/internal/platform/config"
)

// ErrDisabled is returned by [New] when no bucket is configured.
var ErrDisabled = errors.New("objectstore: no bucket configured")

// S3Store uploads objects to a single bucket and builds their public URLs.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// New builds an [S3Store] from configuration.
//
// Static credentials are used when both keys are set (MinIO, explicit keys);
// otherwise the default AWS credential chain applies. Extra options are applied
// after the configuration-derived ones.
func New(ctx context.Context, cfg config.S3Config, opts ...func(*s3.Options)) (*S3Store, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// MinIO and most S3 clones reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}, func(o *s3.Options) {
		for _, opt := range opts {
			opt(o)
		}
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
	}, nil
}

// Put uploads body under key and returns the URL clients can fetch it from.
func (store *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(store.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=300"),
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: put %s: %w", key, err)
	}

	return store.URL(key), nil
}

// Delete removes the object stored under key.
func (store *S3Store) Delete(ctx context.Context, key string) error {
	_, err := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("objectstore: delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the bucket is reachable with the configured credentials.
func (store *S3Store) Ping(ctx context.Context) error {
	_, err := store.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(store.bucket)})
	if err != nil {
		return fmt.Errorf("objectstore: bucket %s unreachable: %w", store.bucket, err)
	}
	return nil
}

// URL returns the public URL of key.
func (store *S3Store) URL(key string) string {
	escaped := make([]string, 0, strings.Count(key, "/")+1)
	for _, segment := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return store.publicURL + "/" + strings.Join(escaped, "/")
}

// publicBase picks the URL prefix objects are served from.
func publicBase(cfg config.S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "" && cfg.UsePathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		endpoint, err := url.Parse(cfg.Endpoint)
		if err == nil && endpoint.Host != "" {
			return endpoint.Scheme + "://" + cfg.Bucket + "." + endpoint.Host
		}
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
