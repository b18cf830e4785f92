// Package storage keeps copies of rendered broadcasts in S3 so the exact
// HTML each visitor received can be looked up later.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// s3API is the slice of the S3 client the archive uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Archive writes rendered broadcasts to a bucket under prefix.
type S3Archive struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Archive loads the default AWS config for region and returns an
// archive writing to bucket.
func NewS3Archive(ctx context.Context, bucket, region, prefix string) (*S3Archive, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newS3Archive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3Archive(client s3API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a broadcast.
func (a *S3Archive) Key(kind domain.BroadcastKind, id int64) string {
	return path.Join(a.prefix, string(kind)+"s", strconv.FormatInt(id, 10)+".html")
}

// Put stores the rendered HTML of broadcast id.
func (a *S3Archive) Put(ctx context.Context, kind domain.BroadcastKind, id int64, html string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(kind, id)),
		Body:        bytes.NewReader([]byte(html)),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"archived-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (a *S3Archive) Ping(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("HeadBucket failed: %w", err)
	}
	return nil
}
