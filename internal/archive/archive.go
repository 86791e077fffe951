// Package archive uploads snapshot artifacts to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eduardosasso/bullish/internal/logger"
)

// Archiver stores finished snapshot files somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, ts time.Time, paths ...string) error
}

// Options configure the S3 client.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads each file under a YYYY-MM/ prefix of the scan month.
type S3Archiver struct {
	client putObjectAPI
	bucket string
	log    *logger.Entry
}

// NewS3Archiver builds an S3 client from opts. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Archiver(ctx context.Context, opts Options, log *logger.Log) (*S3Archiver, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Archiver{client: client, bucket: bucket, log: log.WithComponent("archive")}, nil
}

// Key returns the object key for path in the month of ts.
func Key(ts time.Time, path string) string {
	return ts.Format("2006-01") + "/" + filepath.Base(path)
}

// Archive uploads every path. It stops at the first failure.
func (a *S3Archiver) Archive(ctx context.Context, ts time.Time, paths ...string) error {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		key := Key(ts, p)
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(p)),
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		a.log.WithFields(logger.Fields{
			"s3_key": key,
			"bytes":  len(data),
		}).Info("snapshot archived")
	}
	return nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Noop discards archive requests.
type Noop struct{}

func (Noop) Archive(context.Context, time.Time, ...string) error { return nil }
