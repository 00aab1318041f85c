package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"lambda-events/internal/config"
	"lambda-events/pkg/events"
)

// DefaultMaxBytes bounds how much of an object Fetch reads into memory.
const DefaultMaxBytes = 10 * 1024 * 1024

// ErrTooLarge is returned when an object exceeds the fetch limit.
var ErrTooLarge = errors.New("object exceeds fetch limit")

// GetObjectAPI is the subset of the S3 client the fetcher uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object is an S3 object referenced by a notification record.
type Object struct {
	Bucket      string
	Key         string
	VersionID   string
	ContentType string
	ETag        string
	Body        []byte
}

// NewClient builds an S3 client from the default credential chain. An
// endpoint override targets S3-compatible stores such as MinIO.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.S3PathStyle
		},
	}
	if cfg.S3Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// Fetcher reads the objects named in S3 notification records.
type Fetcher struct {
	client   GetObjectAPI
	maxBytes int64
}

// NewFetcher creates a fetcher. A non-positive maxBytes uses DefaultMaxBytes.
func NewFetcher(client GetObjectAPI, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch downloads the object of record, pinned to the notified version when
// the bucket is versioned.
func (f *Fetcher) Fetch(ctx context.Context, record events.S3EventRecord) (*Object, error) {
	key, err := record.S3.Object.DecodedKey()
	if err != nil {
		return nil, err
	}

	bucket := record.S3.Bucket.Name
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if v := record.S3.Object.VersionID; v != "" {
		input.VersionId = aws.String(v)
	}

	out, err := f.client.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("getting object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading object s3://%s/%s: %w", bucket, key, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: s3://%s/%s", ErrTooLarge, bucket, key)
	}

	return &Object{
		Bucket:      bucket,
		Key:         key,
		VersionID:   aws.ToString(out.VersionId),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
		Body:        body,
	}, nil
}
