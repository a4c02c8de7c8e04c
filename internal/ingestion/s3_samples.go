package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fmuoria/career-bot/internal/models"
)

// S3Options configures an S3Library. Endpoint is set for S3-compatible
// stores such as R2 or MinIO; KeyID/Secret switch to static credentials.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	KeyID    string
	Secret   string
}

// s3API is the subset of the S3 client the library needs
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Library serves samples stored under a bucket prefix
type S3Library struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Library builds an S3 client from opts and the default AWS chain
func NewS3Library(ctx context.Context, opts S3Options) (*S3Library, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("samples bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.KeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.KeyID, opts.Secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Library(client, opts.Bucket, opts.Prefix), nil
}

func newS3Library(client s3API, bucket, prefix string) *S3Library {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Library{client: client, bucket: bucket, prefix: prefix}
}

// List returns the .pdf and .docx objects directly under the prefix
func (l *S3Library) List(ctx context.Context) ([]models.SampleDocument, error) {
	var samples []models.SampleDocument

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(l.bucket),
		Prefix:    aws.String(l.prefix),
		Delimiter: aws.String("/"),
	}
	for {
		out, err := l.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list samples: %w", err)
		}

		for _, obj := range out.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !IsSampleName(name) {
				continue
			}
			samples = append(samples, models.SampleDocument{
				Name: name,
				Size: aws.ToInt64(obj.Size),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	sortSamples(samples)
	return samples, nil
}

// Open downloads one sample
func (l *S3Library) Open(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateSampleName(name); err != nil {
		return nil, err
	}

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.prefix + name),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, name)
		}
		return nil, fmt.Errorf("failed to get sample %s: %w", name, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read sample %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
