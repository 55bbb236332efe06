package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/model"
)

// S3API is the subset of the S3 client the backend calls.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	client  S3API
	bucket  string
	baseURL string
	maxSize int64
	now     func() time.Time
}

type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string // set for S3-compatible stores (MinIO, localstack)
	// AccessKey/SecretKey override the default credential chain when both
	// are set.
	AccessKey string
	SecretKey string
	MaxSize   int64
}

// NewS3 loads AWS configuration from the default chain. A custom endpoint
// switches to path-style addressing.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	switch {
	case opts.Region != "":
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	case opts.Endpoint != "":
		loadOpts = append(loadOpts, awsconfig.WithRegion("us-east-1"))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, cfg.Region)
	if opts.Endpoint != "" {
		baseURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return NewS3WithClient(client, opts.Bucket, baseURL, opts.MaxSize), nil
}

func NewS3WithClient(client S3API, bucket, baseURL string, maxSize int64) *S3 {
	return &S3{client: client, bucket: bucket, baseURL: baseURL, maxSize: maxSize, now: time.Now}
}

func (s *S3) Save(ctx context.Context, name string, r io.Reader) (model.Attachment, error) {
	kind, err := KindOf(name)
	if err != nil {
		return model.Attachment{}, err
	}
	// PutObject needs a seekable or sized body; buffer within the size cap.
	body, err := io.ReadAll(&limitedReader{r: r, max: s.maxSize})
	if err != nil {
		return model.Attachment{}, fmt.Errorf("storage: read %s: %w", name, err)
	}
	now := s.now()
	id := StoredName(name, now)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(id),
		Body:          strings.NewReader(string(body)),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata:      map[string]string{"original-name": name},
	})
	if err != nil {
		return model.Attachment{}, fmt.Errorf("storage: put %s: %w", id, err)
	}
	return model.Attachment{
		ID:         id,
		Name:       name,
		URL:        s.baseURL + "/" + id,
		Kind:       kind,
		Size:       int64(len(body)),
		UploadedAt: now,
	}, nil
}

func (s *S3) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errs.ErrFileNotFound
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(id)})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return errs.ErrFileNotFound
		}
		return fmt.Errorf("storage: head %s: %w", id, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(id)}); err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}
