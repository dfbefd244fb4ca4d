package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the subset of S3 used for inputs and outputs
type ObjectStore interface {
	// Get streams an object
	Get(ctx context.Context, uri *S3URI) (io.ReadCloser, error)

	// Download fetches an object with parallel ranged requests
	Download(ctx context.Context, uri *S3URI, w io.WriterAt) (int64, error)

	// Upload writes r to an object, using multipart upload for large bodies
	Upload(ctx context.Context, uri *S3URI, r io.Reader) error
}

// S3Client implements ObjectStore with the AWS SDK
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewS3Client loads the default AWS configuration. An empty region keeps
// whatever the environment or profile selects.
func NewS3Client(ctx context.Context, region string) (*S3Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Client{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = 10 * 1024 * 1024
			u.Concurrency = 3
		}),
		downloader: manager.NewDownloader(client),
	}, nil
}

func (c *S3Client) Get(ctx context.Context, uri *S3URI) (io.ReadCloser, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", uri, err)
	}
	return out.Body, nil
}

func (c *S3Client) Download(ctx context.Context, uri *S3URI, w io.WriterAt) (int64, error) {
	n, err := c.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return n, fmt.Errorf("failed to download %s: %w", uri, err)
	}
	return n, nil
}

func (c *S3Client) Upload(ctx context.Context, uri *S3URI, r io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", uri, err)
	}
	return nil
}
