package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"docparse/internal/config"
	"docparse/internal/domain"
	"docparse/internal/storage"
)

// Scheme is the location prefix handled by this loader.
const Scheme = "s3"

// ObjectAPI is the subset of the S3 client the loader needs.
type ObjectAPI interface {
	manager.DownloadAPIClient
	s3.HeadObjectAPIClient
}

// Loader reads batch documents addressed as s3://bucket/key.
type Loader struct {
	client     s3.HeadObjectAPIClient
	downloader *manager.Downloader
}

// NewLoader creates an S3-backed Loader from config.
func NewLoader(cfg *config.S3Config) (*Loader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewLoaderWithClient(s3.NewFromConfig(awsCfg, s3Opts...)), nil
}

// NewLoaderWithClient creates a Loader over an existing object client (for testing).
func NewLoaderWithClient(client ObjectAPI) *Loader {
	return &Loader{
		client: client,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
	}
}

// ParseLocation splits s3://bucket/key into its bucket and key.
func ParseLocation(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, Scheme+"://")
	if !ok {
		return "", "", fmt.Errorf("%w: not an s3 location: %s", domain.ErrInvalidInput, location)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 location needs a bucket and a key: %s", domain.ErrInvalidInput, location)
	}
	return bucket, key, nil
}

func (l *Loader) Load(ctx context.Context, location string) (*domain.Document, error) {
	bucket, key, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	// reject unsupported extensions before downloading anything
	if _, err := domain.ContentTypeForExtension(extension(key)); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, location)
	}

	head, err := l.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, location)
		}
		return nil, fmt.Errorf("s3 head %s: %w", location, err)
	}
	size := aws.ToInt64(head.ContentLength)
	if size > storage.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, location, storage.MaxDocumentBytes)
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	_, err = l.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, location)
		}
		return nil, fmt.Errorf("s3 download %s: %w", location, err)
	}
	return storage.Decode(location, buf.Bytes())
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound)
}

func extension(key string) string {
	i := strings.LastIndex(key, ".")
	if i < 0 || strings.Contains(key[i:], "/") {
		return ""
	}
	return key[i+1:]
}
