// Package objectstore implements the photo store on an S3-compatible
// object store. Photos are stored as objects under a key prefix, with
// title, date and time carried in object metadata, and listed photos
// reference their image through a presigned GET URL instead of inline
// data.
package objectstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dkarimov/petal"
)

const (
	metaTitle = "title"
	metaDate  = "photo-date"
	metaTime  = "photo-time"

	defaultTitle = "Untitled"
)

// Client is the slice of the S3 API the store depends on.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Presigner generates presigned GET URLs for stored objects.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config holds the object store connection settings.
type Config struct {
	// Endpoint overrides the S3 endpoint for S3-compatible services.
	// Empty means AWS.
	Endpoint string
	Region   string
	Bucket   string
	// Prefix namespaces all photo keys, e.g. "photos/"
	Prefix    string
	AccessKey string
	SecretKey string
	// MaxKeys caps a single listing
	MaxKeys int
	// URLExpiry is the presigned URL lifetime in seconds
	URLExpiry int
}

type Store struct {
	client    Client
	presigner Presigner
	bucket    string
	prefix    string
	maxKeys   int32
	urlExpiry time.Duration
}

// New builds a store over a real S3 client from the given config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new object store: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("new object store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, s3.NewPresignClient(client), cfg)
}

// NewWithClient builds a store over an existing client. Tests use this
// to substitute a fake.
func NewWithClient(client Client, presigner Presigner, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new object store: bucket is required")
	}

	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	urlExpiry := time.Duration(cfg.URLExpiry) * time.Second
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}

	return &Store{
		client:    client,
		presigner: presigner,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		maxKeys:   int32(maxKeys),
		urlExpiry: urlExpiry,
	}, nil
}

// classify maps connectivity failures to petal.ErrUnavailable so the
// boundary can answer 503 during deployment windows.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", petal.ErrUnavailable, err)
	}

	return err
}

// Ping verifies the bucket is reachable
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Create decodes the submitted image, uploads it under a fresh key and
// returns the stored photo. The returned Image field is a presigned GET
// URL, not the raw data.
func (s *Store) Create(ctx context.Context, p petal.CreatePhoto) (petal.Photo, error) {
	data, contentType, err := decodeImage(p.ImageData)
	if err != nil {
		return petal.Photo{}, fmt.Errorf("create: %w: %v", petal.ErrInvalidInput, err)
	}

	key := s.prefix + uuid.New().String() + extensionFor(contentType)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metaTitle: p.Title,
			metaDate:  p.Date,
			metaTime:  p.Time,
		},
	})
	if err != nil {
		return petal.Photo{}, fmt.Errorf("create: %w", classify(err))
	}

	// The service's LastModified is the photo's CreatedAt. Read it back
	// so the create response carries the same timestamp a later listing
	// reconstructs.
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return petal.Photo{}, fmt.Errorf("create: head: %w", classify(err))
	}

	createdAt := time.Now().UTC()
	if head.LastModified != nil {
		createdAt = *head.LastModified
	}

	imageURL, err := s.presignGet(ctx, key)
	if err != nil {
		return petal.Photo{}, fmt.Errorf("create: %w", err)
	}

	return petal.Photo{
		ID:        key,
		Title:     p.Title,
		Date:      p.Date,
		Time:      p.Time,
		Image:     imageURL,
		CreatedAt: createdAt,
	}, nil
}

// List returns all photos under the prefix, newest first. Each entry
// needs a HeadObject round trip for its metadata; objects uploaded
// outside this service list with defaults derived from the object
// itself.
func (s *Store) List(ctx context.Context) ([]petal.Photo, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.prefix),
		MaxKeys: aws.Int32(s.maxKeys),
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", classify(err))
	}

	photos := make([]petal.Photo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		key := *obj.Key

		head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			// The object may have been deleted between the listing
			// and the head call
			var notFound *types.NotFound
			if errors.As(err, &notFound) {
				continue
			}
			return nil, fmt.Errorf("list: head %s: %w", key, classify(err))
		}

		var lastModified time.Time
		if obj.LastModified != nil {
			lastModified = *obj.LastModified
		}

		photo := photoFromMetadata(key, head.Metadata, lastModified)

		photo.Image, err = s.presignGet(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}

		photos = append(photos, photo)
	}

	sort.Slice(photos, func(i, j int) bool {
		return photos[i].CreatedAt.After(photos[j].CreatedAt)
	})

	return photos, nil
}

// Delete removes the object with the given key. DeleteObject succeeds
// for absent keys, so existence is checked first to keep deletes of
// unknown photos observable as not-found.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("delete: %w", petal.ErrNotFound)
		}
		return fmt.Errorf("delete: head: %w", classify(err))
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete: %w", classify(err))
	}

	return nil
}

func (s *Store) presignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// photoFromMetadata reconstructs a photo from object metadata. S3
// lowercases metadata keys on the way back.
func photoFromMetadata(key string, metadata map[string]string, lastModified time.Time) petal.Photo {
	photo := petal.Photo{
		ID:        key,
		Title:     defaultTitle,
		CreatedAt: lastModified,
	}

	if title, ok := metadata[metaTitle]; ok && title != "" {
		photo.Title = title
	}
	if date, ok := metadata[metaDate]; ok && date != "" {
		photo.Date = date
	} else {
		photo.Date = lastModified.Format("2006-01-02")
	}
	if tm, ok := metadata[metaTime]; ok && tm != "" {
		photo.Time = tm
	} else {
		photo.Time = lastModified.Format("15:04")
	}

	return photo
}

// decodeImage accepts either a data URI ("data:image/png;base64,...")
// or bare base64 and returns the raw bytes plus the content type.
func decodeImage(imageData string) ([]byte, string, error) {
	contentType := "image/jpeg"
	payload := imageData

	if strings.HasPrefix(imageData, "data:") {
		rest := strings.TrimPrefix(imageData, "data:")
		header, encoded, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.New("malformed data uri")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", errors.New("data uri must be base64 encoded")
		}
		if ct := strings.TrimSuffix(header, ";base64"); ct != "" {
			contentType = ct
		}
		payload = encoded
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image")
	}

	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
