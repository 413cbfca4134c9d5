package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxSize is the largest accepted avatar image.
const MaxSize = 2 << 20

var (
	ErrDisabled        = errors.New("avatar storage not configured")
	ErrTooLarge        = errors.New("avatar exceeds 2 MiB")
	ErrUnsupportedType = errors.New("avatar must be png, jpeg, webp or gif")
	ErrEmpty           = errors.New("avatar is empty")
)

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are served from. When empty the
	// URL is derived from Endpoint and Bucket.
	PublicURL string
}

// Store uploads profile avatars to object storage.
type Store struct {
	cfg    Config
	client s3Client
	logger *slog.Logger
}

// NewStore returns a Store. Without bucket and credentials every upload
// fails with ErrDisabled.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	s := &Store{cfg: cfg, logger: logger}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		s.client = newS3Client(cfg)
	}
	return s
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether uploads can succeed.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Upload validates data, stores it under avatars/{profileID}/ and returns
// its public URL. A previous avatar hosted by this store is removed.
func (s *Store) Upload(ctx context.Context, profileID string, data []byte, previousURL string) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}
	contentType, err := Detect(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", profileID, uuid.NewString(), extensions[contentType])
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if old, ok := s.keyFor(previousURL); ok && old != key {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(old),
		}); err != nil {
			s.logger.Warn("delete old avatar", "key", old, "error", err)
		}
	}

	return s.urlFor(key), nil
}

// Detect sniffs the image type and enforces the size limit.
func Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if _, ok := extensions[ct]; !ok {
		return "", ErrUnsupportedType
	}
	return ct, nil
}

func (s *Store) baseURL() string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/")
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.Bucket, s.cfg.Region)
}

func (s *Store) urlFor(key string) string {
	return s.baseURL() + "/" + key
}

// keyFor recovers the object key from a URL this store produced.
func (s *Store) keyFor(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL()+"/")
	if !ok || !strings.HasPrefix(key, "avatars/") {
		return "", false
	}
	return key, true
}
