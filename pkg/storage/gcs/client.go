package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/primefit/storefront/pkg/config"
	"github.com/primefit/storefront/pkg/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	pingTimeout = 5 * time.Second

	// CacheControlImmutable is used for uploaded images; object names carry a
	// timestamp so content never changes under a URL.
	CacheControlImmutable = "public, max-age=31536000, immutable"
)

type Client struct {
	client        *storage.Client
	defaultBucket string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Object describes one write to the bucket.
type Object struct {
	Path         string
	ContentType  string
	CacheControl string
	Body         io.Reader
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	sc, err := storage.NewClient(ctx, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient failed: %w", err)
	}

	client := &Client{
		client:        sc,
		defaultBucket: strings.TrimSpace(cfg.BucketName),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", client.defaultBucket), "gcs client initialized")
	}
	return client, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Upload writes obj to the default bucket and returns its public URL.
func (c *Client) Upload(ctx context.Context, obj Object) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gcs client not initialized")
	}
	path := strings.TrimLeft(strings.TrimSpace(obj.Path), "/")
	if path == "" {
		return "", errors.New("object path is required")
	}
	if obj.Body == nil {
		return "", errors.New("object body is required")
	}

	w := c.client.Bucket(c.defaultBucket).Object(path).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.CacheControl = obj.CacheControl
	if _, err := io.Copy(w, obj.Body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing object %q: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing object %q: %w", path, err)
	}
	return c.PublicURL(path), nil
}

// PublicURL builds the browser-facing URL for an object in the default bucket.
func (c *Client) PublicURL(path string) string {
	if c == nil {
		return ""
	}
	return PublicURL(c.publicBaseURL, c.defaultBucket, path)
}

// PublicURL joins base, bucket and an escaped object path.
func PublicURL(base, bucket, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, strings.Join(segments, "/"))
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping lists at most one object, which needs storage.objects.list on the bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	it := c.client.Bucket(c.defaultBucket).Objects(ctx, &storage.Query{})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("gcs object check failed: %w", err)
	}
	return nil
}
