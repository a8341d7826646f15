// Package minio lists buckets on MinIO or any other S3 compatible server through minio-go.
package minio

import (
	"context"
	"fmt"
	"net/url"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/terrycain/image-cache-server/pkg/e"
	"github.com/terrycain/image-cache-server/pkg/s"
	"github.com/terrycain/image-cache-server/pkg/utils"
)

// Backend is safe for concurrent use by multiple goroutines.
type Backend struct {
	Client *miniogo.Client

	bucket  string
	baseURL string
}

func New(opts s.StoreOptions) (*Backend, error) {
	parsedURL, err := url.Parse(opts.Endpoint)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, fmt.Errorf("%w: minio needs an http(s) endpoint, got %q", e.ErrInvalidEndpoint, opts.Endpoint)
	}

	client, err := miniogo.New(parsedURL.Host, &miniogo.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: parsedURL.Scheme == "https",
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	backend := Backend{
		Client:  client,
		bucket:  opts.Bucket,
		baseURL: parsedURL.Scheme + "://" + parsedURL.Host,
	}
	return &backend, nil
}

func (b *Backend) Type() string {
	return "minio"
}

func (b *Backend) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.bucket, utils.EscapeKey(key))
}

// ListAll walks the bucket recursively; minio-go follows continuation tokens internally.
func (b *Backend) ListAll(ctx context.Context, prefix string) ([]s.ObjectEntry, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := miniogo.ListObjectsOptions{
		Prefix:    utils.ListPrefix(prefix),
		Recursive: true,
	}

	entries := make([]s.ObjectEntry, 0)
	for obj := range b.Client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, obj.Err)
		}
		entries = append(entries, s.ObjectEntry{Key: obj.Key, URL: b.ObjectURL(obj.Key)})
	}
	return entries, nil
}
