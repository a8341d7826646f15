package awss3

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/image-cache-server/pkg/e"
	"github.com/terrycain/image-cache-server/pkg/s"
	"github.com/terrycain/image-cache-server/pkg/utils"
)

type Backend struct {
	Client s3iface.S3API

	bucket   string
	region   string
	endpoint string
}

func New(opts s.StoreOptions) (*Backend, error) {
	config := &aws.Config{
		Region:      aws.String(opts.Region),
		Credentials: credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
	}

	endpoint := strings.TrimSuffix(opts.Endpoint, "/")
	if endpoint != "" {
		parsedURL, err := url.Parse(endpoint)
		if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
			return nil, fmt.Errorf("%w: %s", e.ErrInvalidEndpoint, opts.Endpoint)
		}
		config.Endpoint = aws.String(endpoint)
		config.DisableSSL = aws.Bool(parsedURL.Scheme == "http")
		config.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}

	backend := Backend{
		Client:   s3.New(sess),
		bucket:   opts.Bucket,
		region:   opts.Region,
		endpoint: endpoint,
	}
	return &backend, nil
}

func (b *Backend) Type() string {
	return "s3"
}

// ObjectURL is the public URL of key. Custom endpoints are addressed path-style.
func (b *Backend) ObjectURL(key string) string {
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, utils.EscapeKey(key))
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, utils.EscapeKey(key))
}

// ListAll drains every ListObjectsV2 page under the folder prefix.
func (b *Backend) ListAll(ctx context.Context, prefix string) ([]s.ObjectEntry, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
	if listPrefix := utils.ListPrefix(prefix); listPrefix != "" {
		input.Prefix = aws.String(listPrefix)
	}

	entries := make([]s.ObjectEntry, 0)
	pages := 0
	for {
		output, err := b.Client.ListObjectsV2WithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
		}
		pages++

		for _, obj := range output.Contents {
			key := aws.StringValue(obj.Key)
			entries = append(entries, s.ObjectEntry{Key: key, URL: b.ObjectURL(key)})
		}

		if !aws.BoolValue(output.IsTruncated) || aws.StringValue(output.NextContinuationToken) == "" {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	log.Debug().Str("prefix", prefix).Int("pages", pages).Int("objects", len(entries)).Msg("Listed bucket")
	return entries, nil
}
