package azureblob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/image-cache-server/pkg/e"
	"github.com/terrycain/image-cache-server/pkg/s"
	"github.com/terrycain/image-cache-server/pkg/utils"
)

// Backend lists one blob container. The bucket option names the container, the access key is the storage
// account name and the secret key is the account key.
type Backend struct {
	Client *azblob.Client

	container  string
	serviceURL string
}

func New(opts s.StoreOptions) (*Backend, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("%w: azureblob needs an account name, account key and container", e.ErrConfigMissing)
	}

	serviceURL := strings.TrimSuffix(opts.Endpoint, "/")
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", opts.AccessKey)
	} else if parsedURL, err := url.Parse(serviceURL); err != nil || parsedURL.Host == "" ||
		(parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", e.ErrInvalidEndpoint, opts.Endpoint)
	}

	creds, err := azblob.NewSharedKeyCredential(opts.AccessKey, opts.SecretKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL+"/", creds, nil)
	if err != nil {
		return nil, err
	}

	backend := Backend{
		Client:     client,
		container:  opts.Bucket,
		serviceURL: serviceURL,
	}
	return &backend, nil
}

func (b *Backend) Type() string {
	return "azureblob"
}

func (b *Backend) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.serviceURL, b.container, utils.EscapeKey(key))
}

// ListAll walks the flat blob listing page by page, following the service's continuation marker.
func (b *Backend) ListAll(ctx context.Context, prefix string) ([]s.ObjectEntry, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if listPrefix := utils.ListPrefix(prefix); listPrefix != "" {
		opts.Prefix = to.Ptr(listPrefix)
	}

	entries := make([]s.ObjectEntry, 0)
	pages := 0
	pager := b.Client.NewListBlobsFlatPager(b.container, opts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrStoreUnavailable, err)
		}
		pages++

		if resp.Segment == nil {
			continue
		}
		for _, blob := range resp.Segment.BlobItems {
			if blob == nil || blob.Name == nil {
				continue
			}
			entries = append(entries, s.ObjectEntry{Key: *blob.Name, URL: b.ObjectURL(*blob.Name)})
		}
	}

	log.Debug().Str("prefix", prefix).Int("pages", pages).Int("objects", len(entries)).Msg("Listed container")
	return entries, nil
}
