package gateway

//go:generate mockgen -destination=mock_gateway/mock_gateway.go -package=mock_gateway github.com/terrycain/image-cache-server/pkg/gateway Gateway

import (
	"context"
	"fmt"

	"github.com/terrycain/image-cache-server/pkg/e"
	awss3 "github.com/terrycain/image-cache-server/pkg/gateway/aws-s3"
	"github.com/terrycain/image-cache-server/pkg/gateway/azureblob"
	"github.com/terrycain/image-cache-server/pkg/gateway/minio"
	"github.com/terrycain/image-cache-server/pkg/s"
)

// Gateway lists a single bucket. Implementations drain every page before returning and wrap backing store
// failures in e.ErrStoreUnavailable.
type Gateway interface {
	Type() string
	ListAll(ctx context.Context, prefix string) ([]s.ObjectEntry, error)
}

func GetGateway(backend string, opts s.StoreOptions) (Gateway, error) {
	var gw Gateway
	var err error

	switch backend {
	case "s3":
		gw, err = awss3.New(opts)
	case "minio":
		gw, err = minio.New(opts)
	case "azureblob":
		gw, err = azureblob.New(opts)
	default:
		return nil, fmt.Errorf("%w: %s", e.ErrInvalidBackend, backend)
	}

	if err != nil {
		return nil, err
	}
	return gw, nil
}
