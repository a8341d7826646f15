package e

import "errors"

var (
	ErrStoreUnavailable = errors.New("object store unavailable")
	ErrInvalidBackend   = errors.New("invalid store backend")
	ErrInvalidEndpoint  = errors.New("invalid store endpoint")
	ErrConfigMissing    = errors.New("missing required configuration")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
