package s

// ObjectEntry is one stored object as exposed to HTTP clients. URL is always derived from Key by the
// gateway that listed it.
type ObjectEntry struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// StoreOptions holds everything a gateway backend needs to reach a bucket.
type StoreOptions struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint is an http(s) URL of an S3 compatible store. Empty means AWS.
	Endpoint string
}
