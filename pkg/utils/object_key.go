package utils

import (
	"net/url"
	"strings"
)

// ListPrefix maps a folder name to the store prefix filter. An empty folder means the whole bucket.
func ListPrefix(folder string) string {
	if folder == "" {
		return ""
	}
	return folder + "/"
}

// EscapeKey escapes each segment of an object key so it can be appended to a URL path.
func EscapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
