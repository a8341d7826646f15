package utils

import "strings"

// CleanFolderName turns a raw folder path from a request into a listing prefix, e.g. " /a/b/ " -> "a/b".
func CleanFolderName(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), "/")
}
