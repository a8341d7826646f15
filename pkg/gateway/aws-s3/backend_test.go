package awss3

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/go-cmp/cmp"
	"github.com/terrycain/image-cache-server/pkg/e"
	"github.com/terrycain/image-cache-server/pkg/s"
)

// pagedClient serves keys in pages of pageSize, keyed by continuation token.
type pagedClient struct {
	s3iface.S3API

	keys     []string
	pageSize int
	err      error

	prefixes []string
	calls    int
}

func (c *pagedClient) ListObjectsV2WithContext(_ aws.Context, input *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	c.calls++
	c.prefixes = append(c.prefixes, aws.StringValue(input.Prefix))
	if c.err != nil {
		return nil, c.err
	}

	start := 0
	if input.ContinuationToken != nil {
		for i, key := range c.keys {
			if key == *input.ContinuationToken {
				start = i
				break
			}
		}
	}
	end := start + c.pageSize
	if end > len(c.keys) {
		end = len(c.keys)
	}

	output := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(c.keys))}
	for _, key := range c.keys[start:end] {
		output.Contents = append(output.Contents, &s3.Object{Key: aws.String(key)})
	}
	if end < len(c.keys) {
		output.NextContinuationToken = aws.String(c.keys[end])
	}
	return output, nil
}

func getBackend(t *testing.T, client *pagedClient) *Backend {
	t.Helper()
	backend, err := New(s.StoreOptions{Bucket: "photos", Region: "eu-west-1", AccessKey: "test", SecretKey: "test"})
	if err != nil {
		t.Fatal(err)
	}
	backend.Client = client
	return backend
}

func TestListAllDrainsPages(t *testing.T) {
	client := &pagedClient{keys: []string{"a/1.jpg", "a/2.jpg", "b/1.jpg", "b/2.jpg", "c.jpg"}, pageSize: 2}
	backend := getBackend(t, client)

	entries, err := backend.ListAll(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	expected := []s.ObjectEntry{
		{Key: "a/1.jpg", URL: "https://photos.s3.eu-west-1.amazonaws.com/a/1.jpg"},
		{Key: "a/2.jpg", URL: "https://photos.s3.eu-west-1.amazonaws.com/a/2.jpg"},
		{Key: "b/1.jpg", URL: "https://photos.s3.eu-west-1.amazonaws.com/b/1.jpg"},
		{Key: "b/2.jpg", URL: "https://photos.s3.eu-west-1.amazonaws.com/b/2.jpg"},
		{Key: "c.jpg", URL: "https://photos.s3.eu-west-1.amazonaws.com/c.jpg"},
	}
	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Fatalf("ListAll() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(3, client.calls); diff != "" {
		t.Fatalf("page count mismatch (-want +got):\n%s", diff)
	}
}

func TestListAllFolderPrefix(t *testing.T) {
	client := &pagedClient{keys: []string{"a/1.jpg"}, pageSize: 10}
	backend := getBackend(t, client)

	if _, err := backend.ListAll(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := backend.ListAll(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a/", ""}, client.prefixes); diff != "" {
		t.Fatalf("prefix mismatch (-want +got):\n%s", diff)
	}
}

func TestListAllEmptyBucket(t *testing.T) {
	backend := getBackend(t, &pagedClient{pageSize: 10})

	entries, err := backend.ListAll(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("Expected empty non-nil listing, got %#v", entries)
	}
}

func TestListAllStoreUnavailable(t *testing.T) {
	client := &pagedClient{err: awserr.New("AccessDenied", "access denied", nil)}
	backend := getBackend(t, client)

	entries, err := backend.ListAll(context.Background(), "a")
	if !errors.Is(err, e.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %#v", err)
	}
	if entries != nil {
		t.Fatalf("Expected no entries, got %#v", entries)
	}
}

func TestObjectURL(t *testing.T) {
	tables := []struct {
		name     string
		endpoint string
		key      string
		expected string
	}{
		{"aws virtual host", "", "a/1.jpg", "https://photos.s3.eu-west-1.amazonaws.com/a/1.jpg"},
		{"aws escapes key", "", "a/my pic.jpg", "https://photos.s3.eu-west-1.amazonaws.com/a/my%20pic.jpg"},
		{"custom endpoint path style", "http://localhost:4566/", "a/1.jpg", "http://localhost:4566/photos/a/1.jpg"},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			backend, err := New(s.StoreOptions{Bucket: "photos", Region: "eu-west-1", Endpoint: table.endpoint})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(table.expected, backend.ObjectURL(table.key)); diff != "" {
				t.Errorf("ObjectURL() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewInvalidEndpoint(t *testing.T) {
	_, err := New(s.StoreOptions{Bucket: "photos", Region: "eu-west-1", Endpoint: "localhost:4566"})
	if !errors.Is(err, e.ErrInvalidEndpoint) {
		t.Fatalf("Expected ErrInvalidEndpoint, got %#v", err)
	}
}
