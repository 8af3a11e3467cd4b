package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 answers the handful of S3 calls the export store makes.
type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return xmlResponse(http.StatusOK, b.String()), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return xmlResponse(http.StatusNotFound, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`), nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(body)),
			Header:     http.Header{"Content-Length": {fmt.Sprint(len(body))}},
		}, nil
	case http.MethodDelete:
		delete(f.objects, key)
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	return xmlResponse(http.StatusNotImplemented, `<Error><Code>NotImplemented</Code></Error>`), nil
}

func xmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/xml"}},
	}
}

func newFakeS3Store(fake *fakeS3) *S3ExportStore {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
		HTTPClient:   &http.Client{Transport: fake},
		UsePathStyle: true,
		BaseEndpoint: aws.String("https://s3.test"),
	})
	return newS3ExportStore(client, "exports-bucket", "canteen")
}

func TestS3ExportStore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	store := newFakeS3Store(fake)
	version := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

	key, err := store.Save(ctx, "plan-3", version, FormatHTML, []byte("<h1>plan</h1>"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, ok := fake.objects["canteen/"+key]; !ok {
		t.Fatalf("Expected object under prefix, have %v", fake.objects)
	}

	data, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "<h1>plan</h1>" {
		t.Errorf("Expected '<h1>plan</h1>', got '%s'", data)
	}

	if _, err := store.Load(ctx, "missing.md"); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("Expected ErrExportNotFound, got %v", err)
	}

	fake.objects["canteen/plan-4_2025-04-01T09-30-00Z.md"] = []byte("keep")
	if err := store.RemoveStaleVersions(ctx, "plan-3"); err != nil {
		t.Fatalf("RemoveStaleVersions failed: %v", err)
	}
	if _, ok := fake.objects["canteen/"+key]; ok {
		t.Error("Expected plan-3 export to be removed")
	}
	if len(fake.objects) != 1 {
		t.Errorf("Expected only plan-4 to remain, got %d objects", len(fake.objects))
	}
}

func TestNewS3ExportStoreRequiresBucket(t *testing.T) {
	if _, err := NewS3ExportStore(context.Background(), S3Config{}); err == nil {
		t.Error("Expected error for missing bucket")
	}
}
