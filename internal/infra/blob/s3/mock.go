package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewMockForTests returns a Store whose client talks to an in-process fake
// bucket. Only the object calls used by Store are answered.
func NewMockForTests() *Store {
	fake := &fakeBucket{objects: make(map[string]fakeObject)}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(defaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	hc := &http.Client{Transport: fake}
	return &Store{
		client: s3.NewFromConfig(cfg, clientOptions("https://mock.s3.local", true, hc)),
		bucket: "mock-bucket",
	}
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	puts    int
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
	etag        string
}

func (f *fakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// path-style: /<bucket>/<key>
	_, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req.URL.Query().Get("prefix")), nil
	case req.Method == http.MethodGet, req.Method == http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return reply(http.StatusNotFound, nil, nil), nil
		}
		if req.Method == http.MethodHead {
			return reply(http.StatusOK, obj.headers(), nil), nil
		}
		return reply(http.StatusOK, obj.headers(), obj.body), nil
	case req.Method == http.MethodPut:
		return f.put(key, req), nil
	case req.Method == http.MethodDelete:
		delete(f.objects, key)
		return reply(http.StatusNoContent, nil, nil), nil
	}
	return reply(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeBucket) put(key string, req *http.Request) *http.Response {
	body, _ := io.ReadAll(req.Body)
	if plain, ok := decodeAWSChunked(body); ok {
		body = plain
	}
	f.puts++
	obj := fakeObject{
		body:        body,
		contentType: req.Header.Get("Content-Type"),
		metadata:    map[string]string{},
		etag:        "etag-" + strconv.Itoa(f.puts),
	}
	for name, vals := range req.Header {
		if meta, ok := strings.CutPrefix(strings.ToLower(name), "x-amz-meta-"); ok && len(vals) > 0 {
			obj.metadata[meta] = vals[0]
		}
	}
	f.objects[key] = obj
	return reply(http.StatusOK, http.Header{"ETag": {strconv.Quote(obj.etag)}}, nil)
}

func (f *fakeBucket) list(prefix string) *http.Response {
	keys := slices.Sorted(maps.Keys(f.objects))
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>",
			k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return reply(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(b.String()))
}

func (o fakeObject) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Length", strconv.Itoa(len(o.body)))
	h.Set("Content-Type", o.contentType)
	h.Set("ETag", strconv.Quote(o.etag))
	h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	for k, v := range o.metadata {
		h.Set("X-Amz-Meta-"+k, v)
	}
	return h
}

func reply(status int, h http.Header, body []byte) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(bytes.NewReader(body))}
}

// decodeAWSChunked unwraps a single-chunk aws-chunked upload body
// ("<hex size>\r\n<data>\r\n0\r\n<trailers>").
func decodeAWSChunked(b []byte) ([]byte, bool) {
	size, rest, ok := strings.Cut(string(b), "\r\n")
	if !ok {
		return nil, false
	}
	n, err := strconv.ParseInt(size, 16, 64)
	if err != nil || n < 0 || int64(len(rest)) < n+2 {
		return nil, false
	}
	data, tail := rest[:n], rest[n:]
	if !strings.HasPrefix(tail, "\r\n0\r\n") {
		return nil, false
	}
	return []byte(data), true
}
