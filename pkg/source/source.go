// Package source fetches translation inputs from the local filesystem,
// HTTP(S) URLs and S3 buckets.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
)

// DefaultMaxBytes caps the size of a single input.
const DefaultMaxBytes int64 = 64 << 20

var (
	ErrTooLarge    = errors.New("source: input exceeds size limit")
	ErrNoS3Client  = errors.New("source: s3 URI given but no S3 client configured")
	ErrBadURI      = errors.New("source: invalid URI")
	ErrHTTPFailure = errors.New("source: unexpected HTTP status")
)

// S3API is the subset of the S3 client used for fetching objects.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher reads inputs by URI.
type Fetcher struct {
	httpClient *http.Client
	s3         S3API
	maxBytes   int64
	logger     logging.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithS3 enables s3:// URIs.
func WithS3(c S3API) Option {
	return func(f *Fetcher) { f.s3 = c }
}

// WithMaxBytes sets the per-input size limit.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithLogger sets the fetcher's logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Fetcher) { f.logger = logging.OrNop(l) }
}

// NewFetcher creates a fetcher for local files and http(s) URLs.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBytes:   DefaultMaxBytes,
		logger:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the full content behind uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	rc, err := f.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, uri, f.maxBytes)
	}
	f.logger.Debug("fetched input", logging.Path(uri), logging.Int("bytes", len(data)))
	return data, nil
}

// Open opens uri for reading. Plain paths and file:// URIs read the local
// filesystem.
func (f *Fetcher) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return os.Open(uri)
	}

	switch strings.ToLower(scheme) {
	case "file":
		return os.Open(rest)
	case "http", "https":
		return f.openHTTP(ctx, uri)
	case "s3":
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("%w: %s (want s3://bucket/key)", ErrBadURI, uri)
		}
		return f.openS3(ctx, bucket, key)
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadURI, scheme)
}

func (f *Fetcher) openHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadURI, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPFailure, uri, resp.StatusCode)
	}
	return resp.Body, nil
}

func (f *Fetcher) openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if f.s3 == nil {
		return nil, ErrNoS3Client
	}
	out, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	if out.ContentLength != nil && *out.ContentLength > f.maxBytes {
		out.Body.Close()
		return nil, fmt.Errorf("%w: s3://%s/%s is %d bytes", ErrTooLarge, bucket, key, *out.ContentLength)
	}
	return out.Body, nil
}

// BaseName is the file name part of uri, used to name outputs.
func BaseName(uri string) string {
	// single-letter schemes are Windows drive letters
	if u, err := url.Parse(uri); err == nil && len(u.Scheme) > 1 {
		return path.Base(u.Path)
	}
	return filepath.Base(uri)
}
