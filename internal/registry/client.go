// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	awsx "github.com/staranto/cargo2port/internal/aws"
	"github.com/staranto/cargo2port/internal/cacheutil"
	"github.com/staranto/cargo2port/internal/lockfile"
)

// DefaultIndexURL is the crates.io sparse index.
const DefaultIndexURL = "https://index.crates.io/"

const defaultRetries = 3

// ObjectGetter is the part of the S3 client used to read mirrored archives.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// Client fetches crate archives. It is safe for concurrent use.
type Client struct {
	indexURL    string
	downloadURL string
	http        *retryablehttp.Client
	cache       bool
	awsOpts     []awsx.Option
	s3Opts      []func(*s3v2.Options)

	mu       sync.Mutex
	template string
	s3       ObjectGetter
}

// Option configures a Client.
type Option func(*Client)

// WithIndexURL sets the sparse index root whose config.json names the
// download location.
func WithIndexURL(u string) Option {
	return func(c *Client) { c.indexURL = u }
}

// WithDownloadURL skips the index lookup and uses u as the download template,
// or as an S3 mirror when it starts with s3://.
func WithDownloadURL(u string) Option {
	return func(c *Client) { c.downloadURL = u }
}

// WithHTTPClient sets the transport used beneath the retrying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http.HTTPClient = hc }
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.http.RetryMax = max(n, 0) }
}

// WithRetryWait bounds the backoff between retries.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

// WithCache turns the on-disk archive cache on or off.
func WithCache(enabled bool) Option {
	return func(c *Client) { c.cache = enabled }
}

// WithS3Client sets the client used for s3:// download locations.
func WithS3Client(s3 ObjectGetter) Option {
	return func(c *Client) { c.s3 = s3 }
}

// WithAWSOptions are applied when the S3 client is built on first use.
func WithAWSOptions(opts ...awsx.Option) Option {
	return func(c *Client) { c.awsOpts = append(c.awsOpts, opts...) }
}

// WithS3Options are passed to the S3 client built on first use.
func WithS3Options(optFns ...func(*s3v2.Options)) Option {
	return func(c *Client) { c.s3Opts = append(c.s3Opts, optFns...) }
}

// New returns a Client for crates.io unless options say otherwise.
func New(opts ...Option) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = defaultRetries
	hc.Logger = leveledLogger{}
	// Hand back the last response once retries run out so the status is
	// reported.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		indexURL: DefaultIndexURL,
		http:     hc,
		cache:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lockfile fetches the archive of name@version and returns the Cargo.lock it
// ships.
func (c *Client) Lockfile(ctx context.Context, name, version string) (*lockfile.Lockfile, error) {
	archive, err := c.Fetch(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return ExtractLockfile(archive, name, version)
}

// Fetch returns the .crate archive of name@version, from the cache when
// possible.
func (c *Client) Fetch(ctx context.Context, name, version string) ([]byte, error) {
	if strings.HasPrefix(c.downloadURL, "s3://") {
		return c.fetchS3(ctx, name, version)
	}

	u, err := c.DownloadURL(ctx, name, version)
	if err != nil {
		return nil, err
	}

	subdirs := cacheSubdirs(u)
	if data, ok := c.readCache(subdirs, u); ok {
		return data, nil
	}

	data, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	log.Infof("fetched %s@%s (%s)", name, version, humanize.Bytes(uint64(len(data))))

	c.writeCache(subdirs, u, data)
	return data, nil
}

func (c *Client) fetchS3(ctx context.Context, name, version string) ([]byte, error) {
	loc, err := awsx.ParseLocation(c.downloadURL)
	if err != nil {
		return nil, err
	}
	key := loc.Key(name, name+"-"+version+".crate")
	u := "s3://" + loc.Bucket + "/" + key

	subdirs := []string{"crates", loc.Bucket}
	if data, ok := c.readCache(subdirs, u); ok {
		return data, nil
	}

	s3, err := c.s3Client(ctx)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	out, err := s3.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(loc.Bucket),
		Key:    awsv2.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, &FetchError{URL: u, StatusCode: http.StatusNotFound, Err: err}
		}
		return nil, &FetchError{URL: u, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	log.Infof("fetched %s@%s from %s (%s)", name, version, loc.Bucket, humanize.Bytes(uint64(len(data))))

	c.writeCache(subdirs, u, data)
	return data, nil
}

func (c *Client) s3Client(ctx context.Context) (ObjectGetter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s3 != nil {
		return c.s3, nil
	}
	cfg, err := awsx.LoadAWSConfig(ctx, c.awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	c.s3 = awsx.NewS3(cfg, c.s3Opts...)
	return c.s3, nil
}

// DownloadURL returns where the archive of name@version is served from.
func (c *Client) DownloadURL(ctx context.Context, name, version string) (string, error) {
	tmpl, err := c.downloadTemplate(ctx)
	if err != nil {
		return "", err
	}
	return ExpandTemplate(tmpl, name, version)
}

// downloadTemplate reads the dl key of the index config.json once.
func (c *Client) downloadTemplate(ctx context.Context) (string, error) {
	if c.downloadURL != "" {
		return c.downloadURL, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.template != "" {
		return c.template, nil
	}

	index := strings.TrimPrefix(c.indexURL, "sparse+")
	u := strings.TrimSuffix(index, "/") + "/config.json"
	body, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}

	dl := gjson.GetBytes(body, "dl")
	if !dl.Exists() || dl.String() == "" {
		return "", &FetchError{URL: u, Err: errors.New("registry config has no dl entry")}
	}

	c.template = dl.String()
	log.Debugf("download template from %s: %s", u, c.template)
	return c.template, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", "cargo2port")

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	return body, nil
}

func (c *Client) readCache(subdirs []string, key string) ([]byte, bool) {
	if !c.cache {
		return nil, false
	}
	entry, ok := cacheutil.Read(subdirs, key)
	if !ok {
		return nil, false
	}
	log.Debugf("cache hit: %s", entry.Path)
	return entry.Data, true
}

func (c *Client) writeCache(subdirs []string, key string, data []byte) {
	if !c.cache {
		return
	}
	if err := cacheutil.Write(subdirs, key, data); err != nil {
		log.WithError(err).Warn("failed to write archive to cache")
	}
}

func cacheSubdirs(u string) []string {
	host := "default"
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	return []string{"crates", host}
}

// ExpandTemplate fills a registry dl template the way Cargo does. A template
// without markers gets /{crate}/{version}/download appended.
func ExpandTemplate(tmpl, name, version string) (string, error) {
	if strings.Contains(tmpl, "{sha256-checksum}") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedTemplate, tmpl)
	}

	markers := []string{"{crate}", "{version}", "{prefix}", "{lowerprefix}"}
	found := false
	for _, m := range markers {
		if strings.Contains(tmpl, m) {
			found = true
			break
		}
	}
	if !found {
		return strings.TrimSuffix(tmpl, "/") + "/" + name + "/" + version + "/download", nil
	}

	prefix := IndexPrefix(name)
	r := strings.NewReplacer(
		"{crate}", name,
		"{version}", version,
		"{prefix}", prefix,
		"{lowerprefix}", strings.ToLower(prefix),
	)
	return r.Replace(tmpl), nil
}

// IndexPrefix is the directory prefix Cargo's index layout uses for a crate
// name: "1", "2", "3/a", or the first two and next two characters.
func IndexPrefix(name string) string {
	switch len(name) {
	case 0:
		return ""
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3/" + name[:1]
	default:
		return name[:2] + "/" + name[2:4]
	}
}

// leveledLogger sends retryablehttp's logging through apex.
type leveledLogger struct{}

func fields(keysAndValues []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}

func (leveledLogger) Error(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Error(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Warn(msg) }
