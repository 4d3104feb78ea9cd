// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with one fixed browser identity, a shared
// cookie jar and response decompression. Every fetcher in the pipeline
// shares a single HTTPFetcher so connections are reused.
package fetch

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/semaphore"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

const (
	defaultTimeout = 30 * time.Second
	// DefaultUserAgent is the browser identity sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36 Edg/113.0.1774.42"
	maxBodySize      = 20 * 1024 * 1024
)

// Options configures an HTTPFetcher. Zero values select the defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// MaxPerHost bounds outstanding requests per host. 0 means unlimited.
	MaxPerHost int
}

// HTTPFetcher fetches web pages and images via HTTP.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client     *http.Client
	userAgent  string
	maxPerHost int

	mu    sync.Mutex
	hosts map[string]*semaphore.Weighted
}

// New creates an HTTPFetcher with a cookie jar and the given options.
func New(opts Options) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	log.Info().Str("target", "fetch").Int("max_per_host", opts.MaxPerHost).Msg("creating client")
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
			// Decompression is handled in decodeBody so that br and
			// deflate are covered alongside gzip.
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:  opts.UserAgent,
		maxPerHost: opts.MaxPerHost,
		hosts:      make(map[string]*semaphore.Weighted),
	}, nil
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	body, status, err := f.get(ctx, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	return &core.FetchResult{
		URL:        rawURL,
		StatusCode: status,
		HTML:       string(body),
	}, nil
}

// FetchBytes retrieves the raw body of the given URL (e.g. an image).
func (f *HTTPFetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := f.get(ctx, rawURL, "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	return body, err
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	release, err := f.acquire(ctx, req.URL)
	if err != nil {
		return nil, 0, fmt.Errorf("waiting for %s: %w: %w", req.URL.Host, core.ErrTransport, err)
	}
	defer release()

	log.Debug().Str("target", "fetch").Str("url", rawURL).Msg("GET")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w: %w", rawURL, core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d for %s: %w", resp.StatusCode, rawURL, core.ErrTransport)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w: %w", core.ErrTransport, err)
	}
	return body, resp.StatusCode, nil
}

// acquire takes a per-host slot when MaxPerHost is set.
func (f *HTTPFetcher) acquire(ctx context.Context, u *url.URL) (func(), error) {
	if f.maxPerHost <= 0 {
		return func() {}, nil
	}
	f.mu.Lock()
	sem, ok := f.hosts[u.Host]
	if !ok {
		sem = semaphore.NewWeighted(int64(f.maxPerHost))
		f.hosts[u.Host] = sem
	}
	f.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}

// decodeBody reads the body, undoing any Content-Encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(resp.Body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodySize)
	}
	return body, nil
}
