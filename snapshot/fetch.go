package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 4 << 20
)

// Config configures a Fetcher. URL is the only required field.
type Config struct {
	URL          string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Client       *http.Client
}

// Fetcher issues one GET per call against a URL fixed at construction time.
type Fetcher struct {
	url       string
	timeout   time.Duration
	userAgent string
	maxBody   int64
	client    *http.Client
}

// NewFetcher validates the target URL and applies defaults. A negative Timeout
// disables the per-request deadline.
func NewFetcher(cfg Config) (*Fetcher, error) {
	target, err := ValidateURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < 0 {
		timeout = 0
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		url:       target,
		timeout:   timeout,
		userAgent: strings.TrimSpace(cfg.UserAgent),
		maxBody:   maxBody,
		client:    client,
	}, nil
}

// ValidateURL requires an absolute http(s) URL with a host. Path and query are
// kept as configured.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("api url is empty")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("api url %q must use http or https", trimmed)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", fmt.Errorf("api url %q must include a host", trimmed)
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String(), nil
}

// URL returns the validated request target.
func (f *Fetcher) URL() string {
	if f == nil {
		return ""
	}
	return f.url
}

// Fetch performs one request and decodes the body. Every failure is either a
// *FetchError or a *ParseError.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("build request: %w", err)}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &ParseError{URL: f.url, Err: fmt.Errorf("body exceeds %s limit", humanize.IBytes(uint64(f.maxBody)))}
	}

	snap, err := Decode(body)
	if err != nil {
		return nil, &ParseError{URL: f.url, Err: err}
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}
