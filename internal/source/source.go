// Package source loads the front-end text that holds the catalog array,
// either from a local file or over HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// ErrEmptySource is returned when a location yields no usable text.
var ErrEmptySource = errors.New("source is empty")

const defaultUserAgent = "fashionstore-importer/1.0"

type options struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
}

// Option tunes remote loading.
type Option func(*options)

// WithTimeout bounds a remote fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithTransport replaces the HTTP transport used by the collector.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Load returns the text at location. HTML documents are reduced to the
// concatenated contents of their <script> elements.
func Load(ctx context.Context, location string, opts ...Option) (string, error) {
	o := options{timeout: 30 * time.Second, userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		body string
		html bool
		err  error
	)
	if IsRemote(location) {
		body, html, err = fetch(ctx, location, o)
	} else {
		body, html, err = readFile(location)
	}
	if err != nil {
		return "", err
	}

	if html {
		body, err = Scripts(body)
		if err != nil {
			return "", fmt.Errorf("%s: %w", location, err)
		}
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%s: %w", location, ErrEmptySource)
	}
	return body, nil
}

func readFile(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read source: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return string(b), ext == ".html" || ext == ".htm", nil
}

func fetch(ctx context.Context, url string, o options) (string, bool, error) {
	c := colly.NewCollector(colly.UserAgent(o.userAgent))
	c.SetRequestTimeout(o.timeout)
	if o.transport != nil {
		c.WithTransport(o.transport)
	}

	var (
		body        []byte
		contentType string
		fetchErr    error
	)
	c.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			r.Abort()
			fetchErr = err
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		slog.Debug("source fetched",
			slog.String("url", url),
			slog.Int("status", r.StatusCode),
			slog.Int("bytes", len(r.Body)),
		)
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch %s: status %d: %w", url, status, err)
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("fetch %s: %w", url, err)
	}
	if fetchErr != nil {
		return "", false, fetchErr
	}
	return string(body), strings.Contains(strings.ToLower(contentType), "text/html"), nil
}

// Scripts returns the text of every <script> element in document order,
// separated by newlines.
func Scripts(document string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var scripts []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			scripts = append(scripts, text)
		}
	})
	if len(scripts) == 0 {
		return "", fmt.Errorf("no inline scripts: %w", ErrEmptySource)
	}
	return strings.Join(scripts, "\n"), nil
}
