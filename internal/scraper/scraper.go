package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
)

const (
	UserAgent = "grappling-events/1.0 (github.com/pfrederiksen/grappling-events)"

	// DefaultStaleCutoff drops table and free-text events that ended long ago.
	DefaultStaleCutoff = 60 * 24 * time.Hour

	// maxBodyBytes bounds how much of an upstream response is read.
	maxBodyBytes = 10 << 20
)

// Method tags the transport an adapter uses.
type Method string

const (
	MethodAPI  Method = "api"
	MethodHTML Method = "html"
)

// Adapter fetches and parses one upstream provider.
type Adapter interface {
	Source() event.Source
	Method() Method
	Endpoint() string
	Fetch(ctx context.Context) ([]event.Draft, error)
}

// Options configures an adapter. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds each network operation. Zero uses the adapter default.
	Timeout     time.Duration
	UserAgent   string
	StaleCutoff time.Duration
	Logger      *logger.Logger
	// Now is the reference clock used for year inference.
	Now func() time.Time
}

// base carries the plumbing shared by every adapter.
type base struct {
	source      event.Source
	client      *http.Client
	userAgent   string
	staleCutoff time.Duration
	log         *logger.Logger
	now         func() time.Time
}

func newBase(source event.Source, defaultTimeout time.Duration, opts Options) base {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = UserAgent
	}
	stale := opts.StaleCutoff
	if stale <= 0 {
		stale = DefaultStaleCutoff
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return base{
		source: source,
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent:   ua,
		staleCutoff: stale,
		log:         log.With(logger.Fields{"source": string(source)}),
		now:         now,
	}
}

func (b *base) Source() event.Source {
	return b.source
}

// do sends req and returns the body of a 2xx response.
func (b *base) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", b.userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: b.source, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Source: b.source,
			URL:    req.URL.String(),
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Source: b.source, URL: req.URL.String(), Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func (b *base) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Source: b.source, URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return b.do(req)
}

func (b *base) postForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &FetchError{Source: b.source, URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return b.do(req)
}

// stale reports whether start lies further in the past than the cutoff.
func (b *base) stale(start time.Time) bool {
	return start.Before(b.now().Add(-b.staleCutoff))
}

func (b *base) dropStale(drafts []event.Draft) []event.Draft {
	fresh := drafts[:0]
	for _, d := range drafts {
		if b.stale(d.StartDate) {
			continue
		}
		fresh = append(fresh, d)
	}
	if dropped := len(drafts) - len(fresh); dropped > 0 {
		b.log.Debug("Dropped stale events", logger.Fields{"count": dropped})
	}
	return fresh
}

var youthPattern = regexp.MustCompile(`(?i)(youth|junior|kids|juvenile)`)

// isKids reports whether an event name indicates a youth division.
func isKids(name string) bool {
	return youthPattern.MatchString(name)
}

// resolveURL makes href absolute against baseURL, returning fallback when
// href is empty or unparseable.
func resolveURL(baseURL, href, fallback string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return fallback
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fallback
	}
	b, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
