package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"scout/internal/logging"
)

// Scrape statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Source is the extraction result for one URL.
type Source struct {
	URL       string
	Title     string
	RawText   string
	ImageURLs []string
	Status    string
}

// Jitter window applied when a domain semaphore was contended.
const (
	jitterMin = 600 * time.Millisecond
	jitterMax = 1200 * time.Millisecond
)

const softBodyLength = 200

// Pool fetches URLs concurrently while serializing requests to the same
// registrable domain.
type Pool struct {
	client    *http.Client
	userAgent string
	workers   int
	logger    logging.Logger

	mu      sync.Mutex
	domains map[string]*semaphore.Weighted
}

// Config for a Pool.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Workers   int
	Client    *http.Client
	Logger    logging.Logger
}

// NewPool builds a scraper pool.
func NewPool(cfg Config) *Pool {
	client := cfg.Client
	if client == nil {
		timeout := 20 * time.Second
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		client = &http.Client{Timeout: timeout}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	return &Pool{
		client:    client,
		userAgent: cfg.UserAgent,
		workers:   workers,
		logger:    logging.OrNop(cfg.Logger),
		domains:   make(map[string]*semaphore.Weighted),
	}
}

// Run scrapes every URL and returns one Source per input, input order
// preserved. Failures never abort the batch.
func (p *Pool) Run(ctx context.Context, urls []string) []Source {
	results := make([]Source, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, target := range urls {
		i, target := i, target
		g.Go(func() error {
			results[i] = p.scrapeOne(gctx, target)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pool) scrapeOne(ctx context.Context, target string) Source {
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		p.logger.Debug("skip unsupported url %q", target)
		return Source{URL: target, Status: StatusSkipped}
	}

	release, contended, err := p.acquireDomain(ctx, parsed.Host)
	if err != nil {
		return Source{URL: target, Status: StatusFailed}
	}
	defer release()
	if contended {
		p.sleepJitter(ctx)
	}

	src, err := p.fetch(ctx, parsed)
	if err != nil {
		p.logger.Warn("scrape %s failed: %v", target, err)
		return Source{URL: target, Status: StatusFailed}
	}
	if len(src.RawText) < softBodyLength {
		p.logger.Debug("scrape %s returned short body (%d chars)", target, len(src.RawText))
	}
	return src
}

func (p *Pool) fetch(ctx context.Context, parsed *url.URL) (Source, error) {
	target := parsed.String()
	switch {
	case isArxiv(parsed):
		return p.scrapeArxiv(ctx, parsed)
	case looksLikePDF(parsed):
		return p.scrapePDF(ctx, target)
	default:
		return p.scrapeHTML(ctx, target)
	}
}

// acquireDomain serializes access per registrable domain. The bool result
// reports whether the caller had to wait.
func (p *Pool) acquireDomain(ctx context.Context, host string) (func(), bool, error) {
	key := registrableDomain(host)

	p.mu.Lock()
	sem, ok := p.domains[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		p.domains[key] = sem
	}
	p.mu.Unlock()

	if sem.TryAcquire(1) {
		return func() { sem.Release(1) }, false, nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	return func() { sem.Release(1) }, true, nil
}

func (p *Pool) sleepJitter(ctx context.Context) {
	d := jitterMin + time.Duration(rand.Int63n(int64(jitterMax-jitterMin)))
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (p *Pool) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// registrableDomain reduces a host to its last two labels, the unit the
// per-domain semaphore is keyed on.
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func looksLikePDF(parsed *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(parsed.Path), ".pdf")
}

func isArxiv(parsed *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(parsed.Hostname()), "arxiv.org")
}
