package suumo

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher retrieves the HTML of one results page. Implementations report
// failures as TransientFetchError or PermanentFetchError so the orchestrator
// can decide between retrying and moving on.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// browserAgents is the pool of desktop User-Agent strings rotated across
// requests.
var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:89.0) Gecko/20100101 Firefox/89.0",
}

// agentRotator cycles through browserAgents so consecutive requests do not
// all present the same client.
type agentRotator struct {
	mu  sync.Mutex
	idx int
}

func (r *agentRotator) next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua := browserAgents[r.idx%len(browserAgents)]
	r.idx++
	return ua
}

// StaticFetcher retrieves pages with plain HTTP requests. SUUMO renders its
// result lists server-side, so this is the default strategy.
type StaticFetcher struct {
	client *resty.Client
	agents agentRotator
	logger *slog.Logger
}

// NewStaticFetcher builds a StaticFetcher with the given per-request timeout.
func NewStaticFetcher(timeout time.Duration, logger *slog.Logger) *StaticFetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	client.SetHeader("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.5")
	client.SetHeader("Accept", "text/html,application/xhtml+xml")

	return &StaticFetcher{client: client, logger: logger}
}

// Fetch performs one GET and maps the outcome onto the fetch error taxonomy.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return "", &PermanentFetchError{URL: pageURL, Err: err}
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.agents.next()).
		Get(pageURL)
	if err != nil {
		// Transport failures and timeouts are worth another attempt.
		return "", &TransientFetchError{URL: pageURL, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		return "", &TransientFetchError{URL: pageURL, Status: status}
	case status >= http.StatusBadRequest:
		return "", &PermanentFetchError{URL: pageURL, Status: status}
	}

	f.logger.Debug("fetched page", "url", pageURL, "status", status, "bytes", len(resp.Body()))
	return resp.String(), nil
}
