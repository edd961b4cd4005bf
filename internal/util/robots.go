package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Robots answers whether the link checker may probe a URL. Campaign
// links mostly point at the client's own properties, but the checker
// still honors robots.txt on every host it touches.
type Robots struct {
	client    *http.Client
	userAgent string

	mu    sync.RWMutex
	hosts map[string]*robotstxt.RobotsData
}

func NewRobots(userAgent string, timeout time.Duration) *Robots {
	return &Robots{
		client:    &http.Client{Timeout: timeout},
		userAgent: productToken(userAgent),
		hosts:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the URL may be fetched. Unreachable or broken
// robots.txt means allowed: a dead robots endpoint should not mask a dead
// campaign link.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	data, err := r.forHost(ctx, u.Scheme, u.Host)
	if err != nil {
		return true
	}
	return data.TestAgent(u.Path, r.userAgent)
}

// CrawlDelay returns the host's requested delay, zero when none is set.
func (r *Robots) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return 0
	}
	data, err := r.forHost(ctx, u.Scheme, u.Host)
	if err != nil {
		return 0
	}
	if g := data.FindGroup(r.userAgent); g != nil {
		return g.CrawlDelay
	}
	return 0
}

func (r *Robots) forHost(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.hosts[host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.hosts[host] = data
	r.mu.Unlock()
	return data, nil
}

// productToken reduces a full User-Agent to the product name robots.txt
// groups match against: "mailproof/0.1 (+url)" -> "mailproof".
func productToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	return strings.Split(fields[0], "/")[0]
}
