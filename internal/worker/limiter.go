package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests per target host so a campaign with
// forty links to the same storefront doesn't burst them all at once.
type Limiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter

	defaultRate  rate.Limit
	defaultBurst int
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	// A zero rate would block every Wait forever.
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		hosts:        make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the host's limiter clears the request, then sleeps
// any extra delay (a robots.txt crawl-delay, typically).
func (l *Limiter) Wait(ctx context.Context, rawURL string, extraDelay time.Duration) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if err := l.forHost(u.Host).Wait(ctx); err != nil {
		return err
	}
	if extraDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(extraDelay):
		}
	}
	return nil
}

// Allow reports without blocking whether a request to the URL's host
// would be admitted now.
func (l *Limiter) Allow(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return l.forHost(u.Host).Allow()
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.hosts[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.hosts[host] = lim
	return lim
}
