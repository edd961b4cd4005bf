package validate

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/cache"
	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/util"
	"github.com/mailproof/mailproof/internal/worker"
)

const checkMaxRetries = 3

// sleepFunc is the delay between retries, injectable for tests.
var sleepFunc = time.Sleep

// LinkChecker probes campaign links for liveness. Checks run through a
// per-host rate limiter, honor robots.txt, and reuse cached results
// from earlier runs of the same campaign.
type LinkChecker struct {
	client  *http.Client
	cfg     *model.Config
	robots  *util.Robots
	limiter *worker.Limiter
	store   cache.Store
	log     *zap.Logger
}

func NewLinkChecker(cfg *model.Config, store cache.Store, log *zap.Logger) *LinkChecker {
	if log == nil {
		log = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy: util.ProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &LinkChecker{
		client: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		cfg:     cfg,
		robots:  util.NewRobots(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		limiter: worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		store:   store,
		log:     log,
	}
}

// CheckAll probes every unique HTTP link concurrently and returns one
// status per unique URL, in first-seen order.
func (c *LinkChecker) CheckAll(ctx context.Context, links []model.Link) []model.LinkStatus {
	type target struct {
		url      string
		text     string
		tracking bool
	}
	var targets []target
	seen := make(map[string]bool)
	for _, l := range links {
		if !strings.HasPrefix(l.URL, "http") || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		targets = append(targets, target{url: l.URL, text: l.Text, tracking: l.IsTracking})
	}
	if len(targets) == 0 {
		return nil
	}

	results := make([]model.LinkStatus, len(targets))
	sem := make(chan struct{}, max(1, c.cfg.Concurrency.LinkWorkers))
	var wg sync.WaitGroup

	for i, tgt := range targets {
		wg.Add(1)
		go func(idx int, t target) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				results[idx] = model.LinkStatus{URL: t.url, Text: t.text, Error: "cancelled"}
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			results[idx] = c.checkOne(ctx, t.url, t.text, t.tracking)
		}(i, tgt)
	}
	wg.Wait()
	return results
}

func (c *LinkChecker) checkOne(ctx context.Context, url, text string, tracking bool) model.LinkStatus {
	if c.store != nil {
		if st, ok := c.store.GetLink(url); ok {
			st.Text = text
			st.FromCache = true
			return st
		}
	}

	if c.cfg.HTTP.RespectRobots && !c.robots.Allowed(ctx, url) {
		c.log.Debug("skipping robots-disallowed link", zap.String("url", url))
		return model.LinkStatus{URL: url, Text: text, Skipped: true}
	}

	delay := time.Duration(0)
	if c.cfg.HTTP.RespectRobots {
		delay = c.robots.CrawlDelay(ctx, url)
	}
	if err := c.limiter.Wait(ctx, url, delay); err != nil {
		return model.LinkStatus{URL: url, Text: text, Error: err.Error()}
	}

	st := c.checkWithRetry(ctx, url, tracking)
	st.Text = text

	// Conclusive results are worth caching. Network errors are not:
	// the next run should try again.
	if c.store != nil && st.Error == "" {
		if err := c.store.SetLink(url, st, 0); err != nil {
			c.log.Debug("cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return st
}

func (c *LinkChecker) checkWithRetry(ctx context.Context, url string, tracking bool) model.LinkStatus {
	var st model.LinkStatus
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		st = c.probe(ctx, url, tracking)
		if !retryable(st) {
			return st
		}
		if attempt < checkMaxRetries-1 {
			sleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return st
}

// probe issues a HEAD request, falling back to GET when the server
// rejects HEAD or when the link is a tracker whose final URL we need.
func (c *LinkChecker) probe(ctx context.Context, url string, tracking bool) model.LinkStatus {
	method := http.MethodHead
	if tracking {
		method = http.MethodGet
	}

	st := c.request(ctx, method, url)
	if method == http.MethodHead && headRejected(st) {
		st = c.request(ctx, http.MethodGet, url)
	}
	return st
}

func (c *LinkChecker) request(ctx context.Context, method, url string) model.LinkStatus {
	st := model.LinkStatus{URL: url}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		st.Error = fmt.Sprintf("create request: %v", err)
		st.IsDead = true
		return st
	}
	req.Header.Set("User-Agent", c.cfg.HTTP.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		st.Error = fmt.Sprintf("request failed: %v", err)
		st.IsDead = true
		return st
	}
	defer func() { _ = resp.Body.Close() }()

	st.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		st.IsAccessible = true
	} else if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		st.IsDead = true
	}
	if final := resp.Request.URL.String(); final != url {
		st.FinalURL = final
	}
	return st
}

func headRejected(st model.LinkStatus) bool {
	switch st.StatusCode {
	case http.StatusMethodNotAllowed, http.StatusForbidden, http.StatusNotImplemented:
		return true
	}
	return false
}

func retryable(st model.LinkStatus) bool {
	if st.StatusCode >= 500 && st.StatusCode < 600 {
		return true
	}
	if st.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if st.Error != "" {
		s := strings.ToLower(st.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
