package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mailproof/mailproof/internal/cache"
	"github.com/mailproof/mailproof/internal/model"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 2 * time.Second
	cfg.HTTP.RespectRobots = false
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	return cfg
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := sleepFunc
	sleepFunc = func(time.Duration) {}
	t.Cleanup(func() { sleepFunc = orig })
}

func TestCheckAllLiveAndDead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewLinkChecker(testConfig(), nil, nil)
	links := []model.Link{
		{URL: srv.URL + "/ok", Text: "Shop"},
		{URL: srv.URL + "/gone", Text: "Old promo"},
		{URL: "mailto:hi@acme.example"},
		{URL: srv.URL + "/ok"}, // duplicate, must be checked once
	}
	got := c.CheckAll(context.Background(), links)
	if len(got) != 2 {
		t.Fatalf("statuses = %+v", got)
	}
	if !got[0].IsAccessible || got[0].StatusCode != 200 {
		t.Errorf("ok link: %+v", got[0])
	}
	if !got[1].IsDead || got[1].StatusCode != 404 {
		t.Errorf("dead link: %+v", got[1])
	}
}

func TestProbeFallsBackToGET(t *testing.T) {
	var heads, gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			atomic.AddInt32(&heads, 1)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		atomic.AddInt32(&gets, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewLinkChecker(testConfig(), nil, nil)
	st := c.checkOne(context.Background(), srv.URL+"/page", "", false)
	if !st.IsAccessible {
		t.Errorf("status = %+v", st)
	}
	if atomic.LoadInt32(&heads) != 1 || atomic.LoadInt32(&gets) != 1 {
		t.Errorf("heads=%d gets=%d", heads, gets)
	}
}

func TestRetryOnServerError(t *testing.T) {
	noSleep(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewLinkChecker(testConfig(), nil, nil)
	st := c.checkOne(context.Background(), srv.URL+"/flaky", "", false)
	if !st.IsAccessible {
		t.Errorf("status = %+v", st)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestTrackingLinkResolvesFinalURL(t *testing.T) {
	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer dest.Close()
	tracker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, dest.URL+"/landing", http.StatusFound)
	}))
	defer tracker.Close()

	c := NewLinkChecker(testConfig(), nil, nil)
	st := c.checkOne(context.Background(), tracker.URL+"/t/abc", "", true)
	if !st.IsAccessible {
		t.Fatalf("status = %+v", st)
	}
	if st.FinalURL != dest.URL+"/landing" {
		t.Errorf("final url = %q", st.FinalURL)
	}
}

func TestRobotsDisallowedSkips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		t.Errorf("fetched disallowed path %s", r.URL.Path)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.RespectRobots = true
	c := NewLinkChecker(cfg, nil, nil)
	st := c.checkOne(context.Background(), srv.URL+"/page", "", false)
	if !st.Skipped {
		t.Errorf("status = %+v", st)
	}
}

func TestCheckOneUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := cache.NewMemory(time.Minute, time.Minute)
	c := NewLinkChecker(testConfig(), store, nil)
	url := srv.URL + "/cached"

	first := c.checkOne(context.Background(), url, "", false)
	if first.FromCache {
		t.Fatal("first check should hit the network")
	}
	second := c.checkOne(context.Background(), url, "", false)
	if !second.FromCache {
		t.Fatal("second check should come from cache")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("network calls = %d, want 1", calls)
	}
}
