package firecrawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/cache"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := cache.NewStore(t.TempDir(), zap.NewNop())
	client, err := New("test-key", store, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.APIURL = srv.URL

	return client
}

func TestScrape(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++

		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}

		var req scrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		// Tracking parameters are stripped before the fetch.
		if req.URL != "https://x.com/job" {
			t.Errorf("scraped url = %q, want normalized", req.URL)
		}

		fmt.Fprint(w, `{"success": true, "data": {"markdown": "# Senior Go Engineer"}}`)
	})

	md, err := client.Scrape(context.Background(), "https://x.com/job?utm_source=x&ref=y")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if md != "# Senior Go Engineer" {
		t.Fatalf("markdown = %q", md)
	}

	// A second fetch of an equivalent URL is served from cache.
	md, err = client.Scrape(context.Background(), "https://x.com/job")
	if err != nil {
		t.Fatalf("cached Scrape: %v", err)
	}
	if md != "# Senior Go Engineer" {
		t.Fatalf("cached markdown = %q", md)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", calls)
	}
}

func TestScrapeAPIFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error": "quota exceeded"}`)
	})

	if _, err := client.Scrape(context.Background(), "https://x.com/job"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestScrapeUnsuccessfulResponse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success": false, "error": "blocked by robots.txt"}`)
	})

	_, err := client.Scrape(context.Background(), "https://x.com/job")
	if err == nil {
		t.Fatal("expected error on unsuccessful scrape")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(t.TempDir(), zap.NewNop())
	if _, err := New("", store, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
