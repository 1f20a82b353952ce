// Package firecrawl fetches job postings as markdown through the Firecrawl
// scraping API, caching results on disk keyed by normalized URL.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/cache"
	"github.com/jobsweep/jobsweep/internal/urlnorm"
)

const (
	apiURL    = "https://api.firecrawl.dev/v2"
	namespace = "firecrawl"
)

// Document is the cached form of one scrape.
type Document struct {
	URL       string `json:"url"`
	Markdown  string `json:"markdown"`
	Timestamp int64  `json:"timestamp"`
}

// Client talks to the Firecrawl scrape endpoint.
type Client struct {
	apiKey     string
	store      *cache.Store
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
}

// New creates a Client with the given API key and cache store.
func New(apiKey string, store *cache.Store, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("firecrawl api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey: apiKey,
		store:  store,
		logger: logger,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}, nil
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape returns the markdown rendering of the job posting at the given URL.
// Tracking parameters are stripped before fetching and caching, so trivially
// different links share a cache entry. Cached entries never expire; delete
// the file to refetch.
func (c *Client) Scrape(ctx context.Context, rawURL string) (string, error) {
	normalized := urlnorm.Normalize(rawURL)
	key := cache.Digest(normalized, 0)

	var doc Document
	if c.store.Read(namespace, key, &doc) {
		c.logger.Debug("using cached scrape result", zap.String("url", normalized))
		return doc.Markdown, nil
	}

	c.logger.Info("scraping job posting", zap.String("url", normalized))

	body, err := json.Marshal(scrapeRequest{
		URL:             normalized,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scraping %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("firecrawl status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding scrape response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("firecrawl scrape failed: %s", out.Error)
	}

	c.store.Write(namespace, key, Document{
		URL:       normalized,
		Markdown:  out.Data.Markdown,
		Timestamp: time.Now().Unix(),
	})

	return out.Data.Markdown, nil
}
