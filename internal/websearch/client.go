package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/internal/store"
	"github.com/oss-triage/gh-triage/pkg/models"
)

const (
	defaultStackExchangeURL = "https://api.stackexchange.com/2.3"
	defaultGitHubAPIURL     = "https://api.github.com"

	sourceStackOverflow = "stackoverflow"
	sourceGitHub        = "github"
)

// Result is a single external search hit
type Result struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Score  int    `json:"score,omitempty"`
}

// Results holds the hits from one source. Failed marks a lookup that
// could not complete; an empty Items with Failed=false is a genuine
// "nothing relevant" answer.
type Results struct {
	Items  []Result `json:"items"`
	Failed bool     `json:"failed"`
}

// Client searches Stack Overflow and GitHub for context on an issue.
// Lookups never return an error: any failure degrades to Failed=true so
// triage proceeds without external context.
type Client struct {
	http  *resty.Client
	cache store.CacheStore
	cfg   config.SearchConfig

	stackExchangeURL string
	gitHubAPIURL     string
}

// NewClient creates a search client. cache may be nil to disable caching.
func NewClient(cfg config.SearchConfig, cache store.CacheStore) *Client {
	httpClient := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		http:             httpClient,
		cache:            cache,
		cfg:              cfg,
		stackExchangeURL: defaultStackExchangeURL,
		gitHubAPIURL:     defaultGitHubAPIURL,
	}
}

// SearchStackOverflow looks up questions similar to the issue title
func (c *Client) SearchStackOverflow(ctx context.Context, issue *models.Issue) Results {
	key := cacheKey(sourceStackOverflow, issue.Title)
	if cached, ok := c.fromCache(ctx, key); ok {
		return Results{Items: cached}
	}

	var body struct {
		Items []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
			Score int    `json:"score"`
		} `json:"items"`
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"order": "desc",
			"sort":  "relevance",
			"q":     issue.Title,
			"site":  "stackoverflow",
		}).
		SetResult(&body)
	if c.cfg.StackOverflowKey != "" {
		req.SetQueryParam("key", c.cfg.StackOverflowKey)
	}

	resp, err := req.Get(c.stackExchangeURL + "/search/advanced")
	if err != nil {
		log.Printf("Warning: Stack Overflow search failed: %v", err)
		return Results{Failed: true}
	}
	if resp.StatusCode() != http.StatusOK {
		log.Printf("Warning: Stack Overflow search returned %d", resp.StatusCode())
		return Results{Failed: true}
	}

	items := make([]Result, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, Result{
			Title:  it.Title,
			URL:    it.Link,
			Source: sourceStackOverflow,
			Score:  it.Score,
		})
	}
	items = dedupeByURL(items, c.cfg.MaxResults)

	c.toCache(ctx, key, items)
	return Results{Items: items}
}

// SearchGitHub looks up similar issues across public GitHub. Without a
// token the capability is absent, which is not a failure.
func (c *Client) SearchGitHub(ctx context.Context, issue *models.Issue) Results {
	if c.cfg.GitHubToken == "" {
		return Results{}
	}

	key := cacheKey(sourceGitHub, issue.Title)
	if cached, ok := c.fromCache(ctx, key); ok {
		return Results{Items: cached}
	}

	var body struct {
		Items []struct {
			Title   string `json:"title"`
			HTMLURL string `json:"html_url"`
		} `json:"items"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.cfg.GitHubToken).
		SetQueryParams(map[string]string{
			"q":        issue.Title + " is:issue",
			"per_page": fmt.Sprintf("%d", c.cfg.MaxResults),
		}).
		SetResult(&body).
		Get(c.gitHubAPIURL + "/search/issues")
	if err != nil {
		log.Printf("Warning: GitHub search failed: %v", err)
		return Results{Failed: true}
	}
	if resp.StatusCode() != http.StatusOK {
		log.Printf("Warning: GitHub search returned %d", resp.StatusCode())
		return Results{Failed: true}
	}

	items := make([]Result, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, Result{
			Title:  it.Title,
			URL:    it.HTMLURL,
			Source: sourceGitHub,
		})
	}
	items = dedupeByURL(items, c.cfg.MaxResults)

	c.toCache(ctx, key, items)
	return Results{Items: items}
}

// cacheKey hashes source and title so near-identical issues share results
func cacheKey(source, title string) string {
	h := sha256.Sum256([]byte(source + ":" + title))
	return hex.EncodeToString(h[:])
}

func (c *Client) fromCache(ctx context.Context, key string) ([]Result, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.GetSearch(ctx, key)
	if err != nil {
		if err != store.ErrNotFound {
			log.Printf("Warning: search cache read failed: %v", err)
		}
		return nil, false
	}
	var items []Result
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Client) toCache(ctx context.Context, key string, items []Result) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	ttl := time.Duration(c.cfg.CacheTTLHours) * time.Hour
	if err := c.cache.SetSearch(ctx, key, data, ttl); err != nil {
		log.Printf("Warning: search cache write failed: %v", err)
	}
}

func dedupeByURL(items []Result, max int) []Result {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it.URL] {
			continue
		}
		seen[it.URL] = true
		out = append(out, it)
		if len(out) == max {
			break
		}
	}
	return out
}
