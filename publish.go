package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WordPress is a minimal client for the publish target's REST API.
type WordPress struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	defaults WordPressDefaults

	// apiURL is the detected REST root, e.g. https://site/wp-json/wp/v2.
	apiURL string
}

func NewWordPress(cfg *Config) *WordPress {
	return &WordPress{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  strings.TrimRight(cfg.WordPressURL, "/"),
		username: cfg.WordPressUsername,
		password: cfg.WordPressPassword,
		defaults: cfg.Settings.WordPress,
	}
}

// DetectAPIURL probes the common REST root locations and remembers the
// first that answers. A 401 still proves the endpoint is there.
func (wp *WordPress) DetectAPIURL() error {
	if wp.apiURL != "" {
		return nil
	}

	candidates := []string{
		wp.baseURL + "/wp-json/wp/v2",
		wp.baseURL + "/?rest_route=/wp/v2",
		wp.baseURL + "/index.php?rest_route=/wp/v2",
	}

	for _, candidate := range candidates {
		req, err := http.NewRequest(http.MethodGet, candidate+wp.sep(candidate)+"posts?per_page=1", nil)
		if err != nil {
			continue
		}
		req.SetBasicAuth(wp.username, wp.password)

		resp, err := wp.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusUnauthorized {
			wp.apiURL = candidate
			debugLog("Detected REST API at %s", candidate)
			return nil
		}
	}
	return fmt.Errorf("no REST API endpoint found at %s", wp.baseURL)
}

// sep returns the query-string separator for an API root, which differs
// between the path-based and rest_route-based forms.
func (wp *WordPress) sep(apiURL string) string {
	if strings.Contains(apiURL, "?") {
		return "&"
	}
	return "/"
}

func (wp *WordPress) request(method, resource string, query url.Values, payload any) ([]byte, error) {
	if err := wp.DetectAPIURL(); err != nil {
		return nil, err
	}

	endpoint := wp.apiURL + wp.sep(wp.apiURL) + resource
	if len(query) > 0 {
		if strings.Contains(endpoint, "?") {
			endpoint += "&" + query.Encode()
		} else {
			endpoint += "?" + query.Encode()
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(wp.username, wp.password)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := wp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish target request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading publish target response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}
	return data, nil
}

type wpPost struct {
	ID    int `json:"id"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Link string `json:"link"`
}

// FindPostByTitle searches for an existing post with exactly this title.
// Returns 0 when there is none.
func (wp *WordPress) FindPostByTitle(title string) (int, error) {
	query := url.Values{}
	query.Set("search", title)
	query.Set("status", "draft,publish,future,pending")

	data, err := wp.request(http.MethodGet, "posts", query, nil)
	if err != nil {
		return 0, fmt.Errorf("searching posts: %w", err)
	}

	var posts []wpPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return 0, fmt.Errorf("decoding search results: %w", err)
	}

	for _, p := range posts {
		if strings.EqualFold(strings.TrimSpace(p.Title.Rendered), strings.TrimSpace(title)) {
			return p.ID, nil
		}
	}
	return 0, nil
}

// CreateDraft creates a draft post, applying any configured defaults.
func (wp *WordPress) CreateDraft(title, html string) (int, error) {
	payload := map[string]any{
		"title":   title,
		"content": html,
		"status":  "draft",
	}
	if len(wp.defaults.Categories) > 0 {
		payload["categories"] = wp.defaults.Categories
	}
	if len(wp.defaults.Tags) > 0 {
		payload["tags"] = wp.defaults.Tags
	}
	if wp.defaults.FeaturedMedia > 0 {
		payload["featured_media"] = wp.defaults.FeaturedMedia
	}

	data, err := wp.request(http.MethodPost, "posts", nil, payload)
	if err != nil {
		return 0, fmt.Errorf("creating draft: %w", err)
	}

	var post wpPost
	if err := json.Unmarshal(data, &post); err != nil {
		return 0, fmt.Errorf("decoding created post: %w", err)
	}
	return post.ID, nil
}

// Publisher pushes fact-checked articles to the publish target as drafts.
type Publisher struct {
	store *RecordStore
	wp    *WordPress
}

func NewPublisher(store *RecordStore, cfg *Config) *Publisher {
	return &Publisher{store: store, wp: NewWordPress(cfg)}
}

// PublishSweep drafts every record awaiting posting. An article that is
// already on the target counts as posted, so a sweep interrupted between
// draft creation and the status update converges on retry.
func (p *Publisher) PublishSweep() SweepStats {
	var stats SweepStats

	records, err := p.store.QueryRecords(statusFilter(propWebStatus, WebAwaitingPost.String()))
	if err != nil {
		log.Printf("✗ Querying records awaiting post: %v", err)
		stats.Failed++
		return stats
	}

	for i, rec := range records {
		log.Printf("[%d/%d] Publishing: %s", i+1, len(records), rec.Title)
		if err := p.publishRecord(rec); err != nil {
			log.Printf("✗ Failed %s: %v", rec.Title, err)
			stats.Failed++
			continue
		}
		stats.Success++
		time.Sleep(1 * time.Second)
	}

	log.Printf("→ Publish sweep done: %d posted, %d failed", stats.Success, stats.Failed)
	return stats
}

func (p *Publisher) publishRecord(rec Record) error {
	pageID := extractPageID(rec.ArticleLink)
	if pageID == "" {
		return fmt.Errorf("record %s has no article page link", rec.ID)
	}

	title, err := p.store.PageTitle(pageID)
	if err != nil {
		return fmt.Errorf("reading article title: %w", err)
	}
	if title == "" {
		title = rec.Title
	}

	blocks, err := p.store.ChildBlocks(pageID)
	if err != nil {
		return fmt.Errorf("reading article content: %w", err)
	}

	markup := BlocksToMarkup(blocks)
	if strings.TrimSpace(markup) == "" {
		return fmt.Errorf("article page %s is empty", pageID)
	}

	html, err := renderHTML(markup)
	if err != nil {
		return err
	}

	existing, err := p.wp.FindPostByTitle(title)
	if err != nil {
		return fmt.Errorf("checking for existing post: %w", err)
	}
	if existing != 0 {
		log.Printf("  → Already posted as #%d", existing)
	} else {
		id, err := p.wp.CreateDraft(title, html)
		if err != nil {
			return err
		}
		log.Printf("  ✓ Drafted as #%d", id)
	}

	if err := p.store.SetWebStatus(rec.ID, WebAwaitingSchedule); err != nil {
		log.Printf("  ✗ Updating status: %v", err)
	}
	return nil
}
