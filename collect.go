package main

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// NewsArticle is one candidate article found by a collector.
type NewsArticle struct {
	Title     string
	URL       string
	Source    string
	Published time.Time
}

// Collector finds candidate articles from one configured news source.
type Collector interface {
	Source() string
	Collect(limit int) ([]NewsArticle, error)
}

// NewCollector builds a collector from a source configuration entry.
func NewCollector(src SourceConfig) (Collector, error) {
	switch src.Type {
	case "rss":
		return &RSSCollector{name: src.Name, feedURL: src.URL}, nil
	case "listing":
		return &ListingCollector{
			name:    src.Name,
			pageURL: src.URL,
			client:  &http.Client{Timeout: 30 * time.Second},
		}, nil
	}
	return nil, fmt.Errorf("unknown source type %q for %s", src.Type, src.Name)
}

// RSSCollector reads an RSS or Atom feed.
type RSSCollector struct {
	name    string
	feedURL string
}

func (c *RSSCollector) Source() string { return c.name }

func (c *RSSCollector) Collect(limit int) ([]NewsArticle, error) {
	feed, err := gofeed.NewParser().ParseURL(c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", c.feedURL, err)
	}

	var articles []NewsArticle
	for _, item := range feed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		a := NewsArticle{Title: title, URL: link, Source: c.name}
		if item.PublishedParsed != nil {
			a.Published = *item.PublishedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// ListingCollector scrapes a news listing page that offers no feed. It walks
// a few common headline patterns in order of specificity and falls back to
// plain links under a news path.
type ListingCollector struct {
	name    string
	pageURL string
	client  *http.Client
}

func (c *ListingCollector) Source() string { return c.name }

func (c *ListingCollector) Collect(limit int) ([]NewsArticle, error) {
	resp, err := c.client.Get(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: c.pageURL}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.pageURL, err)
	}

	base, err := url.Parse(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing listing URL: %w", err)
	}

	selectors := []string{"h2 a", "h3 a", "h4 a", "article a", `a[href*="/news/"]`}

	var articles []NewsArticle
	seen := map[string]bool{}
	for _, sel := range selectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if limit > 0 && len(articles) >= limit {
				return false
			}
			href, ok := s.Attr("href")
			if !ok {
				return true
			}
			title := strings.TrimSpace(s.Text())
			// Headline-length filter: navigation links are short, teasers
			// with full lead paragraphs are long.
			if len(title) < 15 || len(title) > 200 {
				return true
			}
			ref, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				return true
			}
			abs := base.ResolveReference(ref)
			if abs.Scheme != "http" && abs.Scheme != "https" {
				return true
			}
			link := abs.String()
			if seen[link] {
				return true
			}
			seen[link] = true
			articles = append(articles, NewsArticle{Title: title, URL: link, Source: c.name})
			return true
		})
		if len(articles) > 0 {
			break
		}
	}
	return articles, nil
}

// CollectSweep runs every configured collector, deduplicates against the
// tracking database by source URL and creates a record per new article. One
// failing source does not stop the others. A non-zero limitOverride caps
// every source for this run.
func CollectSweep(store *RecordStore, sources []SourceConfig, limitOverride int, now time.Time) SweepStats {
	var stats SweepStats
	day := now.Format("2006-01-02")

	for i, src := range sources {
		if i > 0 {
			time.Sleep(1 * time.Second)
		}

		collector, err := NewCollector(src)
		if err != nil {
			log.Printf("✗ %v", err)
			stats.Failed++
			continue
		}

		limit := src.Limit
		if limitOverride > 0 {
			limit = limitOverride
		}
		log.Printf("→ Collecting from %s", collector.Source())
		articles, err := collector.Collect(limit)
		if err != nil {
			log.Printf("✗ Collecting from %s: %v", collector.Source(), err)
			stats.Failed++
			continue
		}

		for _, a := range articles {
			exists, err := store.SourceExists(a.URL)
			if err != nil {
				log.Printf("✗ Checking %s: %v", a.URL, err)
				stats.Failed++
				continue
			}
			if exists {
				stats.Skipped++
				continue
			}

			if _, err := store.CreateRecord(a.Title, a.URL, day); err != nil {
				log.Printf("✗ Recording %q: %v", a.Title, err)
				stats.Failed++
				continue
			}
			log.Printf("✓ Recorded: %s", a.Title)
			stats.Success++
			time.Sleep(store.writeDelay)
		}
	}

	log.Printf("→ Collect sweep done: %d new, %d known, %d failed", stats.Success, stats.Skipped, stats.Failed)
	return stats
}
