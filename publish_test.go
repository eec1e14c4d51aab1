package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestWordPress(server *httptest.Server) *WordPress {
	return &WordPress{
		client:   server.Client(),
		baseURL:  server.URL,
		username: "editor",
		password: "app-password",
	}
}

func TestDetectAPIURLStandardPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/wp-json/wp/v2/posts") {
			fmt.Fprint(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	wp := newTestWordPress(server)
	if err := wp.DetectAPIURL(); err != nil {
		t.Fatalf("DetectAPIURL() error = %v", err)
	}
	if wp.apiURL != server.URL+"/wp-json/wp/v2" {
		t.Errorf("apiURL = %q", wp.apiURL)
	}
}

func TestDetectAPIURLRestRouteFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "rest_route=") && !strings.HasPrefix(r.URL.Path, "/index.php") {
			fmt.Fprint(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	wp := newTestWordPress(server)
	if err := wp.DetectAPIURL(); err != nil {
		t.Fatalf("DetectAPIURL() error = %v", err)
	}
	if !strings.Contains(wp.apiURL, "rest_route") {
		t.Errorf("apiURL = %q, want the rest_route form", wp.apiURL)
	}
}

func TestDetectAPIURLAcceptsUnauthorized(t *testing.T) {
	// A 401 means the endpoint exists, credentials just were not accepted
	// for reads. Detection must not treat it as absence.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/wp-json/wp/v2") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if err := newTestWordPress(server).DetectAPIURL(); err != nil {
		t.Fatalf("DetectAPIURL() error = %v", err)
	}
}

func TestDetectAPIURLNoEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if err := newTestWordPress(server).DetectAPIURL(); err == nil {
		t.Fatal("DetectAPIURL() should fail when no candidate answers")
	}
}

func TestFindPostByTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "posts") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[
			{"id": 7, "title": {"rendered": "Budget Reform Passes"}},
			{"id": 9, "title": {"rendered": "Budget Reform Passes Parliament"}}
		]`)
	}))
	defer server.Close()

	wp := newTestWordPress(server)

	id, err := wp.FindPostByTitle("budget reform passes parliament")
	if err != nil {
		t.Fatalf("FindPostByTitle() error = %v", err)
	}
	if id != 9 {
		t.Errorf("FindPostByTitle() = %d, want exact (case-insensitive) match 9", id)
	}

	id, err = wp.FindPostByTitle("Unrelated Title")
	if err != nil {
		t.Fatalf("FindPostByTitle() error = %v", err)
	}
	if id != 0 {
		t.Errorf("FindPostByTitle() = %d, want 0 for no match", id)
	}
}

func TestCreateDraft(t *testing.T) {
	var created map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			fmt.Fprint(w, `[]`)
			return
		}
		json.NewDecoder(r.Body).Decode(&created)
		fmt.Fprint(w, `{"id": 42, "title": {"rendered": "T"}}`)
	}))
	defer server.Close()

	wp := newTestWordPress(server)
	wp.defaults = WordPressDefaults{Categories: []int{3}, FeaturedMedia: 12}

	id, err := wp.CreateDraft("T", "<p>html</p>")
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if id != 42 {
		t.Errorf("CreateDraft() = %d, want 42", id)
	}

	if created["status"] != "draft" {
		t.Errorf("status = %v, want draft", created["status"])
	}
	if created["content"] != "<p>html</p>" {
		t.Errorf("content = %v", created["content"])
	}
	if created["categories"] == nil || created["featured_media"] == nil {
		t.Error("configured defaults were not applied")
	}
	if _, ok := created["tags"]; ok {
		t.Error("empty tag default should not be sent")
	}
}

func TestPublishSweepExistingPostCountsAsPosted(t *testing.T) {
	var statusPatched string
	drafts := 0

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			fmt.Fprintf(w, `{"results":[%s],"has_more":false}`, publishableRecordJSON())
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/pages/"):
			fmt.Fprint(w, `{"id":"a1","properties":{"title":{"type":"title","title":[{"plain_text":"The Article"}]}}}`)
		case strings.HasPrefix(r.URL.Path, "/blocks/"):
			fmt.Fprint(w, `{"results":[{"type":"paragraph","paragraph":{"rich_text":[{"plain_text":"Body."}]}}],"has_more":false}`)
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/pages/"):
			var payload struct {
				Properties map[string]json.RawMessage `json:"properties"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			statusPatched = string(payload.Properties[propWebStatus])
			fmt.Fprint(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer store.Close()

	wpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			drafts++
			fmt.Fprint(w, `{"id": 1}`)
			return
		}
		fmt.Fprint(w, `[{"id": 5, "title": {"rendered": "The Article"}}]`)
	}))
	defer wpServer.Close()

	rs := newTestStore(store)
	wp := newTestWordPress(wpServer)
	p := &Publisher{store: rs, wp: wp}

	stats := p.PublishSweep()
	if stats.Success != 1 || stats.Failed != 0 {
		t.Fatalf("PublishSweep() stats = %+v", stats)
	}
	if drafts != 0 {
		t.Errorf("created %d drafts, want 0 for an already-posted article", drafts)
	}
	if !strings.Contains(statusPatched, "AwaitingSchedule") {
		t.Errorf("web status patched to %s, want AwaitingSchedule", statusPatched)
	}
}

func publishableRecordJSON() string {
	return `{
		"id": "r1",
		"properties": {
			"Title": {"type": "title", "title": [{"plain_text": "The Article"}]},
			"Status(Web)": {"type": "status", "status": {"name": "AwaitingPost"}},
			"Article(Web)": {"type": "url", "url": "https://www.notion.so/0123456789abcdef0123456789abcdef"}
		}
	}`
}

func TestPublishSweepSkipsRecordWithoutLink(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"id":"r1","properties":{"Status(Web)":{"type":"status","status":{"name":"AwaitingPost"}}}}],"has_more":false}`)
	}))
	defer store.Close()

	p := &Publisher{store: newTestStore(store), wp: &WordPress{}}
	stats := p.PublishSweep()
	if stats.Failed != 1 || stats.Success != 0 {
		t.Errorf("PublishSweep() stats = %+v, want the linkless record failed", stats)
	}
}

func TestPublishSweepTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("sweep pacing test")
	}
	// Empty sweep returns promptly.
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"has_more":false}`)
	}))
	defer store.Close()

	start := time.Now()
	p := &Publisher{store: newTestStore(store), wp: &WordPress{}}
	p.PublishSweep()
	if time.Since(start) > 500*time.Millisecond {
		t.Error("empty sweep should not sleep")
	}
}
