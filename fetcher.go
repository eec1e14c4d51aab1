package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/aktagon/llmkit/anthropic"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// ContentFetcher retrieves source material for the generator: page text as
// markdown, or the PDF documents linked from a page, uploaded for the model
// to read directly.
type ContentFetcher struct {
	client    *http.Client
	converter *md.Converter
	apiKey    string

	// maxChars caps fetched page text before it reaches the generator.
	maxChars int
}

// NewContentFetcher creates a fetcher. apiKey is the model-provider key used
// for file uploads in PDF mode.
func NewContentFetcher(apiKey string, maxChars int) *ContentFetcher {
	return &ContentFetcher{
		client:    &http.Client{Timeout: 60 * time.Second},
		converter: md.NewConverter("", true, nil),
		apiKey:    apiKey,
		maxChars:  maxChars,
	}
}

func (f *ContentFetcher) get(pageURL string) (*http.Response, error) {
	resp, err := f.client.Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}
	return resp, nil
}

// FetchText downloads a page and converts it to markdown, truncated to the
// configured ceiling so one oversized page cannot blow the prompt budget.
func (f *ContentFetcher) FetchText(pageURL string) (string, error) {
	resp, err := f.get(pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	if f.maxChars > 0 {
		markdown = truncateRunes(markdown, f.maxChars)
	}
	debugLog("Fetched %s: %d chars", pageURL, len(markdown))
	return markdown, nil
}

// FetchPDFs crawls a page for linked PDF documents, downloads each one and
// uploads it to the model provider. Returns the uploaded file IDs. A page
// with no PDF links is an error: PDF-mode records point at landing pages
// whose whole value is the documents they link to.
func (f *ContentFetcher) FetchPDFs(pageURL string) ([]string, error) {
	resp, err := f.get(pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	var links []string
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(href)), ".pdf") {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})

	if len(links) == 0 {
		return nil, fmt.Errorf("no PDF links found at %s", pageURL)
	}

	var fileIDs []string
	for _, link := range links {
		id, err := f.uploadPDF(link)
		if err != nil {
			log.Printf("✗ Skipping PDF %s: %v", link, err)
			continue
		}
		log.Printf("✓ Uploaded PDF: %s", link)
		fileIDs = append(fileIDs, id)
	}
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("all PDF downloads failed for %s", pageURL)
	}
	return fileIDs, nil
}

func (f *ContentFetcher) uploadPDF(pdfURL string) (string, error) {
	resp, err := f.get(pdfURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tempFile, err := os.CreateTemp("", "pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		return "", fmt.Errorf("downloading PDF content: %w", err)
	}
	tempFile.Close()

	file, err := anthropic.UploadFile(tempFile.Name(), f.apiKey)
	if err != nil {
		return "", fmt.Errorf("uploading PDF file: %w", err)
	}
	return file.ID, nil
}
