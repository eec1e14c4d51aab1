package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

var (
	// ErrMissingSource marks a record queued for writing without a source URL.
	ErrMissingSource = errors.New("record has no source URL")
	// ErrPartialGeneration marks a run where the article was produced but the
	// script was not. Nothing is persisted in that case.
	ErrPartialGeneration = errors.New("script generation failed after article")
)

// Generator runs the two-stage writing pipeline: a blog article from the
// source material, then a narration script from the article.
type Generator struct {
	store   *RecordStore
	fetcher *ContentFetcher
	config  *Config
}

func NewGenerator(store *RecordStore, config *Config) *Generator {
	return &Generator{
		store:   store,
		fetcher: NewContentFetcher(config.AnthropicAPIKey, config.Settings.Generator.SourceMaxChars),
		config:  config,
	}
}

func (g *Generator) requestSettings() types.RequestSettings {
	return types.RequestSettings{
		Model:       g.config.Settings.Generator.Model,
		MaxTokens:   g.config.Settings.Generator.MaxTokens,
		Temperature: g.config.Settings.Generator.Temperature,
	}
}

func (g *Generator) prompt(systemPrompt, userPrompt string, files []types.File) (string, error) {
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", g.config.AnthropicAPIKey, g.requestSettings(), files...)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

// GenerateSweep processes every record awaiting writing, in both source
// modes. Each record either gets both child pages and moves forward, or is
// left untouched for the next run.
func (g *Generator) GenerateSweep() SweepStats {
	var stats SweepStats

	for _, mode := range []ContentStatus{ContentAwaitingWritePDF, ContentAwaitingWriteURL} {
		records, err := g.store.QueryRecords(statusFilter(propContentStatus, mode.String()))
		if err != nil {
			log.Printf("✗ Querying %s records: %v", mode, err)
			stats.Failed++
			continue
		}

		for i, rec := range records {
			log.Printf("[%d/%d] Processing: %s", i+1, len(records), rec.Title)
			err := g.processRecord(rec)
			switch {
			case errors.Is(err, ErrMissingSource):
				log.Printf("✗ Skipping %s: %v", rec.Title, err)
				stats.Skipped++
				continue
			case err != nil:
				log.Printf("✗ Failed %s: %v", rec.Title, err)
				stats.Failed++
			default:
				log.Printf("✓ Generated: %s", rec.Title)
				stats.Success++
			}
			time.Sleep(3 * time.Second)
		}
	}

	log.Printf("→ Generate sweep done: %d generated, %d skipped, %d failed", stats.Success, stats.Skipped, stats.Failed)
	return stats
}

func (g *Generator) processRecord(rec Record) error {
	if strings.TrimSpace(rec.SourceURL) == "" {
		return ErrMissingSource
	}

	// Fetch source material in the mode the status asks for.
	log.Printf("  → Fetching source...")
	var sourceText string
	var files []types.File
	switch rec.Content {
	case ContentAwaitingWritePDF:
		fileIDs, err := g.fetcher.FetchPDFs(rec.SourceURL)
		if err != nil {
			return fmt.Errorf("fetching PDFs: %w", err)
		}
		for _, id := range fileIDs {
			files = append(files, types.File{ID: id})
		}
	case ContentAwaitingWriteURL:
		text, err := g.fetcher.FetchText(rec.SourceURL)
		if err != nil {
			return fmt.Errorf("fetching source: %w", err)
		}
		sourceText = text
	default:
		return fmt.Errorf("record %s is not awaiting writing (%s)", rec.ID, rec.Content)
	}

	// Stage 1: the article.
	log.Printf("  → Writing article...")
	userPrompt := "Write the article from the attached documents."
	if sourceText != "" {
		userPrompt = fmt.Sprintf("Source content:\n%s", sourceText)
	}
	article, err := g.prompt(g.config.ArticlePrompt(), userPrompt, files)
	if err != nil {
		return fmt.Errorf("generating article: %w", err)
	}

	time.Sleep(2 * time.Second)

	// Stage 2: the narration script, written from the article so both tell
	// the same story.
	log.Printf("  → Writing script...")
	script, err := g.prompt(g.config.ScriptPrompt(), fmt.Sprintf("Article:\n%s", article), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPartialGeneration, err)
	}

	title, articleBody := splitTitle(article)
	if title == "" {
		title = rec.Title
	}

	articleID, err := g.store.CreateChildPage(rec.ID, title, articleDocument(rec.SourceURL, articleBody))
	if err != nil {
		return fmt.Errorf("storing article: %w", err)
	}

	time.Sleep(1 * time.Second)

	_, scriptBody := splitTitle(script)
	scriptID, err := g.store.CreateChildPage(rec.ID, title+" (Script)", PlainTextToBlocks(scriptBody))
	if err != nil {
		return fmt.Errorf("storing script: %w", err)
	}

	// Both pages exist; link them and advance. A failed property update is
	// logged but does not undo the generation.
	if err := g.store.SetChildLink(rec.ID, propArticleLink, articleID); err != nil {
		log.Printf("  ✗ Linking article page: %v", err)
	}
	if err := g.store.SetChildLink(rec.ID, propScriptLink, scriptID); err != nil {
		log.Printf("  ✗ Linking script page: %v", err)
	}
	if err := g.store.SetContentStatus(rec.ID, ContentAwaitingFactCheck); err != nil {
		log.Printf("  ✗ Updating status: %v", err)
	}
	return nil
}

// articleDocument assembles the stored article page: a source citation
// quote, a divider, then the body wrapped in the publish template's
// placeholder paragraphs.
func articleDocument(sourceURL, body string) []Block {
	blocks := []Block{
		NewQuote(RichText{Text: "Source: " + sourceURL, Link: sourceURL}),
		NewDivider(),
		NewParagraph(RichText{Text: "[temp id=3]"}),
	}
	blocks = append(blocks, MarkupToBlocks(body)...)
	blocks = append(blocks, NewParagraph(RichText{Text: "[temp id=2]"}))
	return blocks
}

// splitTitle peels a leading "# " heading off generated text. Returns the
// heading text and the remainder; a text without one returns "" and the
// input unchanged.
func splitTitle(text string) (string, string) {
	trimmed := strings.TrimLeft(text, "\n \t")
	line, rest, _ := strings.Cut(trimmed, "\n")
	if strings.HasPrefix(line, "# ") {
		return strings.TrimSpace(line[2:]), strings.TrimLeft(rest, "\n")
	}
	return "", text
}
