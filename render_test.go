package main

import (
	"strings"
	"testing"
)

func TestRenderBlockKinds(t *testing.T) {
	text := []RichText{{Text: "content"}}
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"paragraph", Block{Kind: BlockParagraph, Rich: text}, "content"},
		{"heading 1", Block{Kind: BlockHeading1, Rich: text}, "# content"},
		{"heading 2", Block{Kind: BlockHeading2, Rich: text}, "## content"},
		{"heading 3", Block{Kind: BlockHeading3, Rich: text}, "### content"},
		{"bullet", Block{Kind: BlockBullet, Rich: text}, "- content"},
		{"numbered", Block{Kind: BlockNumbered, Rich: text}, "1. content"},
		{"todo unchecked", Block{Kind: BlockToDo, Rich: text}, "- [ ] content"},
		{"todo checked", Block{Kind: BlockToDo, Rich: text, Checked: true}, "- [x] content"},
		{"quote", Block{Kind: BlockQuote, Rich: text}, "> content"},
		{"callout", Block{Kind: BlockCallout, Rich: text}, "> content"},
		{"divider", Block{Kind: BlockDivider}, "---"},
		{"code", Block{Kind: BlockCode, Rich: text, Language: "go"}, "```go\ncontent\n```"},
		{"image", Block{Kind: BlockImage, ImageURL: "https://e.com/a.png", Caption: "cap"}, "![cap](https://e.com/a.png)"},
		{"unknown with text", Block{Kind: BlockOther, Rich: text}, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := renderBlock(tt.block)
			if !ok {
				t.Fatalf("renderBlock() suppressed %v", tt.block)
			}
			if got != tt.want {
				t.Errorf("renderBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBlockSuppression(t *testing.T) {
	suppressed := []Block{
		{Kind: BlockHeading2, Rich: []RichText{{Text: "  "}}},
		{Kind: BlockBullet, Rich: []RichText{{}}},
		{Kind: BlockImage},
		{Kind: BlockOther},
	}
	for _, b := range suppressed {
		if seg, ok := renderBlock(b); ok {
			t.Errorf("renderBlock(%v) = %q, want suppressed", b.Kind, seg)
		}
	}

	// Empty paragraphs survive: they carry spacing.
	if _, ok := renderBlock(NewParagraph()); !ok {
		t.Error("empty paragraph should not be suppressed")
	}
}

func TestRichTextToMarkupStyles(t *testing.T) {
	tests := []struct {
		name string
		run  RichText
		want string
	}{
		{"plain", RichText{Text: "x"}, "x"},
		{"bold", RichText{Text: "x", Bold: true}, "**x**"},
		{"italic", RichText{Text: "x", Italic: true}, "*x*"},
		{"bold italic", RichText{Text: "x", Bold: true, Italic: true}, "***x***"},
		{"strikethrough", RichText{Text: "x", Strikethrough: true}, "~~x~~"},
		{"bold strikethrough", RichText{Text: "x", Bold: true, Strikethrough: true}, "~~**x**~~"},
		{"code wins over styles", RichText{Text: "x", Code: true, Bold: true, Italic: true}, "`x`"},
		{"link", RichText{Text: "x", Link: "https://e.com"}, "[x](https://e.com)"},
		{"styled link", RichText{Text: "x", Bold: true, Link: "https://e.com"}, "[**x**](https://e.com)"},
		{"code is never linked", RichText{Text: "x", Code: true, Link: "https://e.com"}, "`x`"},
		{"page reference renders plain", RichText{Text: "Linked Page", PageRef: "abc"}, "Linked Page"},
		{"empty run skipped", RichText{Bold: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := richTextToMarkup([]RichText{tt.run}); got != tt.want {
				t.Errorf("richTextToMarkup() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlocksToMarkupJoinsListItems(t *testing.T) {
	blocks := []Block{
		NewParagraph(RichText{Text: "intro"}),
		NewBullet(RichText{Text: "one"}),
		NewBullet(RichText{Text: "two"}),
		NewParagraph(RichText{Text: "outro"}),
	}

	want := "intro\n\n- one\n- two\n\noutro"
	if got := BlocksToMarkup(blocks); got != want {
		t.Errorf("BlocksToMarkup() = %q, want %q", got, want)
	}
}

func TestBlocksToMarkupHeadingScenario(t *testing.T) {
	blocks := []Block{{Kind: BlockHeading2, Rich: []RichText{{Text: "Overview"}}}}
	if got := BlocksToMarkup(blocks); got != "## Overview" {
		t.Errorf("BlocksToMarkup() = %q, want %q", got, "## Overview")
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := renderHTML("## Overview\n\nA **bold** statement.")
	if err != nil {
		t.Fatalf("renderHTML() error = %v", err)
	}

	for _, want := range []string{"<h2", "Overview", "<strong>bold</strong>"} {
		if !strings.Contains(html, want) {
			t.Errorf("renderHTML() output missing %q:\n%s", want, html)
		}
	}
}

func TestRenderHTMLHardWraps(t *testing.T) {
	// One sentence per line must become explicit line breaks, not a single
	// merged paragraph.
	html, err := renderHTML("First sentence.\nSecond sentence.")
	if err != nil {
		t.Fatalf("renderHTML() error = %v", err)
	}
	if !strings.Contains(html, "<br") {
		t.Errorf("renderHTML() should insert hard line breaks:\n%s", html)
	}
}
