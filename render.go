package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// BlocksToMarkup renders an ordered document back into markup text, one
// segment per block, joined with blank lines. Consecutive list items of the
// same kind form one segment with single line breaks. Blocks that render to
// nothing (empty headings, images without a URL) are suppressed; empty
// paragraphs are kept so deliberate spacing survives the round trip.
func BlocksToMarkup(blocks []Block) string {
	var segments []string
	for i := 0; i < len(blocks); i++ {
		if isListKind(blocks[i].Kind) {
			kind := blocks[i].Kind
			var lines []string
			for ; i < len(blocks) && blocks[i].Kind == kind; i++ {
				if seg, ok := renderBlock(blocks[i]); ok {
					lines = append(lines, seg)
				}
			}
			i--
			if len(lines) > 0 {
				segments = append(segments, strings.Join(lines, "\n"))
			}
			continue
		}
		if seg, ok := renderBlock(blocks[i]); ok {
			segments = append(segments, seg)
		}
	}
	return strings.Join(segments, "\n\n")
}

func isListKind(k BlockKind) bool {
	return k == BlockBullet || k == BlockNumbered || k == BlockToDo
}

func renderBlock(b Block) (string, bool) {
	switch b.Kind {
	case BlockParagraph:
		// Empty paragraphs render as empty segments to preserve spacing.
		return richTextToMarkup(b.Rich), true
	case BlockHeading1:
		return prefixed("# ", b.Rich)
	case BlockHeading2:
		return prefixed("## ", b.Rich)
	case BlockHeading3:
		return prefixed("### ", b.Rich)
	case BlockBullet:
		return prefixed("- ", b.Rich)
	case BlockNumbered:
		return prefixed("1. ", b.Rich)
	case BlockToDo:
		mark := " "
		if b.Checked {
			mark = "x"
		}
		return prefixed("- ["+mark+"] ", b.Rich)
	case BlockQuote, BlockCallout:
		return prefixed("> ", b.Rich)
	case BlockDivider:
		return "---", true
	case BlockCode:
		return fmt.Sprintf("```%s\n%s\n```", b.Language, b.plainText()), true
	case BlockImage:
		if b.ImageURL == "" {
			return "", false
		}
		return fmt.Sprintf("![%s](%s)", b.Caption, b.ImageURL), true
	default:
		if len(b.Rich) == 0 {
			return "", false
		}
		return richTextToMarkup(b.Rich), true
	}
}

func prefixed(prefix string, rich []RichText) (string, bool) {
	text := richTextToMarkup(rich)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return prefix + text, true
}

// richTextToMarkup joins runs into a markup string, applying annotations
// from the inside out. A code annotation wins over every other style and is
// never wrapped in a link. Page references render as their plain text:
// cross-document links have no representation in this dialect.
func richTextToMarkup(rich []RichText) string {
	var out strings.Builder
	for _, rt := range rich {
		if rt.Text == "" {
			continue
		}
		if rt.PageRef != "" {
			out.WriteString(rt.Text)
			continue
		}

		text := rt.Text
		if rt.Code {
			text = "`" + text + "`"
		} else {
			switch {
			case rt.Bold && rt.Italic:
				text = "***" + text + "***"
			case rt.Bold:
				text = "**" + text + "**"
			case rt.Italic:
				text = "*" + text + "*"
			}
			if rt.Strikethrough {
				text = "~~" + text + "~~"
			}
		}

		if rt.Link != "" && !rt.Code {
			text = "[" + text + "](" + rt.Link + ")"
		}
		out.WriteString(text)
	}
	return out.String()
}

// htmlEngine matches the original renderer's dialect: tables, strikethrough
// and autolinks via GFM, plus hard line breaks because the generator writes
// one sentence per line for the narration software.
var htmlEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderHTML converts markup text to HTML for the publish target.
func renderHTML(markup string) (string, error) {
	var buf bytes.Buffer
	if err := htmlEngine.Convert([]byte(markup), &buf); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}
