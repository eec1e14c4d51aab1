package main

import (
	"regexp"
	"strings"
)

var (
	bulletRe  = regexp.MustCompile(`^[-*] `)
	dividerRe = regexp.MustCompile(`^[-*_]{3,}$`)
	boldRe    = regexp.MustCompile(`\*\*[^*]+\*\*`)
	// tempTagRe matches the machine-internal placeholder lines the publish
	// template understands, e.g. "[temp id=3]". They carry no content and
	// must never enter a parsed document.
	tempTagRe = regexp.MustCompile(`^\[temp(?: id=\d+)?\]$`)
)

// MarkupToBlocks parses line-oriented markup into an ordered document.
//
// Supported syntax is the subset the generator produces: # / ## / ###
// headings, > quotes, - and * bullets, horizontal rules, **bold** spans and
// plain paragraphs. Each gap of one or more blank lines becomes a single
// empty paragraph, so spacing survives without block-count bloat. Leading
// gaps produce nothing and trailing empty paragraphs are stripped.
func MarkupToBlocks(markup string) []Block {
	var blocks []Block

	for _, line := range strings.Split(markup, "\n") {
		stripped := strings.TrimRight(line, " \t\r")

		if stripped == "" {
			if len(blocks) > 0 && !blocks[len(blocks)-1].isEmptyParagraph() {
				blocks = append(blocks, NewParagraph())
			}
			continue
		}

		switch {
		case strings.HasPrefix(stripped, "### "):
			if rich, ok := headingRuns(stripped[4:]); ok {
				blocks = append(blocks, Block{Kind: BlockHeading3, Rich: rich})
			}
		case strings.HasPrefix(stripped, "## "):
			if rich, ok := headingRuns(stripped[3:]); ok {
				blocks = append(blocks, Block{Kind: BlockHeading2, Rich: rich})
			}
		case strings.HasPrefix(stripped, "# "):
			if rich, ok := headingRuns(stripped[2:]); ok {
				blocks = append(blocks, Block{Kind: BlockHeading1, Rich: rich})
			}
		case strings.HasPrefix(stripped, "> "):
			blocks = append(blocks, NewQuote(parseInline(stripped[2:])...))
		case stripped == ">":
			blocks = append(blocks, NewQuote())
		case bulletRe.MatchString(stripped):
			blocks = append(blocks, NewBullet(parseInline(stripped[2:])...))
		case dividerRe.MatchString(stripped):
			blocks = append(blocks, NewDivider())
		case tempTagRe.MatchString(stripped):
			// dropped entirely
		default:
			blocks = append(blocks, NewParagraph(parseInline(stripped)...))
		}
	}

	// Strip trailing empty paragraphs.
	for len(blocks) > 0 && blocks[len(blocks)-1].isEmptyParagraph() {
		blocks = blocks[:len(blocks)-1]
	}

	return blocks
}

// headingRuns parses a heading remainder. Headings with no visible text are
// discarded rather than emitted empty.
func headingRuns(rest string) ([]RichText, bool) {
	if strings.TrimSpace(rest) == "" {
		return nil, false
	}
	return parseInline(rest), true
}

// parseInline splits a line into runs, recognizing **bold** spans. Text
// inside and outside spans is chunked independently at the run-length
// ceiling. An empty line yields a single empty run so every block has at
// least one run.
func parseInline(text string) []RichText {
	var runs []RichText

	emit := func(seg string, bold bool) {
		if seg == "" {
			return
		}
		runs = append(runs, chunkRun(RichText{Text: seg, Bold: bold})...)
	}

	last := 0
	for _, loc := range boldRe.FindAllStringIndex(text, -1) {
		emit(text[last:loc[0]], false)
		emit(text[loc[0]+2:loc[1]-2], true)
		last = loc[1]
	}
	emit(text[last:], false)

	if len(runs) == 0 {
		runs = []RichText{{}}
	}
	return runs
}

// PlainTextToBlocks converts generated plain text (one sentence per line)
// into paragraph blocks. Blank lines are separators only; lines longer than
// the run ceiling become several consecutive paragraphs.
func PlainTextToBlocks(text string) []Block {
	var blocks []Block
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimRight(line, " \t\r")
		if stripped == "" {
			continue
		}
		for _, frag := range chunkRun(RichText{Text: stripped}) {
			blocks = append(blocks, NewParagraph(frag))
		}
	}
	return blocks
}
