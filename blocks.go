package main

import (
	"errors"
	"fmt"
)

// maxRunLength is the record store's hard ceiling on the length of a single
// rich text run. Longer text must be split into consecutive runs.
const maxRunLength = 2000

// ErrMalformedBlock is returned when a block is constructed with data that
// the record store would reject.
var ErrMalformedBlock = errors.New("malformed block")

// RichText is a styled span of text within a block. Code annotation takes
// precedence over the other style flags when rendering to markup.
type RichText struct {
	Text          string
	Bold          bool
	Italic        bool
	Strikethrough bool
	Code          bool
	Link          string // external URL, empty if none
	PageRef       string // referenced page id, empty if none
}

// BlockKind identifies the type of a content block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading1
	BlockHeading2
	BlockHeading3
	BlockBullet
	BlockNumbered
	BlockQuote
	BlockCallout
	BlockDivider
	BlockImage
	BlockCode
	BlockToDo
	// BlockOther carries the text of store block types this pipeline does not
	// model (synced blocks, toggles, ...) so their content is not lost when
	// rendering.
	BlockOther
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading1:
		return "heading_1"
	case BlockHeading2:
		return "heading_2"
	case BlockHeading3:
		return "heading_3"
	case BlockBullet:
		return "bulleted_list_item"
	case BlockNumbered:
		return "numbered_list_item"
	case BlockQuote:
		return "quote"
	case BlockCallout:
		return "callout"
	case BlockDivider:
		return "divider"
	case BlockImage:
		return "image"
	case BlockCode:
		return "code"
	case BlockToDo:
		return "to_do"
	case BlockOther:
		return "other"
	}
	return fmt.Sprintf("BlockKind(%d)", int(k))
}

// Block is one typed unit of content. A Document is an ordered []Block.
type Block struct {
	Kind BlockKind
	Rich []RichText

	// Kind-specific fields
	Checked  bool   // to_do
	Language string // code
	ImageURL string // image
	Caption  string // image
}

// Validate checks the invariants the record store enforces.
func (b Block) Validate() error {
	switch b.Kind {
	case BlockDivider:
		if len(b.Rich) > 0 {
			return fmt.Errorf("%w: divider must not carry text", ErrMalformedBlock)
		}
	case BlockImage:
		if b.ImageURL == "" {
			return fmt.Errorf("%w: image requires a URL", ErrMalformedBlock)
		}
	}
	return nil
}

// NewParagraph builds a paragraph block. An empty run list yields a single
// empty run so the block is still representable on the wire.
func NewParagraph(rich ...RichText) Block {
	if len(rich) == 0 {
		rich = []RichText{{}}
	}
	return Block{Kind: BlockParagraph, Rich: rich}
}

// NewHeading builds a heading block for level 1-3.
func NewHeading(level int, rich ...RichText) (Block, error) {
	var kind BlockKind
	switch level {
	case 1:
		kind = BlockHeading1
	case 2:
		kind = BlockHeading2
	case 3:
		kind = BlockHeading3
	default:
		return Block{}, fmt.Errorf("%w: heading level %d out of range", ErrMalformedBlock, level)
	}
	if len(rich) == 0 {
		rich = []RichText{{}}
	}
	return Block{Kind: kind, Rich: rich}, nil
}

// NewQuote builds a quote block.
func NewQuote(rich ...RichText) Block {
	if len(rich) == 0 {
		rich = []RichText{{}}
	}
	return Block{Kind: BlockQuote, Rich: rich}
}

// NewBullet builds a bulleted list item.
func NewBullet(rich ...RichText) Block {
	if len(rich) == 0 {
		rich = []RichText{{}}
	}
	return Block{Kind: BlockBullet, Rich: rich}
}

// NewDivider builds a divider block.
func NewDivider() Block {
	return Block{Kind: BlockDivider}
}

// NewImage builds an image block and validates the URL up front.
func NewImage(url, caption string) (Block, error) {
	b := Block{Kind: BlockImage, ImageURL: url, Caption: caption}
	if err := b.Validate(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// plainText concatenates the raw text of all runs.
func (b Block) plainText() string {
	var out string
	for _, rt := range b.Rich {
		out += rt.Text
	}
	return out
}

// isEmptyParagraph reports whether the block is a paragraph whose runs carry
// no text. Used for blank-line coalescing and trailing-paragraph stripping.
func (b Block) isEmptyParagraph() bool {
	if b.Kind != BlockParagraph {
		return false
	}
	for _, rt := range b.Rich {
		if rt.Text != "" {
			return false
		}
	}
	return true
}

// chunkRun splits a run into consecutive runs of at most maxRunLength runes,
// preserving every annotation on each fragment. Empty text yields the run
// unchanged.
func chunkRun(rt RichText) []RichText {
	runes := []rune(rt.Text)
	if len(runes) <= maxRunLength {
		return []RichText{rt}
	}
	var out []RichText
	for len(runes) > 0 {
		n := maxRunLength
		if len(runes) < n {
			n = len(runes)
		}
		frag := rt
		frag.Text = string(runes[:n])
		out = append(out, frag)
		runes = runes[n:]
	}
	return out
}

// chunkRuns applies chunkRun to every run in order.
func chunkRuns(rich []RichText) []RichText {
	out := make([]RichText, 0, len(rich))
	for _, rt := range rich {
		out = append(out, chunkRun(rt)...)
	}
	return out
}
