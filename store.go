package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// blockWriteLimit is the store's maximum number of blocks per create or
	// append call. Larger documents are written in batches.
	blockWriteLimit = 100

	storeAPIVersion = "2022-06-28"
	defaultStoreURL = "https://api.notion.com/v1"
)

// RecordStore talks to the hosted tracking database: record queries,
// property updates and page content reads/writes.
type RecordStore struct {
	client     *http.Client
	baseURL    string
	token      string
	databaseID string

	// writeDelay spaces out consecutive write calls to stay inside the
	// store's rate limit.
	writeDelay time.Duration

	// propTypes caches the database schema types of link properties, probed
	// once per run.
	propTypes map[string]string
}

// NewRecordStore creates a store client from the injected configuration.
func NewRecordStore(cfg *Config) *RecordStore {
	return &RecordStore{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultStoreURL,
		token:      cfg.NotionToken,
		databaseID: cfg.NotionDatabaseID,
		writeDelay: 500 * time.Millisecond,
		propTypes:  make(map[string]string),
	}
}

// ── wire types ──────────────────────────────────────────────────────────

type wireRichText struct {
	Type        string           `json:"type,omitempty"`
	PlainText   string           `json:"plain_text,omitempty"`
	Href        string           `json:"href,omitempty"`
	Annotations *wireAnnotations `json:"annotations,omitempty"`
	Text        *wireText        `json:"text,omitempty"`
	Mention     *wireMention     `json:"mention,omitempty"`
}

type wireAnnotations struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Code          bool `json:"code,omitempty"`
}

type wireText struct {
	Content string    `json:"content"`
	Link    *wireLink `json:"link,omitempty"`
}

type wireLink struct {
	URL string `json:"url"`
}

type wireMention struct {
	Type string `json:"type,omitempty"`
	Page *struct {
		ID string `json:"id"`
	} `json:"page,omitempty"`
}

type wireFile struct {
	URL string `json:"url"`
}

// wirePayload is the kind-specific body shared by every block type we read.
type wirePayload struct {
	RichText []wireRichText `json:"rich_text"`
	Checked  bool           `json:"checked"`
	Language string         `json:"language"`
	Caption  []wireRichText `json:"caption"`
	Type     string         `json:"type"`
	External *wireFile      `json:"external"`
	File     *wireFile      `json:"file"`
}

type wireProperty struct {
	Type   string `json:"type"`
	Status *struct {
		Name string `json:"name"`
	} `json:"status"`
	Date *struct {
		Start string `json:"start"`
	} `json:"date"`
	Title    []wireRichText `json:"title"`
	RichText []wireRichText `json:"rich_text"`
	URL      *string        `json:"url"`
}

type wirePage struct {
	ID         string                  `json:"id"`
	Properties map[string]wireProperty `json:"properties"`
}

type wireList struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// ── HTTP plumbing ───────────────────────────────────────────────────────

func (s *RecordStore) do(method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", storeAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record store request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading record store response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: s.baseURL + path}
	}
	return data, nil
}

// ── queries ─────────────────────────────────────────────────────────────

// statusFilter builds an equality filter on a status property.
func statusFilter(property, name string) map[string]any {
	return map[string]any{
		"property": property,
		"status":   map[string]any{"equals": name},
	}
}

// QueryRecords returns all records matching the filter (nil for all),
// following the store's cursor pagination transparently. Records whose
// status values fail to parse are logged and skipped.
func (s *RecordStore) QueryRecords(filter map[string]any) ([]Record, error) {
	payload := map[string]any{}
	if filter != nil {
		payload["filter"] = filter
	}

	var records []Record
	for {
		data, err := s.do(http.MethodPost, "/databases/"+s.databaseID+"/query", payload)
		if err != nil {
			return nil, fmt.Errorf("querying records: %w", err)
		}

		var list wireList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decoding query response: %w", err)
		}

		for _, raw := range list.Results {
			rec, err := parseRecord(raw)
			if err != nil {
				log.Printf("✗ Skipping record: %v", err)
				continue
			}
			records = append(records, rec)
		}

		if !list.HasMore {
			return records, nil
		}
		payload["start_cursor"] = list.NextCursor
	}
}

// SourceExists reports whether a record with the given source URL already
// exists, for collect-sweep deduplication.
func (s *RecordStore) SourceExists(url string) (bool, error) {
	payload := map[string]any{
		"filter": map[string]any{
			"property": propSourceURL,
			"url":      map[string]any{"equals": url},
		},
		"page_size": 1,
	}

	data, err := s.do(http.MethodPost, "/databases/"+s.databaseID+"/query", payload)
	if err != nil {
		return false, fmt.Errorf("checking for existing source: %w", err)
	}

	var list wireList
	if err := json.Unmarshal(data, &list); err != nil {
		return false, fmt.Errorf("decoding query response: %w", err)
	}
	return len(list.Results) > 0, nil
}

func parseRecord(raw json.RawMessage) (Record, error) {
	var page wirePage
	if err := json.Unmarshal(raw, &page); err != nil {
		return Record{}, fmt.Errorf("decoding page: %w", err)
	}

	rec := Record{ID: page.ID}
	rec.Title = page.Properties[propTitle].plainText()
	rec.SourceURL = page.Properties[propSourceURL].urlValue()
	rec.DateSelected = page.Properties[propDateSelect].dateValue()
	rec.DateWebComplete = page.Properties[propDateWeb].dateValue()
	rec.DatePodcastComplete = page.Properties[propDatePodcast].dateValue()
	rec.ArticleLink = page.Properties[propArticleLink].linkTarget()
	rec.ScriptLink = page.Properties[propScriptLink].linkTarget()

	var err error
	if rec.Content, err = ParseContentStatus(page.Properties[propContentStatus].statusName()); err != nil {
		return Record{}, fmt.Errorf("record %s: %w", page.ID, err)
	}
	if rec.Web, err = ParseWebStatus(page.Properties[propWebStatus].statusName()); err != nil {
		return Record{}, fmt.Errorf("record %s: %w", page.ID, err)
	}
	if rec.Podcast, err = ParsePodcastStatus(page.Properties[propPodcastStatus].statusName()); err != nil {
		return Record{}, fmt.Errorf("record %s: %w", page.ID, err)
	}
	return rec, nil
}

func (p wireProperty) statusName() string {
	if p.Status == nil {
		return ""
	}
	return p.Status.Name
}

func (p wireProperty) dateValue() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

func (p wireProperty) urlValue() string {
	if p.URL == nil {
		return ""
	}
	return *p.URL
}

func (p wireProperty) plainText() string {
	runs := p.Title
	if p.Type == "rich_text" {
		runs = p.RichText
	}
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}

// linkTarget pulls the page reference out of a link property, whichever
// shape it was stored in: a url property, a mention, a link-styled text run
// or a bare href.
func (p wireProperty) linkTarget() string {
	if p.Type == "url" {
		return p.urlValue()
	}
	for _, rt := range p.RichText {
		if rt.Mention != nil && rt.Mention.Page != nil && rt.Mention.Page.ID != "" {
			return rt.Mention.Page.ID
		}
		if rt.Href != "" {
			return rt.Href
		}
		if rt.Text != nil && rt.Text.Link != nil && rt.Text.Link.URL != "" {
			return rt.Text.Link.URL
		}
	}
	return ""
}

// ── record creation and property updates ────────────────────────────────

// CreateRecord inserts a new tracking record for a collected article.
func (s *RecordStore) CreateRecord(title, sourceURL, day string) (string, error) {
	payload := map[string]any{
		"parent": map[string]any{"database_id": s.databaseID},
		"properties": map[string]any{
			propTitle: map[string]any{
				"title": []map[string]any{{"text": map[string]any{"content": truncateRunes(title, maxRunLength)}}},
			},
			propSourceURL:  map[string]any{"url": sourceURL},
			propDateSearch: map[string]any{"date": map[string]any{"start": day}},
		},
	}

	data, err := s.do(http.MethodPost, "/pages", payload)
	if err != nil {
		return "", fmt.Errorf("creating record: %w", err)
	}

	var page wirePage
	if err := json.Unmarshal(data, &page); err != nil {
		return "", fmt.Errorf("decoding created record: %w", err)
	}
	return page.ID, nil
}

// UpdateProperties applies a computed set of property updates. An empty set
// is a no-op and issues no call.
func (s *RecordStore) UpdateProperties(pageID string, updates []PropertyUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	props := make(map[string]any, len(updates))
	for _, u := range updates {
		props[u.Name] = u.Value
	}

	_, err := s.do(http.MethodPatch, "/pages/"+pageID, map[string]any{"properties": props})
	if err != nil {
		return fmt.Errorf("updating properties: %w", err)
	}
	return nil
}

// SetContentStatus is shorthand for a single content-status update.
func (s *RecordStore) SetContentStatus(pageID string, status ContentStatus) error {
	return s.UpdateProperties(pageID, []PropertyUpdate{statusUpdate(propContentStatus, status.String())})
}

// SetWebStatus is shorthand for a single web-status update.
func (s *RecordStore) SetWebStatus(pageID string, status WebStatus) error {
	return s.UpdateProperties(pageID, []PropertyUpdate{statusUpdate(propWebStatus, status.String())})
}

// ── link properties ─────────────────────────────────────────────────────

// propertyType looks up a property's schema type, once per run.
func (s *RecordStore) propertyType(name string) (string, error) {
	if t, ok := s.propTypes[name]; ok {
		return t, nil
	}

	data, err := s.do(http.MethodGet, "/databases/"+s.databaseID, nil)
	if err != nil {
		return "", fmt.Errorf("probing database schema: %w", err)
	}

	var schema struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return "", fmt.Errorf("decoding database schema: %w", err)
	}

	for n, p := range schema.Properties {
		s.propTypes[n] = p.Type
	}

	t, ok := s.propTypes[name]
	if !ok {
		return "", fmt.Errorf("property %q not in database schema", name)
	}
	return t, nil
}

// SetChildLink points a link property at a generated child page. The
// property's schema type decides the wire shape; unsupported types are an
// error rather than a silent no-op.
func (s *RecordStore) SetChildLink(pageID, property, childID string) error {
	pageURL := "https://www.notion.so/" + strings.ReplaceAll(childID, "-", "")

	propType, err := s.propertyType(property)
	if err != nil {
		return err
	}

	var value any
	switch propType {
	case "url":
		value = map[string]any{"url": pageURL}
	case "rich_text":
		value = map[string]any{
			"rich_text": []map[string]any{{
				"type": "text",
				"text": map[string]any{
					"content": "Open page",
					"link":    map[string]any{"url": pageURL},
				},
			}},
		}
	default:
		return fmt.Errorf("property %q has unsupported type %q for links", property, propType)
	}

	return s.UpdateProperties(pageID, []PropertyUpdate{{Name: property, Value: value}})
}

var (
	pageUUIDRe  = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	pageHex32Re = regexp.MustCompile(`[0-9a-fA-F]{32}`)
)

// extractPageID pulls a page id out of a link value (a bare id, a page URL
// with a dashed UUID, or one with the 32-hex form) and normalizes it to the
// canonical dashed form. Returns "" when no id is present.
func extractPageID(link string) string {
	match := pageUUIDRe.FindString(link)
	if match == "" {
		match = pageHex32Re.FindString(link)
	}
	if match == "" {
		return ""
	}
	id, err := uuid.Parse(match)
	if err != nil {
		return ""
	}
	return id.String()
}

// ── page content ────────────────────────────────────────────────────────

// CreateChildPage persists a document as a new child page under a parent
// record, honoring the per-call block limit: one create call with the first
// batch, then one append call per remaining batch, in order. A failed
// create fails the whole operation; a failed append is logged and that
// batch is dropped, leaving the page shorter rather than failing it.
func (s *RecordStore) CreateChildPage(parentID, title string, blocks []Block) (string, error) {
	first := blocks
	if len(first) > blockWriteLimit {
		first = blocks[:blockWriteLimit]
	}

	payload := map[string]any{
		"parent": map[string]any{"page_id": parentID},
		"properties": map[string]any{
			"title": map[string]any{
				"title": []map[string]any{{"text": map[string]any{"content": truncateRunes(title, maxRunLength)}}},
			},
		},
		"children": encodeBlocks(first),
	}

	data, err := s.do(http.MethodPost, "/pages", payload)
	if err != nil {
		return "", fmt.Errorf("creating child page %q: %w", truncateRunes(title, 50), err)
	}

	var page wirePage
	if err := json.Unmarshal(data, &page); err != nil {
		return "", fmt.Errorf("decoding created page: %w", err)
	}

	for i := blockWriteLimit; i < len(blocks); i += blockWriteLimit {
		end := i + blockWriteLimit
		if end > len(blocks) {
			end = len(blocks)
		}
		time.Sleep(s.writeDelay)
		if err := s.AppendBlocks(page.ID, blocks[i:end]); err != nil {
			log.Printf("✗ Appending batch %d failed: %v", i/blockWriteLimit+1, err)
		}
	}

	return page.ID, nil
}

// AppendBlocks appends one batch of blocks to an existing page.
func (s *RecordStore) AppendBlocks(pageID string, blocks []Block) error {
	_, err := s.do(http.MethodPatch, "/blocks/"+pageID+"/children", map[string]any{
		"children": encodeBlocks(blocks),
	})
	if err != nil {
		return fmt.Errorf("appending blocks: %w", err)
	}
	return nil
}

// ChildBlocks fetches a page's content, following pagination.
func (s *RecordStore) ChildBlocks(pageID string) ([]Block, error) {
	path := "/blocks/" + pageID + "/children"

	var blocks []Block
	cursor := ""
	for {
		p := path
		if cursor != "" {
			p += "?start_cursor=" + cursor
		}
		data, err := s.do(http.MethodGet, p, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching page blocks: %w", err)
		}

		var list wireList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decoding block list: %w", err)
		}

		for _, raw := range list.Results {
			if b, ok := decodeBlock(raw); ok {
				blocks = append(blocks, b)
			}
		}

		if !list.HasMore {
			return blocks, nil
		}
		cursor = list.NextCursor
	}
}

// PageTitle fetches a page and returns its title property, whatever the
// property is named.
func (s *RecordStore) PageTitle(pageID string) (string, error) {
	data, err := s.do(http.MethodGet, "/pages/"+pageID, nil)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}

	var page wirePage
	if err := json.Unmarshal(data, &page); err != nil {
		return "", fmt.Errorf("decoding page: %w", err)
	}

	for _, prop := range page.Properties {
		if prop.Type == "title" && len(prop.Title) > 0 {
			return strings.TrimSpace(prop.Title[0].PlainText), nil
		}
	}
	return "", nil
}

// ── block encode/decode ─────────────────────────────────────────────────

var wireKinds = map[string]BlockKind{
	"paragraph":          BlockParagraph,
	"heading_1":          BlockHeading1,
	"heading_2":          BlockHeading2,
	"heading_3":          BlockHeading3,
	"bulleted_list_item": BlockBullet,
	"numbered_list_item": BlockNumbered,
	"quote":              BlockQuote,
	"callout":            BlockCallout,
	"divider":            BlockDivider,
	"image":              BlockImage,
	"code":               BlockCode,
	"to_do":              BlockToDo,
}

// structural block types that carry no convertible content
var skippedWireTypes = map[string]bool{
	"child_page":     true,
	"child_database": true,
	"unsupported":    true,
	"column_list":    true,
	"column":         true,
}

func encodeBlocks(blocks []Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, encodeBlock(b))
	}
	return out
}

func encodeBlock(b Block) map[string]any {
	t := b.Kind.String()

	var body map[string]any
	switch b.Kind {
	case BlockDivider:
		body = map[string]any{}
	case BlockImage:
		body = map[string]any{
			"type":     "external",
			"external": map[string]any{"url": b.ImageURL},
		}
		if b.Caption != "" {
			body["caption"] = encodeRichText([]RichText{{Text: b.Caption}})
		}
	case BlockCode:
		body = map[string]any{
			"rich_text": encodeRichText(b.Rich),
			"language":  b.Language,
		}
	case BlockToDo:
		body = map[string]any{
			"rich_text": encodeRichText(b.Rich),
			"checked":   b.Checked,
		}
	default:
		body = map[string]any{"rich_text": encodeRichText(b.Rich)}
	}

	return map[string]any{"object": "block", "type": t, t: body}
}

func encodeRichText(rich []RichText) []map[string]any {
	out := make([]map[string]any, 0, len(rich))
	for _, rt := range chunkRuns(rich) {
		text := map[string]any{"content": rt.Text}
		if rt.Link != "" {
			text["link"] = map[string]any{"url": rt.Link}
		}
		obj := map[string]any{"type": "text", "text": text}
		if rt.Bold || rt.Italic || rt.Strikethrough || rt.Code {
			ann := map[string]any{}
			if rt.Bold {
				ann["bold"] = true
			}
			if rt.Italic {
				ann["italic"] = true
			}
			if rt.Strikethrough {
				ann["strikethrough"] = true
			}
			if rt.Code {
				ann["code"] = true
			}
			obj["annotations"] = ann
		}
		out = append(out, obj)
	}
	return out
}

// decodeBlock converts one wire block into the model. The second return is
// false for structural blocks that have no content representation.
func decodeBlock(raw json.RawMessage) (Block, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Block{}, false
	}

	var wireType string
	if err := json.Unmarshal(envelope["type"], &wireType); err != nil {
		return Block{}, false
	}
	if skippedWireTypes[wireType] {
		return Block{}, false
	}

	var payload wirePayload
	if body, ok := envelope[wireType]; ok {
		if err := json.Unmarshal(body, &payload); err != nil {
			return Block{}, false
		}
	}

	kind, known := wireKinds[wireType]
	if !known {
		if len(payload.RichText) == 0 {
			return Block{}, false
		}
		kind = BlockOther
	}

	b := Block{Kind: kind, Rich: decodeRichText(payload.RichText)}
	switch kind {
	case BlockDivider:
		b.Rich = nil
	case BlockToDo:
		b.Checked = payload.Checked
	case BlockCode:
		b.Language = payload.Language
	case BlockImage:
		if payload.External != nil {
			b.ImageURL = payload.External.URL
		} else if payload.File != nil {
			b.ImageURL = payload.File.URL
		}
		b.Caption = plainWireText(payload.Caption)
		b.Rich = nil
	}
	return b, true
}

func decodeRichText(wire []wireRichText) []RichText {
	out := make([]RichText, 0, len(wire))
	for _, w := range wire {
		rt := RichText{Text: w.PlainText, Link: w.Href}
		if w.Annotations != nil {
			rt.Bold = w.Annotations.Bold
			rt.Italic = w.Annotations.Italic
			rt.Strikethrough = w.Annotations.Strikethrough
			rt.Code = w.Annotations.Code
		}
		if w.Mention != nil {
			rt.Link = ""
			if w.Mention.Page != nil {
				rt.PageRef = w.Mention.Page.ID
			}
		}
		out = append(out, rt)
	}
	if len(out) == 0 {
		out = []RichText{{}}
	}
	return out
}

func plainWireText(wire []wireRichText) string {
	var out strings.Builder
	for _, w := range wire {
		out.WriteString(w.PlainText)
	}
	return out.String()
}

// truncateRunes caps a string at n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
