package lesson

import (
	"errors"
	"path"
	"strings"
)

// TagPro marks a lesson as paid-tier content.
const TagPro = "pro"

// Block kinds. Matching against the document's "type" field is case-insensitive.
const (
	KindHeading   = "heading"
	KindParagraph = "paragraph"
	KindCode      = "code"
	KindList      = "list"
	KindTable     = "table"
	KindSteps     = "steps"
	KindImage     = "image"
	KindLink      = "link"
	KindEmbed     = "embed"
	KindIframe    = "iframe"
	KindCallout   = "callout"
	KindExample   = "example"
	KindQuiz      = "quiz"
)

// Domain errors
var (
	ErrNotObject = errors.New("lesson document must be a JSON object")
	ErrEmptySlug = errors.New("lesson slug cannot be empty")
)

// Document is a parsed lesson file.
// Slug is the path relative to the content root with forward slashes and
// without the .json suffix.
type Document struct {
	Slug    string
	Title   string
	Summary string
	Tags    []string
	Blocks  []Block
}

// Block is one typed content unit of a lesson. Kind selects which of the
// remaining fields are meaningful; the rest stay at their zero value.
type Block struct {
	Kind string

	Text     string // heading, paragraph, link, callout
	Level    int    // heading; 0 means unset
	Language string // code, example
	Code     string // code, example
	Items    []string
	Ordered  bool
	Headers  []string
	Rows     [][]string
	Src      string // image, iframe
	Alt      string
	URL      string // link, embed
	Title    string // iframe, callout
	Height   float64
	Aspect   string
	Callout  string // callout kind: info, success, warning, danger, note
	Runnable bool

	Question     string
	Choices      []string
	CorrectIndex *int
	Explanation  string
}

// Entry is the searchable summary of a lesson kept in the content index.
type Entry struct {
	Slug    string
	Title   string
	Summary string
	Tags    []string
	Text    string // lowercase, newline-joined searchable text
}

// IsPro reports whether the document carries the pro tag.
func (d Document) IsPro() bool {
	return hasTag(d.Tags, TagPro)
}

// IsPro reports whether the indexed lesson carries the pro tag.
func (e Entry) IsPro() bool {
	return hasTag(e.Tags, TagPro)
}

// DisplayTitle returns the title, falling back to the last slug segment.
func (e Entry) DisplayTitle() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return path.Base(e.Slug)
}

// Entry builds the index entry for the document.
func (d Document) Entry() Entry {
	parts := []string{d.Title, d.Summary}
	for _, b := range d.Blocks {
		parts = append(parts, b.searchText()...)
	}
	return Entry{
		Slug:    d.Slug,
		Title:   d.Title,
		Summary: d.Summary,
		Tags:    d.Tags,
		Text:    strings.ToLower(strings.Join(parts, "\n")),
	}
}

func (b Block) searchText() []string {
	switch b.Kind {
	case KindHeading, KindParagraph:
		return []string{b.Text}
	case KindList, KindSteps:
		return b.Items
	case KindCode:
		return []string{b.Code}
	case KindTable:
		out := append([]string{}, b.Headers...)
		for _, row := range b.Rows {
			out = append(out, row...)
		}
		return out
	case KindCallout:
		return []string{b.Title, b.Text}
	case KindQuiz:
		out := []string{b.Question}
		out = append(out, b.Choices...)
		return append(out, b.Explanation)
	case KindLink:
		return []string{b.Text}
	case KindImage:
		return []string{b.Alt}
	}
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
