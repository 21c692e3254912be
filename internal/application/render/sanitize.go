package render

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// allowedStyles are the only inline CSS properties that survive sanitizing.
var allowedStyles = []string{
	"position", "padding", "padding-bottom", "height", "overflow",
	"top", "left", "width", "border", "max-width", "min-height",
}

// styleValue accepts plain lengths, keywords and percentages.
var styleValue = regexp.MustCompile(`^[a-zA-Z0-9.%\s-]+$`)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips everything outside the lesson allow-list from rendered HTML.
// Disallowed tags are removed with their text kept, never escaped into view.
// INVARIANT: Sanitize(Sanitize(x)) == Sanitize(x)
func Sanitize(fragment string) string {
	policyOnce.Do(func() { policy = lessonPolicy() })
	return policy.Sanitize(fragment)
}

func lessonPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i", "li", "ol", "strong", "ul",
		"p", "pre", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tr", "th", "td",
		"iframe", "img", "div", "button", "input", "label", "form", "span",
	)

	p.AllowAttrs("href", "title", "rel", "target", "class").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr", "acronym")
	p.AllowAttrs("class").OnElements("code", "p", "pre", "ul", "ol", "li", "table", "thead", "tbody", "tr", "form", "span")
	p.AllowAttrs("id", "class").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("align").OnElements("th", "td")
	p.AllowAttrs("src", "width", "height", "allow", "allowfullscreen", "frameborder",
		"loading", "referrerpolicy", "title", "class", "sandbox").OnElements("iframe")
	p.AllowAttrs("src", "alt", "title", "width", "height", "loading", "class").OnElements("img")
	p.AllowAttrs("class", "data-answer").OnElements("div")
	p.AllowAttrs("class", "type").OnElements("button")
	p.AllowAttrs("class", "type", "name", "value", "id", "checked").OnElements("input")
	p.AllowAttrs("for", "class").OnElements("label")

	p.AllowStyles(allowedStyles...).Matching(styleValue).OnElements("div", "iframe")

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)

	return p
}
