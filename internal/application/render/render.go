package render

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"voidsyn/internal/domain/lesson"
)

const (
	frameAllow = "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"
	frameFill  = "position:absolute;top:0;left:0;width:100%;height:100%;border:0;"

	defaultPadding = "56.25%"
)

var (
	youtubeID  = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?v=|embed/|shorts/))([A-Za-z0-9_-]{6,})`)
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	idStrip    = regexp.MustCompile(`[^a-z0-9\- ]+`)

	codeEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

var calloutClasses = map[string]string{
	"info":    "bg-sky-50 border-sky-200 text-sky-900",
	"success": "bg-emerald-50 border-emerald-200 text-emerald-900",
	"warning": "bg-amber-50 border-amber-200 text-amber-900",
	"danger":  "bg-rose-50 border-rose-200 text-rose-900",
	"note":    "bg-indigo-50 border-indigo-200 text-indigo-900",
}

var runnableLanguages = map[string]bool{"js": true, "javascript": true, "html": true}

type tocItem struct {
	level int
	id    string
	text  string
}

// renderer carries the only state shared between blocks of one page.
type renderer struct {
	usedIDs map[string]bool
	quizzes int
	toc     []tocItem
}

// Blocks renders lesson blocks to an HTML fragment plus a table of contents.
// Text is escaped, unknown kinds and invalid blocks are dropped, and the
// output is meant to go through Sanitize before reaching a page.
// INVARIANT: heading ids are unique within one call
func Blocks(blocks []lesson.Block) (body string, toc string) {
	r := &renderer{usedIDs: make(map[string]bool)}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if out := r.block(b); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n"), r.tocHTML()
}

func (r *renderer) block(b lesson.Block) string {
	switch b.Kind {
	case lesson.KindHeading:
		return r.heading(b)
	case lesson.KindParagraph:
		return "<p>" + esc(b.Text) + "</p>"
	case lesson.KindCode:
		return "<pre><code" + languageClass(b.Language) + ">" + codeEscaper.Replace(b.Code) + "</code></pre>"
	case lesson.KindList:
		tag := "ul"
		if b.Ordered {
			tag = "ol"
		}
		return "<" + tag + ">" + listItems(b.Items) + "</" + tag + ">"
	case lesson.KindSteps:
		return "<ol>" + listItems(b.Items) + "</ol>"
	case lesson.KindTable:
		return table(b)
	case lesson.KindImage:
		src, ok := safeURL(b.Src)
		if !ok {
			return ""
		}
		return fmt.Sprintf(`<p><img src="%s" alt="%s" loading="lazy" /></p>`, src, esc(b.Alt))
	case lesson.KindLink:
		href, ok := safeURL(b.URL)
		if !ok {
			return ""
		}
		text := b.Text
		if text == "" {
			text = strings.TrimSpace(b.URL)
		}
		return externalLink(href, esc(text))
	case lesson.KindEmbed:
		return embed(b.URL)
	case lesson.KindIframe:
		return iframe(b)
	case lesson.KindCallout:
		return callout(b)
	case lesson.KindExample:
		return example(b)
	case lesson.KindQuiz:
		return r.quiz(b)
	}
	return ""
}

func (r *renderer) heading(b lesson.Block) string {
	level := b.Level
	if level == 0 {
		level = 2
	}
	level = max(1, min(level, 6))

	text := esc(b.Text)
	id := r.uniqueID(headingID(b.Text, level))
	r.toc = append(r.toc, tocItem{level: level, id: id, text: text})
	return fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, id, text, level)
}

func headingID(text string, level int) string {
	s := tagPattern.ReplaceAllString(text, "")
	s = idStrip.ReplaceAllString(strings.ToLower(s), "")
	s = strings.ReplaceAll(strings.Trim(s, " "), " ", "-")
	if s == "" {
		return "h" + strconv.Itoa(level)
	}
	return s
}

func (r *renderer) uniqueID(base string) string {
	id := base
	for i := 2; r.usedIDs[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	r.usedIDs[id] = true
	return id
}

func (r *renderer) tocHTML() string {
	links := make([]string, 0, len(r.toc))
	for _, item := range r.toc {
		indent := max(0, (item.level-2)*12)
		links = append(links, fmt.Sprintf(`<a href="#%s" class="block pl-%d py-1 hover:text-indigo-600">%s</a>`, item.id, indent, item.text))
	}
	return strings.Join(links, "\n")
}

func table(b lesson.Block) string {
	var sb strings.Builder
	sb.WriteString(`<div class="not-prose overflow-x-auto"><table class="min-w-full">`)
	if len(b.Headers) > 0 {
		sb.WriteString("<thead><tr>")
		for _, h := range b.Headers {
			sb.WriteString("<th>" + esc(h) + "</th>")
		}
		sb.WriteString("</tr></thead>")
	}
	sb.WriteString("<tbody>")
	for _, row := range b.Rows {
		sb.WriteString("<tr>")
		for _, c := range row {
			sb.WriteString("<td>" + esc(c) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table></div>")
	return sb.String()
}

// embed only ever produces a YouTube player; anything else becomes a link.
func embed(raw string) string {
	u := strings.TrimSpace(raw)
	href, ok := safeURL(u)
	if !ok {
		return ""
	}
	if strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be") {
		if m := youtubeID.FindStringSubmatch(u); m != nil {
			return `<div style="position:relative;padding-bottom:56.25%;height:0;min-height:300px;overflow:hidden;">` +
				`<iframe src="https://www.youtube.com/embed/` + m[1] + `" title="YouTube video" frameborder="0" ` +
				`allow="` + frameAllow + `" allowfullscreen loading="lazy" referrerpolicy="strict-origin-when-cross-origin" ` +
				`style="` + frameFill + `"></iframe></div>`
		}
		return externalLink(href, "Open video")
	}
	return externalLink(href, "Open resource")
}

func iframe(b lesson.Block) string {
	src, ok := safeURL(b.Src)
	if !ok {
		return ""
	}
	title := b.Title
	if title == "" {
		title = "Embedded content"
	}
	wrapper := "position:relative;padding-bottom:" + aspectPadding(b.Aspect) + ";height:0;min-height:300px;overflow:hidden;"
	if b.Height > 0 {
		wrapper = fmt.Sprintf("position:relative;height:%dpx;overflow:hidden;", int(b.Height))
	}
	return `<div style="` + wrapper + `">` +
		`<iframe src="` + src + `" title="` + esc(title) + `" frameborder="0" ` +
		`allow="` + frameAllow + `" allowfullscreen loading="lazy" referrerpolicy="strict-origin-when-cross-origin" ` +
		`style="` + frameFill + `"></iframe></div>`
}

// aspectPadding turns "W:H" into the padding-bottom percentage for a
// responsive frame, falling back to 16:9.
func aspectPadding(aspect string) string {
	if aspect == "" {
		aspect = "16:9"
	}
	ws, hs, ok := strings.Cut(aspect, ":")
	if !ok {
		return defaultPadding
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err1 != nil || err2 != nil || !(w > 0) || !(h > 0) {
		return defaultPadding
	}
	return fmt.Sprintf("%.6f%%", h/w*100)
}

func callout(b lesson.Block) string {
	kind := b.Callout
	if kind == "" {
		kind = "info"
	}
	title := b.Title
	if title == "" {
		title = titleCase(kind)
	}
	cls, ok := calloutClasses[kind]
	if !ok {
		cls = calloutClasses["info"]
	}
	return `<div class="not-prose my-4 p-4 border rounded ` + cls + `">` +
		`<div class="font-semibold mb-1">` + esc(title) + `</div>` +
		`<div class="text-sm opacity-90">` + esc(b.Text) + `</div>` +
		`</div>`
}

func example(b lesson.Block) string {
	btn := ""
	if b.Runnable && runnableLanguages[strings.ToLower(b.Language)] {
		btn = `<button type="button" class="vs-run-js inline-flex items-center px-3 py-1.5 rounded bg-slate-800 text-white text-sm hover:bg-slate-700">Run</button>`
	}
	return `<div class="not-prose my-4 border rounded overflow-hidden">` +
		`<div class="px-3 py-2 border-b bg-slate-50 flex items-center justify-between">` +
		`<div class="text-xs uppercase tracking-wide text-slate-500">Example</div>` +
		btn +
		`</div>` +
		`<pre class="m-0"><code` + languageClass(b.Language) + `>` + codeEscaper.Replace(b.Code) + `</code></pre>` +
		`<div class="vs-output hidden">` +
		`<iframe class="w-full h-64" sandbox="allow-scripts allow-same-origin"></iframe>` +
		`</div>` +
		`</div>`
}

func (r *renderer) quiz(b lesson.Block) string {
	if len(b.Choices) == 0 || b.CorrectIndex == nil {
		return ""
	}
	r.quizzes++
	qid := "quiz-" + strconv.Itoa(r.quizzes)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="not-prose my-4 p-4 border rounded vs-quiz" data-answer="%d">`, *b.CorrectIndex)
	sb.WriteString(`<div class="font-medium mb-2">` + esc(b.Question) + `</div>`)
	for i, choice := range b.Choices {
		rid := fmt.Sprintf("%s-opt-%d", qid, i)
		sb.WriteString(`<div class="flex items-start gap-2">`)
		fmt.Fprintf(&sb, `<input id="%s" type="radio" name="%s" value="%d" class="mt-1">`, rid, qid, i)
		fmt.Fprintf(&sb, `<label for="%s">%s</label>`, rid, esc(choice))
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`<div class="mt-3 flex items-center gap-3">`)
	sb.WriteString(`<button type="button" class="vs-quiz-check px-3 py-1.5 rounded bg-indigo-600 text-white text-sm">Check</button>`)
	sb.WriteString(`<span class="vs-quiz-result text-sm"></span>`)
	sb.WriteString(`</div>`)
	if b.Explanation != "" {
		sb.WriteString(`<div class="vs-quiz-explain mt-2 text-sm text-slate-600 hidden">` + esc(b.Explanation) + `</div>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

func externalLink(href, text string) string {
	return `<p><a href="` + href + `" target="_blank" rel="noopener noreferrer">` + text + `</a></p>`
}

func listItems(items []string) string {
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("<li>" + esc(it) + "</li>")
	}
	return sb.String()
}

func languageClass(lang string) string {
	if lang == "" {
		return ""
	}
	return ` class="language-` + esc(strings.ToLower(lang)) + `"`
}

// safeURL validates a link target and returns it attribute-escaped.
// Only http, https and mailto schemes or relative references pass.
func safeURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return html.EscapeString(s), true
	}
	return "", false
}

func titleCase(s string) string {
	out := []rune(strings.ToLower(s))
	upper := true
	for i, c := range out {
		if upper && unicode.IsLetter(c) {
			out[i] = unicode.ToUpper(c)
		}
		upper = !unicode.IsLetter(c)
	}
	return string(out)
}

func esc(s string) string {
	return html.EscapeString(s)
}
