package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voidsyn/internal/domain/lesson"
)

func intPtr(n int) *int { return &n }

// TestBlocks_DuplicateHeadingIDs verifies repeated headings get numbered ids.
func TestBlocks_DuplicateHeadingIDs(t *testing.T) {
	body, toc := Blocks([]lesson.Block{
		{Kind: lesson.KindHeading, Text: "Setup"},
		{Kind: lesson.KindHeading, Text: "Setup"},
		{Kind: lesson.KindHeading, Text: "Setup", Level: 3},
	})

	assert.Contains(t, body, `<h2 id="setup">Setup</h2>`)
	assert.Contains(t, body, `<h2 id="setup-2">Setup</h2>`)
	assert.Contains(t, body, `<h3 id="setup-3">Setup</h3>`)

	lines := strings.Split(toc, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `<a href="#setup" class="block pl-0 py-1 hover:text-indigo-600">Setup</a>`, lines[0])
	assert.Equal(t, `<a href="#setup-3" class="block pl-12 py-1 hover:text-indigo-600">Setup</a>`, lines[2])
}

func TestHeadingID(t *testing.T) {
	tests := []struct {
		text  string
		level int
		want  string
	}{
		{"Hello World", 2, "hello-world"},
		{"<b>Bold</b> move!", 2, "bold-move"},
		{"  Spaced  out ", 2, "spaced--out"},
		{"???", 4, "h4"},
		{"", 1, "h1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headingID(tt.text, tt.level), tt.text)
	}
}

func TestBlocks_HeadingLevelClamped(t *testing.T) {
	body, _ := Blocks([]lesson.Block{
		{Kind: lesson.KindHeading, Text: "Deep", Level: 9},
		{Kind: lesson.KindHeading, Text: "Shallow", Level: -3},
	})
	assert.Contains(t, body, `<h6 id="deep">`)
	assert.Contains(t, body, `<h1 id="shallow">`)
}

// TestBlocks_InvalidQuizSkipped checks a broken quiz drops out without
// disturbing its neighbours or the quiz numbering.
func TestBlocks_InvalidQuizSkipped(t *testing.T) {
	body, _ := Blocks([]lesson.Block{
		{Kind: lesson.KindParagraph, Text: "before"},
		{Kind: lesson.KindQuiz, Question: "No answer", Choices: []string{"a", "b"}},
		{Kind: lesson.KindQuiz, Question: "No choices", CorrectIndex: intPtr(0)},
		{Kind: lesson.KindQuiz, Question: "Valid?", Choices: []string{"yes", "no"}, CorrectIndex: intPtr(1), Explanation: "because"},
		{Kind: lesson.KindParagraph, Text: "after"},
	})

	assert.Contains(t, body, "<p>before</p>")
	assert.Contains(t, body, "<p>after</p>")
	assert.NotContains(t, body, "No answer")
	assert.NotContains(t, body, "No choices")
	assert.Contains(t, body, `data-answer="1"`)
	assert.Contains(t, body, `<input id="quiz-1-opt-0" type="radio" name="quiz-1" value="0" class="mt-1">`)
	assert.Contains(t, body, `<label for="quiz-1-opt-1">no</label>`)
	assert.Contains(t, body, `vs-quiz-explain`)
	assert.NotContains(t, body, "quiz-2")
}

func TestBlocks_EscapesText(t *testing.T) {
	body, toc := Blocks([]lesson.Block{
		{Kind: lesson.KindHeading, Text: "<script>x</script>"},
		{Kind: lesson.KindParagraph, Text: `a < b & "c"`},
		{Kind: lesson.KindCode, Language: "Go", Code: `if a < b && c > d { "q" }`},
		{Kind: lesson.KindList, Items: []string{"<i>", "ok"}, Ordered: true},
	})
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, toc, "&lt;script&gt;x&lt;/script&gt;")
	assert.Contains(t, body, "<p>a &lt; b &amp; &#34;c&#34;</p>")
	assert.Contains(t, body, `<pre><code class="language-go">if a &lt; b &amp;&amp; c &gt; d { "q" }</code></pre>`)
	assert.Contains(t, body, "<ol><li>&lt;i&gt;</li><li>ok</li></ol>")
}

func TestBlocks_Table(t *testing.T) {
	body, _ := Blocks([]lesson.Block{
		{Kind: lesson.KindTable, Headers: []string{"Port", "Proto"}, Rows: [][]string{{"22", "ssh"}}},
		{Kind: lesson.KindTable, Rows: [][]string{{"x"}}},
	})
	assert.Contains(t, body, `<div class="not-prose overflow-x-auto"><table class="min-w-full"><thead><tr><th>Port</th><th>Proto</th></tr></thead><tbody><tr><td>22</td><td>ssh</td></tr></tbody></table></div>`)
	assert.Contains(t, body, `<table class="min-w-full"><tbody><tr><td>x</td></tr></tbody></table>`)
}

func TestBlocks_LinksAndImages(t *testing.T) {
	body, _ := Blocks([]lesson.Block{
		{Kind: lesson.KindImage, Src: "/static/net.png", Alt: "net"},
		{Kind: lesson.KindImage, Alt: "no src"},
		{Kind: lesson.KindLink, URL: " https://example.com/a?b=1&c=2 "},
		{Kind: lesson.KindLink, URL: "javascript:alert(1)", Text: "evil"},
		{Kind: lesson.KindLink, URL: "mailto:help@example.com", Text: "Mail"},
	})
	assert.Contains(t, body, `<p><img src="/static/net.png" alt="net" loading="lazy" /></p>`)
	assert.NotContains(t, body, "no src")
	assert.Contains(t, body, `<a href="https://example.com/a?b=1&amp;c=2" target="_blank" rel="noopener noreferrer">https://example.com/a?b=1&amp;c=2</a>`)
	assert.NotContains(t, body, "javascript")
	assert.NotContains(t, body, "evil")
	assert.Contains(t, body, `>Mail</a>`)
}

func TestBlocks_Embed(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", `src="https://www.youtube.com/embed/dQw4w9WgXcQ"`},
		{"short link", "https://youtu.be/abcdef123", `src="https://www.youtube.com/embed/abcdef123"`},
		{"shorts", "https://youtube.com/shorts/xyz_-12", `src="https://www.youtube.com/embed/xyz_-12"`},
		{"unmatched youtube", "https://www.youtube.com/channel/foo", `>Open video</a>`},
		{"other site", "https://vimeo.com/1234", `<p><a href="https://vimeo.com/1234" target="_blank" rel="noopener noreferrer">Open resource</a></p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := Blocks([]lesson.Block{{Kind: lesson.KindEmbed, URL: tt.url}})
			assert.Contains(t, body, tt.want)
		})
	}

	body, _ := Blocks([]lesson.Block{{Kind: lesson.KindEmbed}})
	assert.Empty(t, body)
}

func TestBlocks_Iframe(t *testing.T) {
	body, _ := Blocks([]lesson.Block{{Kind: lesson.KindIframe, Src: "https://example.com/demo", Aspect: "4:3"}})
	assert.Contains(t, body, `padding-bottom:75.000000%;`)
	assert.Contains(t, body, `title="Embedded content"`)

	body, _ = Blocks([]lesson.Block{{Kind: lesson.KindIframe, Src: "https://example.com/demo", Height: 420.7, Title: "Demo"}})
	assert.Contains(t, body, `<div style="position:relative;height:420px;overflow:hidden;">`)
	assert.Contains(t, body, `title="Demo"`)

	body, _ = Blocks([]lesson.Block{{Kind: lesson.KindIframe}})
	assert.Empty(t, body)
}

func TestAspectPadding(t *testing.T) {
	assert.Equal(t, "56.250000%", aspectPadding(""))
	assert.Equal(t, "56.250000%", aspectPadding("16:9"))
	assert.Equal(t, "100.000000%", aspectPadding(" 1 : 1 "))
	assert.Equal(t, "56.25%", aspectPadding("wide"))
	assert.Equal(t, "56.25%", aspectPadding("0:9"))
	assert.Equal(t, "56.25%", aspectPadding("a:b"))
}

func TestBlocks_Callout(t *testing.T) {
	body, _ := Blocks([]lesson.Block{
		{Kind: lesson.KindCallout, Callout: "warning", Text: "hot"},
		{Kind: lesson.KindCallout, Callout: "mystery", Title: "Hmm"},
		{Kind: lesson.KindCallout},
	})
	assert.Contains(t, body, `bg-amber-50 border-amber-200 text-amber-900"><div class="font-semibold mb-1">Warning</div><div class="text-sm opacity-90">hot</div>`)
	assert.Contains(t, body, `bg-sky-50 border-sky-200 text-sky-900"><div class="font-semibold mb-1">Hmm</div>`)
	assert.Contains(t, body, `<div class="font-semibold mb-1">Info</div>`)
}

func TestBlocks_Example(t *testing.T) {
	body, _ := Blocks([]lesson.Block{{Kind: lesson.KindExample, Language: "js", Code: "console.log(1<2)", Runnable: true}})
	assert.Contains(t, body, "vs-run-js")
	assert.Contains(t, body, `<code class="language-js">console.log(1&lt;2)</code>`)

	body, _ = Blocks([]lesson.Block{{Kind: lesson.KindExample, Language: "python", Code: "print(1)", Runnable: true}})
	assert.NotContains(t, body, "vs-run-js")
	assert.Contains(t, body, `<div class="text-xs uppercase tracking-wide text-slate-500">Example</div>`)
}

func TestBlocks_UnknownKindDropped(t *testing.T) {
	body, toc := Blocks([]lesson.Block{{Kind: "marquee", Text: "hi"}})
	assert.Empty(t, body)
	assert.Empty(t, toc)
}
