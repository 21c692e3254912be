//go:build browser

package web_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voidsyn/internal/adapters/content"
	web "voidsyn/internal/adapters/http"
	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/adapters/http/perf"
	"voidsyn/internal/adapters/storage"
	auditStore "voidsyn/internal/adapters/storage/audit"
	progressStore "voidsyn/internal/adapters/storage/progress"
	proUserStore "voidsyn/internal/adapters/storage/prouser"
)

// browserApp holds the running test server and Playwright handles.
type browserApp struct {
	BaseURL string
	Browser playwright.Browser
}

const quizLesson = `{
  "title": "Closures",
  "summary": "Functions that **remember**",
  "tags": ["js"],
  "blocks": [
    {"type": "heading", "text": "Scope"},
    {"type": "paragraph", "text": "A closure captures variables."},
    {"type": "example", "language": "js", "code": "console.log(1 + 1)", "runnable": true},
    {"type": "quiz", "question": "What does 1 + 1 print?", "choices": ["11", "2"], "correctIndex": 1, "explanation": "Numbers add."}
  ]
}`

// newBrowserApp starts the app over a temp content dir and SQLite stores,
// then launches headless Chromium.
func newBrowserApp(t *testing.T) *browserApp {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "js", "closures.json"), quizLesson)
	writeFile(t, filepath.Join(root, "intro.json"), `{"title":"Pro intro","tags":["pro"],"blocks":[]}`)

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "browser.db"))
	require.NoError(t, err)
	require.NoError(t, storage.MigrateDB(db))
	collector := perf.NewCollector(1000)
	timed := storage.NewTimedDB(db, collector, 0)

	srv := httptest.NewServer(web.NewMux(web.Deps{
		Cookie:   middleware.CookieConfig{Name: "vs_session"},
		CSRF:     middleware.CSRFConfig{Key: make([]byte, 32)},
		Index:    content.NewIndex(root, content.DefaultTTL),
		Progress: progressStore.NewSQLiteStore(timed),
		ProUsers: proUserStore.NewSQLiteStore(timed),
		Audit:    auditStore.NewSQLiteStore(timed),
		Perf:     collector,
	}))

	pw, err := playwright.Run()
	require.NoError(t, err, "start Playwright")
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	require.NoError(t, err, "launch browser")
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return &browserApp{BaseURL: srv.URL, Browser: browser}
}

func writeFile(t *testing.T, p, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func (a *browserApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })
	return page
}

func TestBrowser_SearchAndReadLesson(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	_, err := page.Goto(app.BaseURL + "/")
	require.NoError(t, err)
	require.NoError(t, page.Locator("header input[name=q]").Fill("closure"))
	require.NoError(t, page.Locator("header input[name=q]").Press("Enter"))
	require.NoError(t, page.Locator(`a[href="/lesson/js/closures"]`).First().Click())

	heading, err := page.Locator("h1").First().TextContent()
	require.NoError(t, err)
	assert.Equal(t, "Closures", heading)
	n, err := page.Locator(`a[href="#scope"]`).Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "toc links")
}

func TestBrowser_QuizAndRunnableExample(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	_, err := page.Goto(app.BaseURL + "/lesson/js/closures")
	require.NoError(t, err)

	require.NoError(t, page.Locator(".vs-quiz input[value='1']").Check())
	require.NoError(t, page.Locator(".vs-quiz-check").Click())
	result, _ := page.Locator(".vs-quiz-result").TextContent()
	assert.Contains(t, result, "Correct")
	visible, _ := page.Locator(".vs-quiz-explain").IsVisible()
	assert.True(t, visible, "explanation shows after a correct answer")

	require.NoError(t, page.Locator(".vs-run-js").Click())
	out := page.FrameLocator(".vs-output iframe").Locator("#out")
	require.NoError(t, out.WaitFor())
	text, _ := out.TextContent()
	assert.Equal(t, "2", strings.TrimSpace(text))
}

func TestBrowser_ProLessonRedirectsToPricing(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	_, err := page.Goto(app.BaseURL + "/lesson/intro")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(page.URL(), "/pricing"), page.URL())

	_, err = page.Goto(app.BaseURL + "/lesson/missing")
	require.NoError(t, err)
	text, _ := page.Locator("h1").TextContent()
	assert.Equal(t, "Page not found", text)
}
