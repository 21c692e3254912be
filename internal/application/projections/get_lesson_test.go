package projections

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voidsyn/internal/adapters/content"
	"voidsyn/internal/domain/user"
)

type mockRegistry struct {
	users map[string]bool
	err   error
	calls int
}

func (m *mockRegistry) IsRegistered(_ context.Context, uid string) (bool, error) {
	m.calls++
	return m.users[uid], m.err
}

func writeLesson(t *testing.T, root, slug, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(slug)+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func newIndex(t *testing.T) *content.Index {
	t.Helper()
	root := t.TempDir()
	writeLesson(t, root, "intro", `{"title":"Intro","tags":["pro"],"blocks":[{"type":"heading","text":"Start"},{"type":"paragraph","text":"<b>hi</b>"}]}`)
	writeLesson(t, root, "free/basics", `{"summary":"The basics","blocks":[{"type":"paragraph","text":"Hello"}]}`)
	writeLesson(t, root, "broken", `{not json`)
	return content.NewIndex(root, content.DefaultTTL)
}

func TestQueryLesson_FreeLesson(t *testing.T) {
	view, err := QueryLesson(context.Background(), GetLessonInput{Slug: "free/basics"},
		GetLessonDeps{Lessons: newIndex(t), Registry: &mockRegistry{}})
	require.NoError(t, err)
	assert.Equal(t, "Lesson", view.Title)
	assert.Equal(t, "The basics", view.Summary)
	assert.Contains(t, view.Body, "<p>Hello</p>")
}

func TestQueryLesson_ProGate(t *testing.T) {
	idx := newIndex(t)
	reg := &mockRegistry{users: map[string]bool{"paid": true}}
	deps := GetLessonDeps{Lessons: idx, Registry: reg}

	tests := []struct {
		name string
		user *user.User
		want error
	}{
		{"anonymous", nil, ErrProRequired},
		{"signed in without access", &user.User{UID: "free"}, ErrProRequired},
		{"registered", &user.User{UID: "paid"}, nil},
		{"claim only", &user.User{UID: "claimed", Claims: map[string]any{"pro": true}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := QueryLesson(context.Background(), GetLessonInput{Slug: "intro", User: tt.user}, deps)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Intro", view.Title)
			assert.Contains(t, view.Body, `id="start"`)
			assert.Contains(t, view.Body, "&lt;b&gt;hi&lt;/b&gt;")
			assert.Contains(t, view.TOC, `href="#start"`)
		})
	}
}

func TestQueryLesson_NotFound(t *testing.T) {
	deps := GetLessonDeps{Lessons: newIndex(t), Registry: &mockRegistry{}}
	for _, slug := range []string{"missing", "../etc/passwd", "free"} {
		_, err := QueryLesson(context.Background(), GetLessonInput{Slug: slug}, deps)
		assert.True(t, IsNotFound(err), "slug %q: %v", slug, err)
	}
}

func TestQueryLesson_MalformedIsAnError(t *testing.T) {
	_, err := QueryLesson(context.Background(), GetLessonInput{Slug: "broken"},
		GetLessonDeps{Lessons: newIndex(t), Registry: &mockRegistry{}})
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestQueryProAccess(t *testing.T) {
	reg := &mockRegistry{users: map[string]bool{"paid": true}}
	ok, err := QueryProAccess(context.Background(), nil, reg)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, reg.calls)

	ok, err = QueryProAccess(context.Background(), &user.User{UID: "paid"}, reg)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = QueryProAccess(context.Background(), &user.User{UID: "x"}, &mockRegistry{err: errors.New("disk")})
	assert.Error(t, err)
}

func TestQueryProDashboard(t *testing.T) {
	deps := ProDashboardDeps{Lessons: newIndex(t), Registry: &mockRegistry{users: map[string]bool{"paid": true}}}
	lessons, err := QueryProDashboard(context.Background(), &user.User{UID: "paid"}, deps)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "intro", lessons[0].Slug)

	_, err = QueryProDashboard(context.Background(), &user.User{UID: "free"}, deps)
	assert.ErrorIs(t, err, ErrProRequired)
}
