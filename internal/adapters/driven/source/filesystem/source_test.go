package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{Dir: "/tmp/x"})

	assert.Equal(t, "/tmp/x", s.Root())
	assert.Equal(t, []string{DefaultPattern}, s.patterns)
}

func TestNew_IncludeHTML(t *testing.T) {
	s := New(Config{Dir: "d", Pattern: "*.md", IncludeHTML: true})

	assert.Equal(t, []string{"*.md", htmlPattern}, s.patterns)
}

func TestNames(t *testing.T) {
	t.Run("matches only txt files in root", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "b.txt", "b")
		writeFile(t, dir, "a.txt", "a")
		writeFile(t, dir, "notes.md", "skip")
		writeFile(t, dir, "sub/c.txt", "nested")

		names, err := New(Config{Dir: dir}).Names(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt", "b.txt"}, names)
	})

	t.Run("recursive pattern", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "a")
		writeFile(t, dir, "sub/deep/c.txt", "c")

		names, err := New(Config{Dir: dir, Pattern: "**/*.txt"}).Names(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt", "sub/deep/c.txt"}, names)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := New(Config{Dir: filepath.Join(t.TempDir(), "nope")}).Names(context.Background())

		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("directories named like files are skipped", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.txt"), 0755))
		writeFile(t, dir, "real.txt", "x")

		names, err := New(Config{Dir: dir}).Names(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"real.txt"}, names)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := New(Config{Dir: t.TempDir(), Pattern: "[unclosed"}).Names(context.Background())
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	t.Run("reads content", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "sky.txt", "The sky is blue.")
		writeFile(t, dir, "water.txt", "Water is wet.")

		docs, err := New(Config{Dir: dir}).List(context.Background())

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "sky.txt", docs[0].Name)
		assert.Equal(t, "The sky is blue.", docs[0].Text)
		assert.Equal(t, "water.txt", docs[1].Name)
	})

	t.Run("drops invalid utf8", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.txt", "ok\xff\xfeok")

		docs, err := New(Config{Dir: dir}).List(context.Background())

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "okok", docs[0].Text)
	})

	t.Run("converts html", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "page.html",
			`<html><head><style>p{}</style></head><body><h1>Title</h1><script>x()</script><p>Hello <b>world</b></p></body></html>`)

		docs, err := New(Config{Dir: dir, IncludeHTML: true}).List(context.Background())

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "page.html", docs[0].Name)
		assert.Contains(t, docs[0].Text, "# Title")
		assert.Contains(t, docs[0].Text, "Hello **world**")
		assert.NotContains(t, docs[0].Text, "x()")
	})

	t.Run("cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(Config{Dir: dir}).List(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTMLToMarkdown(t *testing.T) {
	out, err := HTMLToMarkdown("<body><p>one</p>\n\n\n<p>two</p></body>")

	require.NoError(t, err)
	assert.Equal(t, "one\n\ntwo", out)
}

func TestHTMLToMarkdown_KeepsParagraphBoundaries(t *testing.T) {
	out, err := HTMLToMarkdown("<html><body><p>first</p><p>second</p><p>third</p><script>x()</script></body></html>")

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, strings.Split(out, "\n\n"))
}

func TestCollapseBlankLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single break kept", "a\nb", "a\nb"},
		{"run collapsed", "a\n\n\n \t\n\nb", "a\n\nb"},
		{"edges trimmed", "\n\n a  \n\n", " a"},
		{"crlf", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"empty", "\n \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collapseBlankLines(tt.input))
		})
	}
}

func TestWatch(t *testing.T) {
	t.Run("reports matching changes", func(t *testing.T) {
		dir := t.TempDir()
		src := New(Config{Dir: dir})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx)
		require.NoError(t, err)

		go func() {
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("x"), 0644)
			os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0644)
		}()

		select {
		case name := <-changes:
			assert.Equal(t, "new.txt", name)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for change")
		}
		require.NoError(t, src.Close())
	})

	t.Run("missing directory", func(t *testing.T) {
		changes, err := New(Config{Dir: "/non/existent/path"}).Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel on cancel", func(t *testing.T) {
		src := New(Config{Dir: t.TempDir()})
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := src.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})

	t.Run("closed source", func(t *testing.T) {
		src := New(Config{Dir: t.TempDir()})
		require.NoError(t, src.Close())

		changes, err := src.Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})
}
