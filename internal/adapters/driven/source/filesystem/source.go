// Package filesystem provides a DocumentSource that reads documents from a
// local directory selected by a doublestar glob.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// DefaultPattern selects plain text files in the root directory.
const DefaultPattern = "*.txt"

// htmlPattern is added when HTML ingestion is enabled.
const htmlPattern = "**/*.html"

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Config configures a filesystem source.
type Config struct {
	// Dir is the root directory.
	Dir string
	// Pattern is a doublestar glob relative to Dir.
	Pattern string
	// IncludeHTML also reads .html files and converts them to markdown.
	IncludeHTML bool
}

// Source enumerates documents under a root directory.
type Source struct {
	root        string
	patterns    []string
	includeHTML bool

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a filesystem source.
func New(cfg Config) *Source {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	patterns := []string{cfg.Pattern}
	if cfg.IncludeHTML && cfg.Pattern != htmlPattern {
		patterns = append(patterns, htmlPattern)
	}
	return &Source{
		root:        cfg.Dir,
		patterns:    patterns,
		includeHTML: cfg.IncludeHTML,
	}
}

// Root returns the root directory.
func (s *Source) Root() string {
	return s.root
}

// Names lists matching documents as slash-separated paths relative to the
// root, sorted. A missing root directory yields an empty list.
func (s *Source) Names(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(s.root); errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}

	fsys := os.DirFS(s.root)
	seen := make(map[string]bool)
	names := []string{}
	for _, pattern := range s.patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: glob %q: %v", domain.ErrInvalidInput, pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				names = append(names, m)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// List reads every matching document. Invalid UTF-8 is dropped and HTML is
// converted to markdown.
func (s *Source) List(ctx context.Context) ([]domain.SourceDocument, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.SourceDocument, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		text := strings.ToValidUTF8(string(raw), "")

		if isHTML(name) {
			text, err = HTMLToMarkdown(text)
			if err != nil {
				return nil, fmt.Errorf("converting %s: %w", name, err)
			}
		}
		docs = append(docs, domain.SourceDocument{Name: name, Text: text})
	}
	return docs, nil
}

// Watch reports the names of matching documents that are created, written,
// removed or renamed. The channel is closed when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("source is closed")
	}
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", s.root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	err = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.root, err)
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.watcher = watcher

	changes := make(chan string)
	go s.forward(ctx, watcher, changes)
	return changes, nil
}

func (s *Source) forward(ctx context.Context, watcher *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer watcher.Close()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					continue
				}
			}
			if event.Op&relevant == 0 {
				continue
			}
			name, ok := s.match(event.Name)
			if !ok {
				continue
			}
			select {
			case out <- name:
			case <-ctx.Done():
				return
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// match maps an absolute event path to a document name if it matches a pattern.
func (s *Source) match(p string) (string, bool) {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return rel, true
		}
	}
	return "", false
}

// Close stops any active watcher.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}

// HTMLToMarkdown keeps the <body> of an HTML document and converts it to
// markdown with paragraphs separated by a single blank line.
func HTMLToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, header, footer").Remove()

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return "", err
	}

	return collapseBlankLines(markdown), nil
}

// collapseBlankLines trims trailing spaces and reduces every run of blank
// lines to one, so paragraph breaks survive as "\n\n".
func collapseBlankLines(text string) string {
	var (
		lines []string
		blank bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
