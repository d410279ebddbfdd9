// Package chunker splits document text into bounded, overlapping chunks.
//
// Two strategies are provided. Recursive splits on natural boundaries
// (paragraph, line, sentence, word) before falling back to a hard character
// cut. Fixed slides a fixed-size character window over the text.
// Lengths are measured in runes.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultSeparators are tried in order, coarsest first.
// The empty separator splits between individual characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Ensure Recursive implements the interface.
var _ driven.Splitter = (*Recursive)(nil)

// Recursive splits text on the coarsest separator present and merges the
// pieces back into chunks no longer than the chunk size. Pieces that are
// still too long are split again with the next separator.
type Recursive struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures a splitter.
type Option func(*options)

type options struct {
	chunkSize  int
	overlap    int
	separators []string
}

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(o *options) {
		o.overlap = overlap
	}
}

// WithSeparators replaces the separator list. An empty separator is
// appended when missing so every chunk stays within the size bound.
func WithSeparators(separators ...string) Option {
	return func(o *options) {
		o.separators = separators
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := domain.ChunkingSettings{Size: o.chunkSize, Overlap: o.overlap}
	if err := cfg.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// NewRecursive creates a recursive splitter. Invalid sizes are a
// configuration error so they surface at startup rather than per document.
func NewRecursive(opts ...Option) (*Recursive, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	seps := make([]string, 0, len(o.separators)+1)
	for _, s := range o.separators {
		if s != "" {
			seps = append(seps, s)
		}
	}
	seps = append(seps, "")

	return &Recursive{
		chunkSize:  o.chunkSize,
		overlap:    o.overlap,
		separators: seps,
	}, nil
}

// Split returns the chunks of text. Whitespace-only text yields no chunks.
func (r *Recursive) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return r.split(text, r.separators)
}

func (r *Recursive) split(text string, separators []string) []string {
	sep := ""
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitKeep(text, sep) {
		if runeLen(piece) <= r.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, r.merge(pending)...)
			pending = nil
		}
		chunks = append(chunks, r.split(piece, finer)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, r.merge(pending)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most chunkSize runes. When a chunk is
// emitted, leading pieces are dropped until at most overlap runes remain,
// and those carry over as the start of the next chunk.
func (r *Recursive) merge(pieces []string) []string {
	var chunks, window []string
	total := 0

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > r.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for len(window) > 0 && (total > r.overlap || total+n > r.chunkSize) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeep splits text after each separator so no characters are lost.
// The empty separator splits into single runes.
func splitKeep(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.SplitAfter(text, sep)
	pieces := parts[:0]
	for _, p := range parts {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
