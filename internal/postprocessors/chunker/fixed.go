package chunker

import (
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Fixed implements the interface.
var _ driven.Splitter = (*Fixed)(nil)

// Fixed splits text into fixed-size character windows.
// Consecutive windows advance by chunkSize - overlap.
type Fixed struct {
	chunkSize int
	overlap   int
}

// NewFixed creates a fixed-window splitter.
func NewFixed(opts ...Option) (*Fixed, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Fixed{chunkSize: o.chunkSize, overlap: o.overlap}, nil
}

// Split returns the windows of text. Whitespace-only text yields no chunks.
func (f *Fixed) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	step := f.chunkSize - f.overlap
	chunks := make([]string, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := start + f.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		if chunk := string(runes[start:end]); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		// The last window reached the end; another would be pure overlap.
		if end == len(runes) {
			break
		}
	}

	return chunks
}
