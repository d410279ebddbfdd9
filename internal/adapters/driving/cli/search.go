package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// snippetLength bounds the chunk text shown per result.
const snippetLength = 200

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve the chunks most similar to a query",
	Long: `Embeds the query and prints the nearest chunks from the vector index,
best match first. No language model is called.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "number of chunks (default retrieval.top_k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResultJSON is the --json shape of one result.
type searchResultJSON struct {
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Text   string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	results, err := a.Search.Search(ctx, args[0], searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results domain.RetrievalResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{Score: r.Score, Source: r.Chunk.Source, Index: r.Chunk.Index, Text: r.Chunk.Text}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		// Format: [N] source#index (score)
		cmd.Printf("  [%d] %s#%d (%.3f)\n", i+1, r.Chunk.Source, r.Chunk.Index, r.Score)
		cmd.Printf("      %s\n", snippet(r.Chunk.Text))
		cmd.Println()
	}
	return nil
}

// snippet flattens whitespace and truncates to snippetLength runes.
func snippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= snippetLength {
		return s
	}
	return string(runes[:snippetLength]) + "..."
}
