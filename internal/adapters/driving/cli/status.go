package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// pingTimeout bounds each health check run by `status --ping`.
const pingTimeout = 10 * time.Second

var (
	statusPing bool
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the vector index and source status",
	Long: `Lists the collections in the vector index, the size of the configured
collection and the documents the next ingestion would read.

With --ping the embedding and completion providers are contacted as well.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the configured collection",
	Long: `Deletes the configured collection and every point in it. Conversation
history is kept. Run 'ragchat ingest' afterwards to index the documents again.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	statusCmd.Flags().BoolVar(&statusPing, "ping", false, "check provider connectivity")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
}

// checkResult is the outcome of one health check.
type checkResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// statusJSONOutput is the --json shape of the status command.
type statusJSONOutput struct {
	Collections []string      `json:"collections"`
	Active      *activeJSON   `json:"active,omitempty"`
	Documents   []string      `json:"documents"`
	Checks      []checkResult `json:"checks,omitempty"`
}

type activeJSON struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Points    int64  `json:"points"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	status, err := a.Index.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading index status: %w", err)
	}

	var checks []checkResult
	if statusPing {
		checks = runChecks(cmd, a)
	}

	if statusJSON {
		if err := printStatusJSON(cmd, status, checks); err != nil {
			return err
		}
	} else {
		printStatus(cmd, a, status, checks)
	}

	for _, c := range checks {
		if !c.OK {
			return errors.New("one or more health checks failed")
		}
	}
	return nil
}

func runChecks(cmd *cobra.Command, a *App) []checkResult {
	results := make([]checkResult, 0, len(a.Checks))
	for _, check := range a.Checks {
		ctx, cancel := contextWithTimeout(cmd, pingTimeout)
		err := check.Ping(ctx)
		cancel()

		r := checkResult{Name: check.Name, OK: err == nil}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

func printStatus(cmd *cobra.Command, a *App, status *domain.IndexStatus, checks []checkResult) {
	if a.Settings != nil {
		printHeading(cmd, "Configuration")
		printField(cmd, "Embedding", fmt.Sprintf("%s (%s)", a.Settings.Embedding.Provider, a.Settings.Embedding.Model))
		printField(cmd, "LLM", fmt.Sprintf("%s (%s)", a.Settings.LLM.Provider, a.Settings.LLM.Model))
		printField(cmd, "Vector backend", a.Settings.VectorIndex.Backend)
		printField(cmd, "Conversations", a.Settings.Conversation.Backend)
		printField(cmd, "Source", a.Settings.Source.Dir)
		cmd.Println()
	}

	printHeading(cmd, "Vector index")
	if len(status.Collections) == 0 {
		printField(cmd, "Collections", "(none)")
	} else {
		printField(cmd, "Collections", fmt.Sprintf("%v", status.Collections))
	}
	if status.Active != nil {
		printField(cmd, "Collection", status.Active.Name)
		printField(cmd, "Dimension", status.Active.Dimension)
		printField(cmd, "Points", status.Active.Points)
	} else {
		printWarn(cmd, "  The configured collection does not exist yet. Run 'ragchat ingest'.")
	}
	cmd.Println()

	printHeading(cmd, fmt.Sprintf("Documents (%d)", len(status.Documents)))
	for _, name := range status.Documents {
		cmd.Printf("  %s\n", name)
	}

	if len(checks) > 0 {
		cmd.Println()
		printHeading(cmd, "Health")
		for _, c := range checks {
			if c.OK {
				cmd.Printf("  %s %s\n", successColor.Sprint("OK  "), c.Name)
			} else {
				cmd.Printf("  %s %s: %s\n", errorColor.Sprint("FAIL"), c.Name, c.Error)
			}
		}
	}
}

func printStatusJSON(cmd *cobra.Command, status *domain.IndexStatus, checks []checkResult) error {
	out := statusJSONOutput{
		Collections: status.Collections,
		Documents:   status.Documents,
		Checks:      checks,
	}
	if out.Collections == nil {
		out.Collections = []string{}
	}
	if out.Documents == nil {
		out.Documents = []string{}
	}
	if status.Active != nil {
		out.Active = &activeJSON{
			Name:      status.Active.Name,
			Dimension: status.Active.Dimension,
			Points:    status.Active.Points,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	collection := ""
	if a.Settings != nil {
		collection = a.Settings.VectorIndex.Collection
	}

	if !clearYes {
		cmd.Printf("Delete collection %q and all indexed chunks? [y/N]: ", collection)
		if !confirm(cmd.InOrStdin()) {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := a.Index.Clear(ctx); err != nil {
		return fmt.Errorf("clearing collection: %w", err)
	}
	printSuccess(cmd, "Deleted collection %q.", collection)
	return nil
}
