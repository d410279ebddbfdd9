package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	ingestWatch    bool
	ingestRebuild  bool
	ingestDebounce time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk, embed and index the source documents",
	Long: `Reads every document under the source directory, splits it into
overlapping chunks, embeds the chunks and upserts them into the vector index.

Ingestion is additive: running it twice indexes the documents twice. Use
--rebuild to clear the collection first.

With --watch the command keeps running and rebuilds the collection whenever
a matching file changes.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "rebuild on source changes until interrupted")
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "clear the collection before ingesting")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", 2*time.Second, "quiet period before a watch rebuild")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	var result *domain.IngestResult
	if ingestRebuild {
		result, err = a.Index.Rebuild(ctx)
	} else {
		result, err = a.Ingest.Ingest(ctx)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printIngestResult(cmd, a, result)

	if !ingestWatch {
		return nil
	}
	return watchAndRebuild(ctx, cmd, a)
}

func printIngestResult(cmd *cobra.Command, a *App, result *domain.IngestResult) {
	if result.Documents == 0 {
		dir := ""
		if a.Settings != nil {
			dir = a.Settings.Source.Dir
		}
		printWarn(cmd, "No documents found in %s; nothing was indexed.", dir)
		return
	}
	printSuccess(cmd, "Indexed %d chunks from %d documents into %q (dimension %d).",
		result.Chunks, result.Documents, result.Collection, result.Dimension)
}

// watchAndRebuild rebuilds the collection after each burst of changes. A
// failed rebuild is reported and watching continues.
func watchAndRebuild(ctx context.Context, cmd *cobra.Command, a *App) error {
	if a.Watcher == nil {
		return errors.New("the configured source cannot be watched")
	}

	changes, err := a.Watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching source: %w", err)
	}
	cmd.Println(muted("Watching for changes (ctrl+c to stop)..."))

	pending := make(map[string]struct{})
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case name, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Changed: %s", name)
			pending[name] = struct{}{}
			fire = time.After(ingestDebounce)

		case <-fire:
			fire = nil
			cmd.Printf("Changed: %s\n", joinNames(pending))
			clear(pending)

			result, err := a.Index.Rebuild(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				printError(cmd, fmt.Errorf("rebuild failed: %w", err))
				continue
			}
			printIngestResult(cmd, a, result)
		}
	}
}

func joinNames(set map[string]struct{}) string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
