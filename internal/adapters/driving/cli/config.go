package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/postprocessors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in the config file.

Settings resolve from built-in defaults, then the config file, then
environment variables (a .env file in the working directory is loaded too).
Keys use dotted names such as llm.model or vector.qdrant.host.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a value from the config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every supported config key",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose providers, credentials and the document directory.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigWizard,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configWizardCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	s := svc.Resolve()

	printHeading(cmd, "[Embedding]")
	printField(cmd, "Provider", s.Embedding.Provider.Description())
	printField(cmd, "Model", s.Embedding.Model)
	printProviderAccess(cmd, s.Embedding.Provider, s.Embedding.BaseURL, s.Embedding.APIKey)
	printField(cmd, "Batch size", s.Embedding.BatchSize)
	cmd.Println()

	printHeading(cmd, "[LLM]")
	printField(cmd, "Provider", s.LLM.Provider.Description())
	printField(cmd, "Model", s.LLM.Model)
	printProviderAccess(cmd, s.LLM.Provider, s.LLM.BaseURL, s.LLM.APIKey)
	cmd.Println()

	printHeading(cmd, "[Chunking]")
	printField(cmd, "Strategy", s.Chunking.Strategy)
	printField(cmd, "Size", s.Chunking.Size)
	printField(cmd, "Overlap", s.Chunking.Overlap)
	cmd.Println()

	printHeading(cmd, "[Vector Index]")
	printField(cmd, "Backend", s.VectorIndex.Backend)
	printField(cmd, "Collection", s.VectorIndex.Collection)
	switch s.VectorIndex.Backend {
	case domain.VectorBackendQdrant:
		printField(cmd, "Qdrant", s.VectorIndex.Qdrant.Addr())
	case domain.VectorBackendRedis:
		printField(cmd, "Redis", s.VectorIndex.Redis.Addr)
	case domain.VectorBackendPgvector:
		printField(cmd, "Postgres", postgresTarget(s.Postgres))
	case domain.VectorBackendMemory:
	}
	printField(cmd, "Top K", s.Retrieval.TopK)
	cmd.Println()

	printHeading(cmd, "[Conversations]")
	printField(cmd, "Backend", s.Conversation.Backend)
	switch s.Conversation.Backend {
	case domain.ConversationBackendSQLite:
		printField(cmd, "Path", s.Conversation.SQLitePath)
	case domain.ConversationBackendPostgres:
		printField(cmd, "Postgres", postgresTarget(s.Postgres))
	case domain.ConversationBackendMemory:
	}
	printField(cmd, "History limit", s.Conversation.HistoryLimit)
	cmd.Println()

	printHeading(cmd, "[Source]")
	printField(cmd, "Directory", s.Source.Dir)
	printField(cmd, "Pattern", s.Source.Pattern)
	printField(cmd, "Include HTML", s.Source.IncludeHTML)
	cmd.Println()

	printHeading(cmd, "[Tracing]")
	printField(cmd, "Provider", s.Tracing.Provider)
	cmd.Println()

	if _, err := svc.Load(); err != nil {
		printWarn(cmd, "Warning: %v", err)
		cmd.Println("Run 'ragchat config wizard' or 'ragchat config set' to fix configuration issues.")
	} else {
		printSuccess(cmd, "Configuration is valid.")
	}
	return nil
}

func printProviderAccess(cmd *cobra.Command, p domain.AIProvider, baseURL, apiKey string) {
	if baseURL != "" || p == domain.AIProviderOllama {
		printField(cmd, "Base URL", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			printField(cmd, "API Key", maskAPIKey(apiKey))
		} else {
			printField(cmd, "API Key", "(not set)")
		}
	}
}

// postgresTarget renders connection details without the password.
func postgresTarget(p domain.PostgresSettings) string {
	return fmt.Sprintf("%s@%s:%d/%s", p.User, p.Host, p.Port, p.Database)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	val, ok := svc.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s is not set in %s", domain.ErrNotFound, args[0], svc.Path())
	}
	if isSecretKey(args[0]) {
		val = maskAPIKey(fmt.Sprint(val))
	}
	cmd.Println(val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return err
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	printSuccess(cmd, "Set %s = %s", key, shown)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	cmd.Println(svc.Path())
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}

	for _, key := range services.KnownKeys() {
		line := key
		if key == "chunking.strategy" {
			line += " " + muted("["+strings.Join(postprocessors.Strategies(), "|")+"]")
		}
		if _, ok := svc.Get(key); ok {
			line += " " + muted("(set)")
		}
		cmd.Println(line)
	}
	return nil
}

func runConfigWizard(cmd *cobra.Command, _ []string) error {
	svc, err := getSettingsService()
	if err != nil {
		return err
	}
	current := svc.Resolve()

	cmd.Println("ragchat Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	embeddingProviders := []domain.AIProvider{domain.AIProviderOpenAI, domain.AIProviderOllama, domain.AIProviderGemini}
	if err := wizardProvider(cmd, reader, svc, "Step 1: Embedding provider", "embedding", embeddingProviders); err != nil {
		return err
	}

	llmProviders := []domain.AIProvider{
		domain.AIProviderOpenAI, domain.AIProviderAnthropic, domain.AIProviderOllama, domain.AIProviderGemini,
	}
	if err := wizardProvider(cmd, reader, svc, "Step 2: LLM provider", "llm", llmProviders); err != nil {
		return err
	}

	cmd.Println("Step 3: Documents")
	cmd.Println("-----------------")
	cmd.Printf("Directory to ingest [%s]: ", current.Source.Dir)
	if dir := readLine(reader); dir != "" {
		if err := svc.Set("source.dir", dir); err != nil {
			return fmt.Errorf("failed to set source directory: %w", err)
		}
	}
	cmd.Println()

	if _, err := svc.Load(); err != nil {
		printWarn(cmd, "Configuration is incomplete: %v", err)
		return nil
	}
	printSuccess(cmd, "Configuration saved to %s", svc.Path())
	return nil
}

// wizardProvider asks for a provider, then its API key or base URL.
func wizardProvider(
	cmd *cobra.Command, reader *bufio.Reader, svc interface{ Set(key, value string) error },
	title, prefix string, providers []domain.AIProvider,
) error {
	cmd.Println(title)
	cmd.Println(strings.Repeat("-", len(title)))
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	if err := svc.Set(prefix+".provider", provider.String()); err != nil {
		return fmt.Errorf("failed to set %s provider: %w", prefix, err)
	}

	models := domain.DefaultEmbeddingModels()
	if prefix == "llm" {
		models = domain.DefaultLLMModels()
	}
	cmd.Printf("Model [%s]: ", models[provider])
	model := readLine(reader)
	if model == "" {
		model = models[provider]
	}
	if err := svc.Set(prefix+".model", model); err != nil {
		return fmt.Errorf("failed to set %s model: %w", prefix, err)
	}

	switch {
	case provider.RequiresAPIKey():
		cmd.Print("API key (leave empty to use the environment): ")
		if key := readPassword(cmd.InOrStdin(), reader); key != "" {
			if err := svc.Set(prefix+".api_key", key); err != nil {
				return fmt.Errorf("failed to set %s API key: %w", prefix, err)
			}
		}
	case provider == domain.AIProviderOllama:
		cmd.Print("Base URL [http://localhost:11434]: ")
		if url := readLine(reader); url != "" {
			if err := svc.Set(prefix+".base_url", url); err != nil {
				return fmt.Errorf("failed to set %s base URL: %w", prefix, err)
			}
		}
	}

	cmd.Printf("Set %s provider to: %s\n\n", prefix, provider.Description())
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

// confirm reads a yes/no answer; anything but y or yes is no.
func confirm(in io.Reader) bool {
	answer := strings.ToLower(readLine(bufio.NewReader(in)))
	return answer == "y" || answer == "yes"
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(commandContext(cmd), d)
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") ||
		strings.HasSuffix(key, "secret_key") ||
		strings.HasSuffix(key, "password")
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
