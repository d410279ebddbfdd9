// Package cli provides the cobra command tree for ragchat.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	// version is set by SetVersion from build metadata.
	version = "dev"

	configDir string
	verbose   bool

	// settingsService and app are built on first use so that commands which
	// only touch configuration never dial a provider or database.
	settingsService driving.SettingsService
	app             *App

	// newApp is replaced in tests.
	newApp = NewApp
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat indexes a directory of text documents as vector embeddings and
answers questions about them with a language model, keeping per-user,
per-session conversation history.

Typical flow:
  ragchat ingest                 # chunk, embed and index DATA_DIR
  ragchat ask "What is ...?"     # one question, stored in the default session
  ragchat chat                   # interactive conversation
  ragchat tui                    # full-screen chat`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.ragchat)")
}

// SetVersion sets the version reported by `ragchat version` and --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the root command. It cancels in-flight work on SIGINT or
// SIGTERM and releases every client before returning.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeApp()

	return rootCmd.ExecuteContext(ctx)
}

// getSettingsService opens the config file on first use.
func getSettingsService() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("%w: opening config: %v", domain.ErrConfiguration, err)
	}
	settingsService = services.NewSettingsService(store, os.LookupEnv)
	return settingsService, nil
}

// getApp loads validated settings and assembles the services on first use.
func getApp(ctx context.Context) (*App, error) {
	if app != nil {
		return app, nil
	}

	svc, err := getSettingsService()
	if err != nil {
		return nil, err
	}
	settings, err := svc.Load()
	if err != nil {
		return nil, err
	}

	a, err := newApp(ctx, settings)
	if err != nil {
		return nil, err
	}
	app = a
	return app, nil
}

func closeApp() {
	if app == nil {
		return
	}
	if err := app.Close(); err != nil {
		logger.Warn("closing clients: %v", err)
	}
	app = nil
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// userOrDefault resolves the conversation owner from a flag value.
func userOrDefault(a *App, user string) string {
	if user != "" {
		return user
	}
	if a.Settings != nil && a.Settings.DefaultUser != "" {
		return a.Settings.DefaultUser
	}
	return domain.DefaultUserID
}

// sessionOrDefault resolves the session from a flag value.
func sessionOrDefault(a *App, session string) string {
	if session != "" {
		return session
	}
	if a.Settings != nil && a.Settings.DefaultSession != "" {
		return a.Settings.DefaultSession
	}
	return domain.DefaultSessionID
}
