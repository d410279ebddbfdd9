package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
)

var (
	tuiUser    string
	tuiSession string

	// runTUIApp is replaced in tests.
	runTUIApp = func(a *tui.App) error { return a.Run() }
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the full-screen chat interface.

Controls:
  Enter        - Send question
  PgUp/PgDn    - Scroll transcript
  Ctrl+S       - Switch session
  Ctrl+N       - New session
  F1           - Toggle help
  Ctrl+C       - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiUser, "user", "u", "", "conversation owner (default from config)")
	tuiCmd.Flags().StringVarP(&tuiSession, "session", "s", "", "session to open (default from config)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	ports := tui.NewPorts(a.Chat, userOrDefault(a, tuiUser), sessionOrDefault(a, tuiSession))

	ui, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	ui.WithContext(ctx)

	if err := runTUIApp(ui); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
