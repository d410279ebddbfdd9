package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	sessionsUser string

	historyUser    string
	historySession string
	historyLimit   int
	historyJSON    bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List a user's conversation sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the messages of a session",
	Long: `Prints the most recent messages of a session in the order they were
written.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	sessionsCmd.Flags().StringVarP(&sessionsUser, "user", "u", "", "conversation owner (default from config)")

	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "conversation owner (default from config)")
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "session ID (default from config)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", domain.DefaultHistoryLimit, "maximum number of messages")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output messages as JSON")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(historyCmd)
}

// messageJSON is the --json shape of one history message.
type messageJSON struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func runSessions(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	user := userOrDefault(a, sessionsUser)
	ids, err := a.Chat.Sessions(ctx, user)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(ids) == 0 {
		cmd.Printf("No sessions for user %s.\n", user)
		return nil
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	user := userOrDefault(a, historyUser)
	session := sessionOrDefault(a, historySession)

	msgs, err := a.Chat.History(ctx, user, session, historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if historyJSON {
		out := make([]messageJSON, len(msgs))
		for i, m := range msgs {
			out[i] = messageJSON{Role: m.Role.String(), Content: m.Content, CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339)}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal messages: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(msgs) == 0 {
		cmd.Printf("No messages in session %s.\n", session)
		return nil
	}
	for _, m := range msgs {
		label := "You"
		if m.Role == domain.RoleAssistant {
			label = "Assistant"
		}
		cmd.Printf("%s %s\n%s\n\n",
			labelColor.Sprint(label+":"),
			muted(m.CreatedAt.Local().Format("2006-01-02 15:04")),
			m.Content)
	}
	return nil
}
