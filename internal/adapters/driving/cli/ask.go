package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	askUser      string
	askSession   string
	askStateless bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about the indexed documents",
	Long: `Retrieves the chunks most similar to the question, prompts the language
model with them and prints the answer.

The turn is stored in the user's session and earlier turns of that session are
sent as history. Use --stateless to answer without reading or writing history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "conversation owner (default from config)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID (default from config)")
	askCmd.Flags().BoolVar(&askStateless, "stateless", false, "answer without conversation history")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("question must not be empty")
	}

	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	user := userOrDefault(a, askUser)
	session := sessionOrDefault(a, askSession)

	var answer string
	if askStateless {
		answer, err = a.Answer.Answer(ctx, domain.AnswerRequest{
			UserID:    user,
			SessionID: session,
			Query:     query,
		})
	} else {
		answer, err = a.Chat.Send(ctx, user, session, query)
	}
	if err != nil {
		return fmt.Errorf("answering failed: %w", err)
	}

	cmd.Println(answer)
	return nil
}
