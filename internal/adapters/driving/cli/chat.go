package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	chatUser    string
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat in the terminal",
	Long: `Reads questions line by line and answers each one in the same session.
Type "exit" or "quit", or press ctrl+d, to leave.

Input may also be piped, one question per line.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "conversation owner (default from config)")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session ID (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := getApp(ctx)
	if err != nil {
		return err
	}

	user := userOrDefault(a, chatUser)
	session := sessionOrDefault(a, chatSession)

	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	if interactive {
		printHeading(cmd, "ragchat")
		cmd.Println(muted("user " + user + ", session " + session + ". Type exit to leave."))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if interactive {
			cmd.Print(labelColor.Sprint("You: "))
		}
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if isExit(query) {
			break
		}

		answer, err := a.Chat.Send(ctx, user, session, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printError(cmd, err)
			continue
		}
		cmd.Println(labelColor.Sprint("Assistant: ") + answer)
	}

	return scanner.Err()
}

func isExit(s string) bool {
	switch strings.ToLower(s) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
