package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Colours are disabled automatically when stdout is not a terminal.
var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.FgCyan, color.Bold)
	mutedColor   = color.New(color.Faint)
)

func printSuccess(cmd *cobra.Command, format string, args ...any) {
	cmd.Println(successColor.Sprintf(format, args...))
}

func printWarn(cmd *cobra.Command, format string, args ...any) {
	cmd.Println(warnColor.Sprintf(format, args...))
}

func printError(cmd *cobra.Command, err error) {
	cmd.PrintErrln(errorColor.Sprint("Error: ") + err.Error())
}

// printField prints an indented "Label: value" line.
func printField(cmd *cobra.Command, label string, value any) {
	cmd.Printf("  %s %v\n", labelColor.Sprint(label+":"), value)
}

func printHeading(cmd *cobra.Command, title string) {
	cmd.Println(labelColor.Sprint(title))
}

func muted(s string) string {
	return mutedColor.Sprint(s)
}
