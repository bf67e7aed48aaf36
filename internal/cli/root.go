package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the leadwatch CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadwatch",
		Short: "Watches a leads workbook and notifies the team about completed leads",
		Long: "leadwatch observes an xlsx leads sheet for cell edits. Once a row's five\n" +
			"required fields are complete and valid it notifies the team channel and\n" +
			"sends the contact an acknowledgement, exactly once per unique email.",
		SilenceUsage: true,
	}

	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewResetCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewSmokeCommand())
	cmd.AddCommand(NewNotifyCommand())

	return cmd
}
