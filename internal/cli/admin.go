package cli

import (
	"github.com/spf13/cobra"

	"LeadWatcher/internal/app"
	"LeadWatcher/internal/config"
	"LeadWatcher/internal/logging"
)

// NewInitCommand provisions the workbook with its leads sheet and header.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the workbook and leads sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			application := app.New(cfg, logging.New(cfg.Logging.Level))

			if err := application.Workbook().Setup(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("workbook ready at %s (sheet %q)\n", cfg.Workbook.Path, cfg.Workbook.LeadsSheet)
			return nil
		},
	}
}

// NewResetCommand clears every processed marker and timestamp, making the
// whole sheet eligible for processing again.
func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear processed markers on all rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			application := app.New(cfg, logging.New(cfg.Logging.Level))

			cleared, err := application.Workbook().ResetMarkers(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("cleared markers on %d row(s)\n", cleared)
			return nil
		},
	}
}
