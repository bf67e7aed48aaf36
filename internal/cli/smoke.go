package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"LeadWatcher/internal/app"
	"LeadWatcher/internal/config"
	"LeadWatcher/internal/domain"
	"LeadWatcher/internal/logging"
)

// NewSmokeCommand appends a synthetic lead and pushes it through the full
// pipeline: sheet read, validation, dedupe, both dispatches, marker write.
func NewSmokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run a full-pipeline smoke test with a synthetic lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			application := app.New(cfg, logging.New(cfg.Logging.Level))
			ctx := cmd.Context()

			// Unique email per run so the duplicate detector stays out of
			// the way.
			email := fmt.Sprintf("smoke+%d@example.com", time.Now().Unix())
			row, err := application.Workbook().AppendLead(ctx, []string{
				"Smoke Test", email, "Leadwatch QA", "555-0000", "Smoke",
			})
			if err != nil {
				return err
			}
			cmd.Printf("appended synthetic lead on row %d (%s)\n", row, email)

			application.Router().HandleEdit(ctx, domain.EditEvent{
				Sheet:      cfg.Workbook.LeadsSheet,
				Row:        row,
				Col:        domain.ColSource,
				ObservedAt: time.Now(),
			})

			rows, err := application.Workbook().Snapshot(ctx)
			if err != nil {
				return err
			}
			cells := rows[row-1]
			if len(cells) >= domain.ColMarker && cells[domain.ColMarker-1] == domain.MarkerProcessed {
				cmd.Println("pipeline completed: row marked processed")
				return nil
			}
			return fmt.Errorf("row %d was not marked processed; check the error log sheet", row)
		},
	}
}

// NewNotifyCommand sends a canned lead straight to the notification channel,
// bypassing the sheet entirely.
func NewNotifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send a canned test notification to Slack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			application := app.New(cfg, logging.New(cfg.Logging.Level))

			lead := domain.Lead{
				Name:       "Notify Test",
				Email:      "notify-test@example.com",
				Company:    "Leadwatch QA",
				Phone:      "555-0000",
				Source:     "Smoke",
				ObservedAt: time.Now(),
			}
			if err := application.Notifier().Notify(cmd.Context(), lead); err != nil {
				return err
			}
			cmd.Println("notification delivered")
			return nil
		},
	}
}
