package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"LeadWatcher/internal/app"
	"LeadWatcher/internal/config"
	"LeadWatcher/internal/logging"
)

// NewCheckCommand reports configuration validity without side effects.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report configuration validity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			application := app.New(cfg, logging.New("error"))

			report := func(label string, ok bool, hint string) {
				status := "ok"
				if !ok {
					status = "MISSING (" + hint + ")"
				}
				cmd.Printf("%-22s %s\n", label, status)
			}

			report("slack bot token", cfg.Notifications.Slack.BotToken != "", "set SLACK_BOT_TOKEN")
			report("slack channel id", cfg.Notifications.Slack.ChannelID != "", "set SLACK_CHANNEL_ID")
			report("smtp host", cfg.Mail.Host != "", "set SMTP_HOST")
			report("smtp username", cfg.Mail.Username != "", "set SMTP_USERNAME")
			report("mail reply-to", cfg.Mail.ReplyTo != "", "set MAIL_REPLY_TO")

			rows, err := application.Workbook().Snapshot(cmd.Context())
			if err != nil {
				cmd.Printf("%-22s UNREADABLE (%v)\n", "workbook", err)
				return fmt.Errorf("workbook %s is not readable", cfg.Workbook.Path)
			}
			cmd.Printf("%-22s ok (%d data row(s))\n", "workbook", len(rows)-1)
			return nil
		},
	}
}
