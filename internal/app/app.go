package app

import (
	"context"
	"log/slog"
	"time"

	"LeadWatcher/internal/config"
	"LeadWatcher/internal/infrastructure/mail"
	"LeadWatcher/internal/infrastructure/sheet"
	"LeadWatcher/internal/infrastructure/slack"
	"LeadWatcher/internal/logging"
	"LeadWatcher/internal/usecase"
)

// Application wires configs to the edit pipeline and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	workbook *sheet.Workbook
	notifier *slack.Notifier
	router   *usecase.Router
	watcher  *sheet.Watcher
}

// New builds a fully wired application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	workbook := sheet.NewWorkbook(cfg.Workbook, baseLogger.With("component", "workbook"))
	notifier := slack.NewNotifier(
		cfg.Notifications.Slack.BotToken,
		cfg.Notifications.Slack.ChannelID,
		cfg.Workbook.URL,
		baseLogger.With("component", "slack"),
	)
	mailer := mail.NewMailer(cfg.Mail, baseLogger.With("component", "mail"))

	router := usecase.NewRouter(usecase.RouterDeps{
		Table:      workbook,
		Notifier:   notifier,
		Mailer:     mailer,
		Recorder:   workbook,
		Logger:     baseLogger.With("component", "router"),
		LeadsSheet: cfg.Workbook.LeadsSheet,
		FailClosed: cfg.Dedupe.FailClosed,
	})

	watcher := sheet.NewWatcher(
		cfg.Workbook.Path,
		cfg.Workbook.LeadsSheet,
		time.Duration(cfg.Workbook.DebounceMs)*time.Millisecond,
		workbook.Snapshot,
		baseLogger.With("component", "watcher"),
	)

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		workbook: workbook,
		notifier: notifier,
		router:   router,
		watcher:  watcher,
	}
}

// Run watches the workbook and routes edit events until the context is
// canceled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop(context.Background()) }()

	a.logger.Info("watching for lead edits",
		"workbook", a.cfg.Workbook.Path,
		"sheet", a.cfg.Workbook.LeadsSheet)

	for event := range a.watcher.Events() {
		a.router.HandleEdit(ctx, event)
	}
	return ctx.Err()
}

// Workbook exposes the table adapter for setup, reset, and smoke entry
// points.
func (a *Application) Workbook() *sheet.Workbook {
	return a.workbook
}

// Notifier exposes the Slack dispatcher for the notification smoke test.
func (a *Application) Notifier() *slack.Notifier {
	return a.notifier
}

// Router exposes the pipeline for direct event injection.
func (a *Application) Router() *usecase.Router {
	return a.router
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}
