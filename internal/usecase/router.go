package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"LeadWatcher/internal/domain"
	"LeadWatcher/internal/ports"
)

// RouterDeps wires all driven adapters into the edit-handling pipeline.
type RouterDeps struct {
	Table      ports.LeadTable
	Notifier   ports.Notifier
	Mailer     ports.Mailer
	Recorder   ports.ErrorRecorder
	Logger     *slog.Logger
	LeadsSheet string
	// FailClosed flips the duplicate detector from availability-first
	// (a failed scan treats the lead as new) to consistency-first.
	FailClosed bool
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// Router is the single entry point for edit events. It filters irrelevant
// edits, gates each complete lead through duplicate and marker checks, runs
// the dual dispatch, and writes the processed marker. Nothing escapes it:
// errors and panics alike end up in the error log.
type Router struct {
	table      ports.LeadTable
	notifier   ports.Notifier
	mailer     ports.Mailer
	recorder   ports.ErrorRecorder
	logger     *slog.Logger
	leadsSheet string
	failClosed bool
	now        func() time.Time

	// inFlight serializes handling within this process only; it is not a
	// cross-process lock, so two hosts completing duplicate rows at the
	// same moment can still both notify.
	inFlight atomic.Bool
}

// NewRouter constructs the orchestration component.
func NewRouter(deps RouterDeps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Router{
		table:      deps.Table,
		notifier:   deps.Notifier,
		mailer:     deps.Mailer,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		leadsSheet: deps.LeadsSheet,
		failClosed: deps.FailClosed,
		now:        deps.Now,
	}
}

// HandleEdit processes one edit event to completion. Filtered edits return
// without side effects beyond logging; an edit arriving while another is in
// flight is dropped, not queued.
func (r *Router) HandleEdit(ctx context.Context, ev domain.EditEvent) {
	if r.inFlight.Load() {
		r.logger.Debug("edit dropped, handler busy", "row", ev.Row, "col", ev.Col)
		return
	}
	if ev.Malformed() {
		return
	}
	if ev.Sheet != r.leadsSheet {
		return
	}
	if ev.Row == domain.HeaderRow {
		return
	}
	if ev.Col >= domain.ColMarker {
		// Self-generated write; reacting would loop forever.
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.record(ctx, "onEdit", fmt.Sprintf("panic: %v", p), string(debug.Stack()))
		}
	}()

	if err := r.process(ctx, ev); err != nil {
		r.record(ctx, "onEdit", err.Error(), fmt.Sprintf("row=%d col=%d", ev.Row, ev.Col))
	}
}

func (r *Router) process(ctx context.Context, ev domain.EditEvent) error {
	snapshot, err := r.table.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read leads sheet: %w", err)
	}
	if ev.Row > len(snapshot) {
		return nil
	}
	cells := snapshot[ev.Row-1]

	if !domain.IsRowComplete(cells) {
		r.logger.Debug("row incomplete, waiting for more fields", "row", ev.Row)
		return nil
	}

	observedAt := ev.ObservedAt
	if observedAt.IsZero() {
		observedAt = r.now()
	}
	lead := domain.LeadFromRow(cells, ev.Row, observedAt)
	if !lead.Valid() {
		r.logger.Debug("row complete but invalid, skipping", "row", ev.Row, "email", lead.Email)
		return nil
	}

	if markerOf(cells) == domain.MarkerProcessed {
		return nil
	}

	dup, err := r.alreadyProcessed(ctx, lead)
	if err != nil {
		return err
	}
	if dup {
		r.logger.Info("duplicate lead skipped", "row", ev.Row, "email", lead.EmailKey())
		return nil
	}

	if !r.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer r.inFlight.Store(false)

	// Both channels are attempted regardless of the other's outcome, and
	// the marker is written only after both attempts have resolved.
	if err := r.notifier.Notify(ctx, lead); err != nil {
		r.record(ctx, "notify", err.Error(), "email="+lead.EmailKey())
	}
	if err := r.mailer.SendAcknowledgement(ctx, lead); err != nil {
		r.record(ctx, "acknowledge", err.Error(), "email="+lead.EmailKey())
	}

	if err := r.table.MarkProcessed(ctx, ev.Row, r.now()); err != nil {
		return fmt.Errorf("mark row %d processed: %w", ev.Row, err)
	}

	r.logger.Info("lead processed", "row", ev.Row, "email", lead.EmailKey())
	return nil
}

// alreadyProcessed scans every other row for a processed entry sharing the
// candidate's case-insensitive email. The scan re-reads the table so it sees
// markers written since the triggering snapshot; a linear pass per edit is a
// documented ceiling, fine at hundreds of rows.
func (r *Router) alreadyProcessed(ctx context.Context, lead domain.Lead) (bool, error) {
	snapshot, err := r.table.Snapshot(ctx)
	if err != nil {
		if r.failClosed {
			return false, fmt.Errorf("duplicate scan: %w", err)
		}
		r.logger.Warn("duplicate scan failed, treating lead as new", "error", err)
		return false, nil
	}

	key := lead.EmailKey()
	for i, cells := range snapshot {
		row := i + 1
		if row == domain.HeaderRow || row == lead.Row {
			continue
		}
		if len(cells) < domain.ColEmail {
			continue
		}
		if domain.EmailKey(cells[domain.ColEmail-1]) != key {
			continue
		}
		if markerOf(cells) == domain.MarkerProcessed {
			return true, nil
		}
	}
	return false, nil
}

func (r *Router) record(ctx context.Context, label, message, detail string) {
	r.logger.Error("pipeline failure", "context", label, "error", message)
	if r.recorder == nil {
		return
	}
	r.recorder.Record(ctx, domain.ErrorLogEntry{
		Timestamp: r.now(),
		Context:   label,
		Message:   message,
		Detail:    detail,
	})
}

func markerOf(cells []string) string {
	if len(cells) < domain.ColMarker {
		return ""
	}
	return cells[domain.ColMarker-1]
}
