package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"LeadWatcher/internal/domain"
	"LeadWatcher/internal/ports"
)

// SnapshotFunc reads the current rows of the leads sheet.
type SnapshotFunc func(ctx context.Context) ([][]string, error)

// Watcher derives cell-level edit events from file-level change
// notifications: on every save of the workbook it re-reads the sheet, diffs
// it against the previous snapshot, and emits one event per changed cell in
// row-major order. The system's own marker writes surface as column 6-7
// events, which the router filters.
type Watcher struct {
	path     string
	sheet    string
	debounce time.Duration
	snapshot SnapshotFunc
	logger   *slog.Logger
	now      func() time.Time

	events chan domain.EditEvent
	fw     *fsnotify.Watcher
	stop   chan struct{}
}

var _ ports.EditSource = (*Watcher)(nil)

// NewWatcher wires the file to observe and the snapshot reader to diff with.
func NewWatcher(path, sheet string, debounce time.Duration, snapshot SnapshotFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		sheet:    sheet,
		debounce: debounce,
		snapshot: snapshot,
		logger:   logger,
		now:      time.Now,
		events:   make(chan domain.EditEvent, 64),
		stop:     make(chan struct{}),
	}
}

// Events delivers edit events until the watcher stops, then closes.
func (w *Watcher) Events() <-chan domain.EditEvent {
	return w.events
}

// Start primes the baseline snapshot and begins watching the workbook's
// directory. Watching the directory rather than the file survives editors
// that save via rename-and-replace.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fw = fw

	baseline, err := w.snapshot(ctx)
	if err != nil {
		w.logger.Warn("baseline snapshot unavailable, starting empty", "error", err)
		baseline = nil
	}

	go w.loop(ctx, baseline)
	return nil
}

// Stop tears down the file watcher; the event channel closes once the loop
// drains.
func (w *Watcher) Stop(context.Context) error {
	close(w.stop)
	if w.fw != nil {
		return w.fw.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, prev [][]string) {
	defer close(w.events)

	var settle *time.Timer
	var settleC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(w.debounce)
				settleC = settle.C
			} else {
				settle.Reset(w.debounce)
			}

		case <-settleC:
			settle = nil
			settleC = nil
			prev = w.emitDiffs(ctx, prev)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-w.stop:
			return
		}
	}
}

// emitDiffs re-reads the sheet and publishes one event per changed cell.
// Read failures keep the previous baseline so the change is re-detected on
// the next save.
func (w *Watcher) emitDiffs(ctx context.Context, prev [][]string) [][]string {
	next, err := w.snapshot(ctx)
	if err != nil {
		w.logger.Warn("snapshot after change failed", "error", err)
		return prev
	}

	at := w.now()
	for _, cell := range diffCells(prev, next) {
		event := domain.EditEvent{Sheet: w.sheet, Row: cell.row, Col: cell.col, ObservedAt: at}
		select {
		case w.events <- event:
		case <-ctx.Done():
			return next
		case <-w.stop:
			return next
		}
	}
	return next
}

type cellRef struct {
	row int
	col int
}

// diffCells compares two snapshots cell by cell and returns changed
// coordinates (1-based) in row-major order. Rows and trailing cells absent
// on one side compare as empty.
func diffCells(prev, next [][]string) []cellRef {
	rows := len(prev)
	if len(next) > rows {
		rows = len(next)
	}

	var changed []cellRef
	for r := 0; r < rows; r++ {
		cols := rowWidth(prev, r)
		if w := rowWidth(next, r); w > cols {
			cols = w
		}
		for c := 0; c < cols; c++ {
			if cellAt(prev, r, c) != cellAt(next, r, c) {
				changed = append(changed, cellRef{row: r + 1, col: c + 1})
			}
		}
	}
	return changed
}

func rowWidth(rows [][]string, r int) int {
	if r >= len(rows) {
		return 0
	}
	return len(rows[r])
}

func cellAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}
