package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"LeadWatcher/internal/config"
	"LeadWatcher/internal/domain"
	"LeadWatcher/internal/ports"
)

var leadsHeader = []string{"Name", "Email", "Company", "Phone", "Source", "Status", "Processed At"}

var errorLogHeader = []string{"Timestamp", "Context", "Error message", "Detail"}

// Workbook adapts an xlsx file into the pipeline's table, admin, and error
// log ports. Every operation opens the file fresh so edits saved by humans
// are always visible; a mutex serializes access within this process.
type Workbook struct {
	path       string
	leadsSheet string
	errorSheet string
	logger     *slog.Logger
	mu         sync.Mutex
}

var (
	_ ports.LeadTable     = (*Workbook)(nil)
	_ ports.TableAdmin    = (*Workbook)(nil)
	_ ports.ErrorRecorder = (*Workbook)(nil)
)

// NewWorkbook wires the workbook location and sheet names from configuration.
func NewWorkbook(cfg config.WorkbookConfig, logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{
		path:       cfg.Path,
		leadsSheet: cfg.LeadsSheet,
		errorSheet: cfg.ErrorSheet,
		logger:     logger,
	}
}

// LeadsSheet exposes the configured sheet name for event filtering.
func (w *Workbook) LeadsSheet() string {
	return w.leadsSheet
}

// Snapshot returns every row of the leads sheet, header included. Trailing
// empty cells are absent, so callers must treat short rows as padded.
func (w *Workbook) Snapshot(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(w.leadsSheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", w.leadsSheet, err)
	}
	return rows, nil
}

// MarkProcessed writes the marker and timestamp cells of one row and saves.
func (w *Workbook) MarkProcessed(ctx context.Context, row int, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	if err := w.setCell(f, w.leadsSheet, domain.ColMarker, row, domain.MarkerProcessed); err != nil {
		return err
	}
	if err := w.setCell(f, w.leadsSheet, domain.ColTimestamp, row, at.Format(time.RFC3339)); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Setup provisions the workbook: creates the file if missing and ensures the
// leads sheet exists with its header row. Existing data is left untouched.
func (w *Workbook) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var f *excelize.File
	if _, statErr := os.Stat(w.path); errors.Is(statErr, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), w.leadsSheet); err != nil {
			return fmt.Errorf("name leads sheet: %w", err)
		}
	} else {
		var err error
		f, err = excelize.OpenFile(w.path)
		if err != nil {
			return fmt.Errorf("open workbook %s: %w", w.path, err)
		}
		idx, err := f.GetSheetIndex(w.leadsSheet)
		if err != nil {
			return fmt.Errorf("look up sheet %s: %w", w.leadsSheet, err)
		}
		if idx < 0 {
			if _, err := f.NewSheet(w.leadsSheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", w.leadsSheet, err)
			}
		}
	}
	defer func() { _ = f.Close() }()

	for col, title := range leadsHeader {
		if err := w.setCell(f, w.leadsSheet, col+1, domain.HeaderRow, title); err != nil {
			return err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Info("workbook provisioned", "path", w.path, "sheet", w.leadsSheet)
	return nil
}

// ResetMarkers clears columns 6 and 7 on every data row so the whole sheet
// becomes eligible for processing again.
func (w *Workbook) ResetMarkers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return 0, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(w.leadsSheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", w.leadsSheet, err)
	}

	cleared := 0
	for i := range rows {
		row := i + 1
		if row == domain.HeaderRow {
			continue
		}
		if len(rows[i]) >= domain.ColMarker && rows[i][domain.ColMarker-1] != "" {
			cleared++
		}
		if err := w.setCell(f, w.leadsSheet, domain.ColMarker, row, ""); err != nil {
			return 0, err
		}
		if err := w.setCell(f, w.leadsSheet, domain.ColTimestamp, row, ""); err != nil {
			return 0, err
		}
	}

	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}
	return cleared, nil
}

// AppendLead writes a raw row after the last occupied row and returns its
// 1-based index.
func (w *Workbook) AppendLead(ctx context.Context, cells []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return 0, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(w.leadsSheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", w.leadsSheet, err)
	}

	row := len(rows) + 1
	for col, value := range cells {
		if err := w.setCell(f, w.leadsSheet, col+1, row, value); err != nil {
			return 0, err
		}
	}
	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}
	return row, nil
}

// Record appends one failure row to the error log sheet, creating the sheet
// lazily on first use. It never fails outward: a log write that cannot
// happen is itself only logged and dropped.
func (w *Workbook) Record(ctx context.Context, entry domain.ErrorLogEntry) {
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.appendError(entry); err != nil {
		w.logger.Error("error log write failed", "error", err, "context", entry.Context)
	}
}

func (w *Workbook) appendError(entry domain.ErrorLogEntry) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	idx, err := f.GetSheetIndex(w.errorSheet)
	if err != nil {
		return fmt.Errorf("look up sheet %s: %w", w.errorSheet, err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(w.errorSheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", w.errorSheet, err)
		}
		for col, title := range errorLogHeader {
			if err := w.setCell(f, w.errorSheet, col+1, domain.HeaderRow, title); err != nil {
				return err
			}
		}
	}

	rows, err := f.GetRows(w.errorSheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", w.errorSheet, err)
	}

	row := len(rows) + 1
	detail := entry.Detail
	if detail == "" {
		detail = "no detail"
	}
	values := []string{entry.Timestamp.Format(time.RFC3339), entry.Context, entry.Message, detail}
	for col, value := range values {
		if err := w.setCell(f, w.errorSheet, col+1, row, value); err != nil {
			return err
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (w *Workbook) setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell coordinates (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
	}
	return nil
}
