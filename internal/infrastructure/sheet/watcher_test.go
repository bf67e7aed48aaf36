package sheet

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadWatcher/internal/domain"
)

func TestDiffCells(t *testing.T) {
	t.Parallel()

	prev := [][]string{
		{"Name", "Email"},
		{"Sarah", "sarah@techstart.com", "TechStart"},
	}
	next := [][]string{
		{"Name", "Email"},
		{"Sarah", "sarah@techstart.com", "TechStart", "555-0456"},
		{"John", "john@acmecorp.com"},
	}

	changed := diffCells(prev, next)
	assert.Equal(t, []cellRef{
		{row: 2, col: 4},
		{row: 3, col: 1},
		{row: 3, col: 2},
	}, changed, "diffs must come out in row-major order")
}

func TestDiffCellsNoChange(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"a", "b"}, {"c"}}
	assert.Empty(t, diffCells(rows, rows))
}

func TestDiffCellsShrunkenRow(t *testing.T) {
	t.Parallel()

	prev := [][]string{{"a", "b", "c"}}
	next := [][]string{{"a"}}
	changed := diffCells(prev, next)
	assert.Equal(t, []cellRef{{row: 1, col: 2}, {row: 1, col: 3}}, changed)
}

func TestDiffCellsFromEmptyBaseline(t *testing.T) {
	t.Parallel()

	next := [][]string{{"Name"}, {"Sarah"}}
	changed := diffCells(nil, next)
	assert.Equal(t, []cellRef{{row: 1, col: 1}, {row: 2, col: 1}}, changed)
}

// End-to-end through a real file system: saving the workbook must surface as
// cell-level events on the watched sheet.
func TestWatcherEmitsEditEvents(t *testing.T) {
	w := newTestWorkbook(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := NewWatcher(w.path, "Leads", 50*time.Millisecond, w.Snapshot, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, watcher.Start(ctx))
	defer func() { _ = watcher.Stop(context.Background()) }()

	_, err := w.AppendLead(ctx, []string{"Sarah Johnson", "sarah@techstart.com"})
	require.NoError(t, err)

	collected := map[domain.EditEvent]bool{}
	deadline := time.After(5 * time.Second)
	for len(collected) < 2 {
		select {
		case ev, ok := <-watcher.Events():
			require.True(t, ok, "event channel closed early")
			require.Equal(t, "Leads", ev.Sheet)
			collected[domain.EditEvent{Sheet: ev.Sheet, Row: ev.Row, Col: ev.Col}] = true
		case <-deadline:
			t.Fatalf("timed out waiting for edit events, got %v", collected)
		}
	}

	assert.True(t, collected[domain.EditEvent{Sheet: "Leads", Row: 2, Col: 1}])
	assert.True(t, collected[domain.EditEvent{Sheet: "Leads", Row: 2, Col: 2}])
}
