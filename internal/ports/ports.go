package ports

import (
	"context"
	"time"

	"LeadWatcher/internal/domain"
)

// LeadTable is the backing spreadsheet: the only data store and the only
// state store the pipeline has.
type LeadTable interface {
	// Snapshot returns every row of the leads sheet including the header,
	// cells as raw text. Index 0 is row 1.
	Snapshot(ctx context.Context) ([][]string, error)

	// MarkProcessed writes the marker and the processing timestamp on the
	// given 1-based row.
	MarkProcessed(ctx context.Context, row int, at time.Time) error
}

// TableAdmin covers the provisioning and reset operations that live outside
// the hot path.
type TableAdmin interface {
	// Setup creates the workbook and the leads sheet with its header row.
	Setup(ctx context.Context) error

	// ResetMarkers clears the marker and timestamp columns on every data
	// row and reports how many rows were touched.
	ResetMarkers(ctx context.Context) (int, error)

	// AppendLead appends a raw lead row after the last data row and returns
	// its 1-based index. Used by the smoke-test entry point.
	AppendLead(ctx context.Context, cells []string) (int, error)
}

// Notifier posts the team-facing message for a new lead.
type Notifier interface {
	Notify(ctx context.Context, lead domain.Lead) error
}

// Mailer sends the contact-facing acknowledgement.
type Mailer interface {
	SendAcknowledgement(ctx context.Context, lead domain.Lead) error
}

// ErrorRecorder appends failure records to the side log. It never fails
// outward; an implementation that cannot write logs the loss and moves on.
type ErrorRecorder interface {
	Record(ctx context.Context, entry domain.ErrorLogEntry)
}

// EditSource delivers cell-level edit events. The pipeline has no control
// over delivery; it only decides, per event, whether to act.
type EditSource interface {
	Events() <-chan domain.EditEvent
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
