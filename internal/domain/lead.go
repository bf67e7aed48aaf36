package domain

import (
	"regexp"
	"strings"
	"time"
)

// Column layout of the Leads sheet (1-based, as the workbook sees it).
// Columns 1-5 are filled by humans; 6 and 7 belong to the system.
const (
	ColName = iota + 1
	ColEmail
	ColCompany
	ColPhone
	ColSource
	ColMarker
	ColTimestamp
)

const (
	// HeaderRow is never treated as data.
	HeaderRow = 1

	// MarkerProcessed is the only non-empty marker value; the transition
	// "" -> MarkerProcessed is one-way under normal operation.
	MarkerProcessed = "PROCESSED"
)

// RequiredColumns is how many leading cells must be non-empty before a row
// counts as a complete lead.
const RequiredColumns = 5

// Deliberately permissive: something@something.something, no whitespace or
// second @ inside a part. Not an RFC check.
var emailExpr = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Lead is reconstructed from row cells on every edit; it is never persisted
// as an object.
type Lead struct {
	Name       string
	Email      string
	Company    string
	Phone      string
	Source     string
	Row        int
	ObservedAt time.Time
}

// LeadFromRow materializes a Lead from the first five cells of a row.
// Short rows are padded; all cells are trimmed.
func LeadFromRow(cells []string, row int, observedAt time.Time) Lead {
	get := func(col int) string {
		if col-1 < len(cells) {
			return strings.TrimSpace(cells[col-1])
		}
		return ""
	}
	return Lead{
		Name:       get(ColName),
		Email:      get(ColEmail),
		Company:    get(ColCompany),
		Phone:      get(ColPhone),
		Source:     get(ColSource),
		Row:        row,
		ObservedAt: observedAt,
	}
}

// IsRowComplete reports whether all five required cells are non-empty after
// trimming. Pure; the router calls it before bothering to extract a Lead.
func IsRowComplete(cells []string) bool {
	if len(cells) < RequiredColumns {
		return false
	}
	for col := ColName; col <= ColSource; col++ {
		if strings.TrimSpace(cells[col-1]) == "" {
			return false
		}
	}
	return true
}

// Valid reports completeness plus a minimal syntactic email check.
func (l Lead) Valid() bool {
	if l.Name == "" || l.Email == "" || l.Company == "" || l.Phone == "" || l.Source == "" {
		return false
	}
	return emailExpr.MatchString(l.Email)
}

// EmailKey is the lead's identity for duplicate detection.
func (l Lead) EmailKey() string {
	return EmailKey(l.Email)
}

// EmailKey folds an address for case-insensitive comparison.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EditEvent describes one changed cell on one sheet. Delivered by the
// workbook watcher; the router decides per event whether to act.
type EditEvent struct {
	Sheet      string
	Row        int
	Col        int
	ObservedAt time.Time
}

// Malformed reports whether the event is missing its range or source and
// must be dropped before any other gating.
func (e EditEvent) Malformed() bool {
	return e.Sheet == "" || e.Row <= 0 || e.Col <= 0
}

// ErrorLogEntry is one appended row on the lazily created side sheet.
type ErrorLogEntry struct {
	Timestamp time.Time
	Context   string
	Message   string
	Detail    string
}
