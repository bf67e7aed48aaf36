package domain

import (
	"math/rand"
	"testing"
	"time"
)

func TestIsRowComplete(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"all filled", []string{"John Smith", "john@acmecorp.com", "Acme Corp", "555-0123", "Website"}, true},
		{"trailing system columns ignored", []string{"John", "john@a.com", "Acme", "555", "Web", "PROCESSED", "2026-01-01"}, true},
		{"missing source", []string{"John", "john@a.com", "Acme", "555", ""}, false},
		{"whitespace only counts as empty", []string{"John", "john@a.com", "   ", "555", "Web"}, false},
		{"short row", []string{"John", "john@a.com"}, false},
		{"empty row", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRowComplete(tc.cells); got != tc.want {
				t.Fatalf("IsRowComplete(%v) = %v, want %v", tc.cells, got, tc.want)
			}
		})
	}
}

// Randomized cross-check: a row is complete iff none of the five required
// cells drew blank or whitespace-only content.
func TestIsRowCompleteRandomized(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	fill := []string{"", " ", "\t", "value", "x y", "  padded  "}

	for i := 0; i < 500; i++ {
		cells := make([]string, RequiredColumns)
		allFilled := true
		for c := range cells {
			cells[c] = fill[rng.Intn(len(fill))]
			if len(cells[c]) == 0 || cells[c] == " " || cells[c] == "\t" {
				allFilled = false
			}
		}
		if got := IsRowComplete(cells); got != allFilled {
			t.Fatalf("IsRowComplete(%q) = %v, want %v", cells, got, allFilled)
		}
	}
}

func TestLeadValid(t *testing.T) {
	t.Parallel()

	base := Lead{
		Name:    "John Smith",
		Email:   "john@acmecorp.com",
		Company: "Acme Corp",
		Phone:   "555-0123",
		Source:  "Website",
	}

	if !base.Valid() {
		t.Fatal("expected base lead to be valid")
	}

	noSuffix := base
	noSuffix.Email = "john@acmecorp"
	if noSuffix.Valid() {
		t.Fatal("email without domain suffix must be rejected")
	}

	noAt := base
	noAt.Email = "john.acmecorp.com"
	if noAt.Valid() {
		t.Fatal("email without @ must be rejected")
	}

	spaced := base
	spaced.Email = "jo hn@acmecorp.com"
	if spaced.Valid() {
		t.Fatal("email with whitespace must be rejected")
	}

	for _, mutate := range []func(*Lead){
		func(l *Lead) { l.Name = "" },
		func(l *Lead) { l.Email = "" },
		func(l *Lead) { l.Company = "" },
		func(l *Lead) { l.Phone = "" },
		func(l *Lead) { l.Source = "" },
	} {
		l := base
		mutate(&l)
		if l.Valid() {
			t.Fatalf("lead with empty required field must be invalid: %+v", l)
		}
	}
}

func TestLeadFromRow(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	lead := LeadFromRow([]string{" Sarah Johnson ", "sarah@techstart.com", "TechStart Inc", "555-0456", "Referral"}, 4, at)

	if lead.Name != "Sarah Johnson" {
		t.Fatalf("expected trimmed name, got %q", lead.Name)
	}
	if lead.Row != 4 || !lead.ObservedAt.Equal(at) {
		t.Fatalf("row/observedAt not carried: %+v", lead)
	}

	short := LeadFromRow([]string{"only name"}, 2, at)
	if short.Email != "" || short.Source != "" {
		t.Fatalf("short row must pad missing cells: %+v", short)
	}
}

func TestEmailKey(t *testing.T) {
	t.Parallel()

	if EmailKey(" John@Acme.COM ") != "john@acme.com" {
		t.Fatal("EmailKey must trim and fold case")
	}
	a := Lead{Email: "SARAH@techstart.com"}
	b := Lead{Email: "sarah@TECHSTART.com"}
	if a.EmailKey() != b.EmailKey() {
		t.Fatal("identity comparison must be case-insensitive")
	}
}

func TestEditEventMalformed(t *testing.T) {
	t.Parallel()

	ok := EditEvent{Sheet: "Leads", Row: 2, Col: 1}
	if ok.Malformed() {
		t.Fatal("well-formed event flagged malformed")
	}
	for _, ev := range []EditEvent{
		{Row: 2, Col: 1},
		{Sheet: "Leads", Col: 1},
		{Sheet: "Leads", Row: 2},
		{Sheet: "Leads", Row: 0, Col: 0},
	} {
		if !ev.Malformed() {
			t.Fatalf("expected malformed: %+v", ev)
		}
	}
}
