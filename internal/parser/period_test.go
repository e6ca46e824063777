package parser

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

func TestParseDate_TextLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"2024-01-05", "Jan 2024"},
		{"2024-02-10 13:45:00", "Feb 2024"},
		{"3/7/2024 9:12:00", "Mar 2024"},
		{"12/31/2023", "Dec 2023"},
		{"2024/11/02", "Nov 2024"},
		{"5 Jun 2024", "Jun 2024"},
		{"Jul 4, 2024", "Jul 2024"},
		{"2024-08-01T10:00:00Z", "Aug 2024"},
	}

	for _, tt := range tests {
		got := PeriodOfCell(model.TextCell(tt.raw))
		if got.Label != tt.want {
			t.Fatalf("PeriodOfCell(%q)=%q, want %q", tt.raw, got.Label, tt.want)
		}
	}
}

func TestParseDate_SerialAndFailures(t *testing.T) {
	t.Parallel()

	// 45296 = 2024-01-05
	got, ok := ParseDate(model.NumberCell(decimal.NewFromInt(45296)))
	if !ok || got.Year() != 2024 || got.Month() != time.January || got.Day() != 5 {
		t.Fatalf("serial date: %v %v", got, ok)
	}

	for _, c := range []model.Cell{
		model.MissingCell(),
		model.TextCell("not a date"),
		model.TextCell("2024-13-45"),
		model.NumberCell(decimal.NewFromInt(-3)),
	} {
		if _, ok := ParseDate(c); ok {
			t.Fatalf("ParseDate(%v) should fail", c)
		}
		if p := PeriodOfCell(c); p.Valid() {
			t.Fatalf("PeriodOfCell(%v) should be missing, got %v", c, p)
		}
	}
}

func TestSortPeriodLabels_Chronological(t *testing.T) {
	t.Parallel()

	got := SortPeriodLabels([]string{"Jan 2025", "Feb 2024", "bogus", "Jan 2024", "Dec 2024"})
	want := []string{"Jan 2024", "Feb 2024", "Dec 2024", "Jan 2025", "bogus"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParsePeriodLabel(t *testing.T) {
	t.Parallel()

	p, ok := ParsePeriodLabel("Sep 2023")
	if !ok || p.Year != 2023 || p.Month != 9 || p.Label != "Sep 2023" {
		t.Fatalf("unexpected: %+v %v", p, ok)
	}
	if _, ok := ParsePeriodLabel("2023-09"); ok {
		t.Fatalf("expected failure")
	}
}

func TestDateCellOf(t *testing.T) {
	t.Parallel()

	serial := model.NumberCell(decimal.RequireFromString("45296.395833333336"))
	got := DateCellOf(serial)
	if got.Kind != model.CellDate || got.String() != "2024-01-05 09:30:00" {
		t.Fatalf("serial -> %+v (%q)", got, got.String())
	}

	if got := DateCellOf(model.TextCell("2024-02-10")); got.String() != "2024-02-10" || got.Kind != model.CellDate {
		t.Fatalf("text -> %+v", got)
	}

	bad := model.TextCell("soon")
	if got := DateCellOf(bad); got.Kind != model.CellText || got.Text != "soon" {
		t.Fatalf("unparseable -> %+v", got)
	}
}
