package parser

import (
	"testing"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

func TestClassifyColumns_KeepsSourceOrder(t *testing.T) {
	t.Parallel()

	columns := []string{
		"TIMESTAMP",
		"FABRIC 1",
		"QTY 1",
		"FABRIC 2",
		"QTY 2",
		"QTY(TOTAL)",
		"TRIP",
	}

	fabric, qty := ClassifyColumns(columns, DefaultMarkers())
	if len(fabric) != 2 || fabric[0] != "FABRIC 1" || fabric[1] != "FABRIC 2" {
		t.Fatalf("fabric=%v", fabric)
	}
	// "QTY(TOTAL)" 不含 "QTY "，不应被识别为数量列
	if len(qty) != 2 || qty[0] != "QTY 1" || qty[1] != "QTY 2" {
		t.Fatalf("qty=%v", qty)
	}
}

func TestInferPairing_Positional(t *testing.T) {
	t.Parallel()

	p := InferPairing([]string{"FABRIC A", "FABRIC B", "QTY A", "QTY B"}, DefaultMarkers())
	if !p.Inferred {
		t.Fatalf("expected inferred pairing")
	}
	want := []model.ColumnPair{{Fabric: "FABRIC A", Qty: "QTY A"}, {Fabric: "FABRIC B", Qty: "QTY B"}}
	if len(p.Pairs) != len(want) {
		t.Fatalf("pairs=%v", p.Pairs)
	}
	for i := range want {
		if p.Pairs[i] != want[i] {
			t.Fatalf("pairs[%d]=%v, want %v", i, p.Pairs[i], want[i])
		}
	}
	if len(p.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", p.Warnings)
	}
}

func TestInferPairing_ShapeMismatchTruncates(t *testing.T) {
	t.Parallel()

	p := InferPairing([]string{"FABRIC 1", "QTY 1", "FABRIC 2", "FABRIC 3", "QTY 2"}, DefaultMarkers())
	if len(p.Pairs) != 2 {
		t.Fatalf("pairs=%v, want 2 pairs", p.Pairs)
	}
	if len(p.FabricColumns) != 3 {
		t.Fatalf("FabricColumns=%v, want all 3 fabric columns", p.FabricColumns)
	}
	if len(p.Warnings) != 1 || p.Warnings[0].Code != model.WarnShapeMismatch {
		t.Fatalf("warnings=%v", p.Warnings)
	}
}

func TestResolvePairing_DeclaredWins(t *testing.T) {
	t.Parallel()

	columns := []string{"FABRIC1", "QTY1", "FABRIC2", "QTY2"}
	declared := []model.ColumnPair{
		{Fabric: "FABRIC1", Qty: "QTY1"},
		{Fabric: "FABRIC2", Qty: "QTY2"},
		{Fabric: "FABRIC3", Qty: "QTY3"},
	}

	p := ResolvePairing(columns, declared, DefaultMarkers())
	if p.Inferred {
		t.Fatalf("declared pairing should not be marked inferred")
	}
	if len(p.Pairs) != 2 {
		t.Fatalf("pairs=%v", p.Pairs)
	}
	if len(p.Warnings) != 1 || p.Warnings[0].Code != model.WarnMissingColumn {
		t.Fatalf("warnings=%v", p.Warnings)
	}
	if len(p.FabricColumns) != 2 || p.FabricColumns[1] != "FABRIC2" {
		t.Fatalf("FabricColumns=%v", p.FabricColumns)
	}
}

func TestResolvePairing_FallbackInfers(t *testing.T) {
	t.Parallel()

	p := ResolvePairing([]string{"FABRIC 1", "QTY 1"}, nil, DefaultMarkers())
	if !p.Inferred || len(p.Pairs) != 1 {
		t.Fatalf("unexpected pairing: %+v", p)
	}
	if p.Warnings[len(p.Warnings)-1].Code != model.WarnInferredPairing {
		t.Fatalf("warnings=%v", p.Warnings)
	}
}

func TestResolvePairing_NoPairs(t *testing.T) {
	t.Parallel()

	p := ResolvePairing([]string{"TIMESTAMP", "TRIP"}, nil, DefaultMarkers())
	if len(p.Pairs) != 0 {
		t.Fatalf("pairs=%v", p.Pairs)
	}
	last := p.Warnings[len(p.Warnings)-1]
	if last.Code != model.WarnNoPairs {
		t.Fatalf("last warning=%v", last)
	}
}

func TestSheetRecognizer_BestInColumnsSuite(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer([]string{"TIMESTAMP", "DELIVERY PLAN DATE", "TRIP"}, DefaultMarkers())
	headers := map[string][]string{
		"README": {"说明"},
		"DATA":   {"TIMESTAMP", "TRIP", "DELIVERY PLAN DATE", "FABRIC 1", "QTY 1"},
		"PIVOT":  {"FABRIC", "TOTAL"},
	}

	best, ok := r.Best([]string{"README", "DATA", "PIVOT"}, headers)
	if !ok || best.SheetName != "DATA" {
		t.Fatalf("best=%+v ok=%v", best, ok)
	}
	if best.Score != 1 {
		t.Fatalf("score=%v, want 1", best.Score)
	}

	if _, ok := r.Best([]string{"README"}, headers); ok {
		t.Fatalf("README should not be recognized")
	}
}
