package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Metric", "Value"}
	rows := [][]string{
		{"Cpk", "1.33"},
		{"σ level", "4.50"},
		{"DPMO", placeholder},
	}
	rightAlign := map[int]bool{1: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0] != "Metric   Value" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Cpk       1.33" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "σ level   4.50" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
	if lines[3] != "DPMO         —" {
		t.Fatalf("unexpected row line: %q", lines[3])
	}
}

func TestFormatTableTrimsTrailingPadding(t *testing.T) {
	lines := formatTable([]string{"Bin", "Label"}, [][]string{{"1", "a"}, {"2", "longer"}}, nil)
	if lines[1] != "1    a" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}
