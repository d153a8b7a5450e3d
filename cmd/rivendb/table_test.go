package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Check", "Status", "Detail"}, [][]string{{"FFmpeg", "ok"}}, []columnAlignment{alignLeft})
	requireContains(t, out, "Check")
	if strings.Contains(out, "CHECK") {
		t.Fatalf("expected headers as written, got %q", out)
	}
	requireContains(t, out, "FFmpeg")
	if lines := strings.Count(out, "\n"); lines < 4 {
		t.Fatalf("expected a framed table, got %q", out)
	}
	if renderTable(nil, [][]string{{"x"}}, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
