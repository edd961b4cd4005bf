package parse

import (
	"testing"

	"rsc.io/pdf"
)

func TestGroupTextRows(t *testing.T) {
	frag := func(s string, x, y, w float64) pdf.Text {
		return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: 12}
	}
	texts := []pdf.Text{
		// Second line arrives out of order and split mid-word.
		frag("SHOP", 72, 680, 30),
		frag(" NOW", 102, 680, 30),
		frag("Subject: Big ", 72, 700, 70),
		frag("Summer Sale", 142, 700, 70),
		frag("https://www.acme.example/sale", 72, 660, 160),
	}

	got := groupTextRows(texts)
	want := []string{
		"Subject: Big Summer Sale",
		"SHOP NOW",
		"https://www.acme.example/sale",
	}
	if len(got) != len(want) {
		t.Fatalf("lines = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGroupTextRowsGapBecomesSpace(t *testing.T) {
	texts := []pdf.Text{
		{S: "GET", X: 72, Y: 500, W: 24, FontSize: 12},
		{S: "20%", X: 110, Y: 500, W: 26, FontSize: 12},
		{S: "OFF", X: 150, Y: 500, W: 26, FontSize: 12},
	}
	got := groupTextRows(texts)
	if len(got) != 1 || got[0] != "GET 20% OFF" {
		t.Errorf("lines = %q", got)
	}
}

func TestParseDocumentRejectsBadPDF(t *testing.T) {
	path := writeDoc(t, "copy.pdf", "%PDF-1.4 not actually a pdf")
	if _, err := ParseDocument(path); err == nil {
		t.Fatal("expected error")
	}
}
