package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>Big Summer Sale Starts Now</title></head>
<body>
<div style="display:none;max-height:0;overflow:hidden;">Up to 50% off everything</div>
<h1>Summer Sale</h1>
<p>Don't miss our biggest sale of the year.</p>
<a href="https://www.acme.example/sale?utm_source=email&utm_campaign=summer" class="btn btn-primary">SHOP NOW</a>
<a href="https://click.acme.example/t/abc123">See details</a>
<a href="mailto:support@acme.example">Contact us</a>
<img src="https://cdn.acme.example/hero.jpg" alt="Summer sale hero banner" width="600">
<img src="https://cdn.acme.example/spacer.gif" alt="">
<p>Acme Stores, 123 Main Street, Suite 400, Springfield</p>
<p><a href="https://www.acme.example/unsubscribe">Unsubscribe</a></p>
</body>
</html>`

func writeEmail(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseEmailHTML(t *testing.T) {
	e, err := ParseEmail(writeEmail(t, "campaign.html", sampleHTML))
	if err != nil {
		t.Fatal(err)
	}
	if e.Subject != "Big Summer Sale Starts Now" {
		t.Errorf("subject = %q", e.Subject)
	}
	if e.PreviewText != "Up to 50% off everything" {
		t.Errorf("preview = %q", e.PreviewText)
	}
	if len(e.Links) != 4 {
		t.Fatalf("links = %d: %+v", len(e.Links), e.Links)
	}
	if e.LinkCount() != 3 {
		t.Errorf("LinkCount() = %d, want 3 (mailto excluded)", e.LinkCount())
	}

	sale := e.Links[0]
	if sale.UTMParams["utm_source"] != "email" || sale.UTMParams["utm_campaign"] != "summer" {
		t.Errorf("utm params = %v", sale.UTMParams)
	}
	if sale.IsTracking {
		t.Error("sale link should not be flagged as tracking")
	}
	if !e.Links[1].IsTracking {
		t.Errorf("click.* link should be flagged as tracking: %+v", e.Links[1])
	}

	if len(e.CTAs) != 1 || e.CTAs[0].Text != "SHOP NOW" {
		t.Fatalf("CTAs = %+v", e.CTAs)
	}
	if len(e.Images) != 2 {
		t.Fatalf("images = %+v", e.Images)
	}
	if e.Images[0].Alt != "Summer sale hero banner" {
		t.Errorf("alt = %q", e.Images[0].Alt)
	}
	if !e.HasUnsubscribe {
		t.Error("unsubscribe not detected")
	}
	if !e.HasPhysicalAddress {
		t.Error("physical address not detected")
	}
}

func TestParseEmailEML(t *testing.T) {
	eml := strings.Join([]string{
		"From: Acme Stores <hello@acme.example>",
		"To: qa@agency.example",
		"Subject: Big Summer Sale Starts Now",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="BOUNDARY"`,
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Summer Sale. Shop now: https://www.acme.example/sale",
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		`<html><body><a href=3D"https://www.acme.example/sale">SHOP NOW</a>` +
			` <a href=3D"https://www.acme.example/unsubscribe">Unsubscribe</a></body></html>`,
		"--BOUNDARY--",
		"",
	}, "\r\n")

	e, err := ParseEmail(writeEmail(t, "campaign.eml", eml))
	if err != nil {
		t.Fatal(err)
	}
	if e.Subject != "Big Summer Sale Starts Now" {
		t.Errorf("subject = %q", e.Subject)
	}
	if e.FromName != "Acme Stores" || e.FromEmail != "hello@acme.example" {
		t.Errorf("from = %q <%q>", e.FromName, e.FromEmail)
	}
	if e.To != "qa@agency.example" {
		t.Errorf("to = %q", e.To)
	}
	if e.HTMLBody == "" {
		t.Fatal("html body not extracted")
	}
	if len(e.Links) != 2 {
		t.Fatalf("links = %+v", e.Links)
	}
	if e.Links[0].URL != "https://www.acme.example/sale" {
		t.Errorf("link url = %q (quoted-printable not decoded?)", e.Links[0].URL)
	}
	if !e.HasUnsubscribe {
		t.Error("unsubscribe not detected")
	}
}

func TestParseEmailEncodedSubject(t *testing.T) {
	eml := strings.Join([]string{
		"From: hello@acme.example",
		"Subject: =?utf-8?q?Caf=C3=A9_Rewards?=",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>Hi</p></body></html>",
		"",
	}, "\r\n")
	e, err := ParseEmail(writeEmail(t, "campaign.eml", eml))
	if err != nil {
		t.Fatal(err)
	}
	if e.Subject != "Café Rewards" {
		t.Errorf("subject = %q", e.Subject)
	}
}

func TestParseEmailMissingFile(t *testing.T) {
	if _, err := ParseEmail("/nonexistent/campaign.html"); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsTrackingURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://click.acme.example/t/abc", true},
		{"https://acme.us1.list-manage.com/track/click", true},
		{"https://u1234.ct.sendgrid.net/ls/click", true},
		{"https://www.acme.example/sale", false},
		{"mailto:hi@acme.example", false},
	}
	for _, tt := range tests {
		if got := isTrackingURL(tt.url); got != tt.want {
			t.Errorf("isTrackingURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
