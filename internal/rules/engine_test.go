package rules

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mailproof/mailproof/internal/model"
)

const acmeRules = `{
  "client": "acme",
  "display_name": "Acme Stores",
  "version": 1,
  "segmentation": {"required": true, "segments": ["Loyalty Members", "Prospects"]},
  "content_modules": [
    {"name": "hero", "required": true, "keywords": ["sale", "shop"]},
    {"name": "footer promo", "required": false, "keywords": ["rewards"]}
  ],
  "brand": {
    "required_phrases": ["Acme Stores"],
    "banned_phrases": ["cheap"]
  },
  "dos_and_donts": {"donts": ["act now"]},
  "compliance": {
    "require_unsubscribe": true,
    "require_physical_address": true,
    "require_alt_text": true
  },
  "utm": {"required_params": ["utm_source"], "expected_values": {"utm_source": "email"}},
  "ctas": [{"text": "SHOP NOW", "url_pattern": "acme.example", "required": true}]
}`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "acme.json"), []byte(acmeRules), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewEngine(dir, nil)
}

func TestLoadAndCache(t *testing.T) {
	e := newTestEngine(t)
	r, err := e.Load("Acme")
	if err != nil {
		t.Fatal(err)
	}
	if r.Client != "acme" || r.DisplayName != "Acme Stores" {
		t.Errorf("rules = %+v", r)
	}
	// Second load comes from cache even if the file disappears.
	if err := os.Remove(filepath.Join(e.dir, "acme.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Load("acme"); err != nil {
		t.Errorf("cached load failed: %v", err)
	}
}

func TestLoadMissingClient(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Load("globex")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("want os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadRejectsInvalidRules(t *testing.T) {
	dir := t.TempDir()
	bad := `{"client": "", "version": 0}`
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(dir, nil)
	if _, err := e.Load("bad"); err == nil {
		t.Fatal("expected lint failure")
	}
}

func TestNormalizeClient(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Acme Stores", "acme_stores"},
		{"  acme  ", "acme"},
		{"big-box", "big_box"},
	}
	for _, tt := range tests {
		if got := NormalizeClient(tt.in); got != tt.want {
			t.Errorf("NormalizeClient(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.json", "acme.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e := NewEngine(dir, nil)
	got, err := e.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "acme" || got[1] != "zeta" {
		t.Errorf("List() = %v", got)
	}
}

func TestSaveRefusesOverwrite(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Save(DefaultRules("acme")); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	path, err := e.Save(DefaultRules("Globex Corp"))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var r ClientRules
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("saved template is not valid JSON: %v", err)
	}
	if r.Client != "globex_corp" {
		t.Errorf("client = %q", r.Client)
	}
	if problems, err := Lint(raw); err != nil || len(problems) > 0 {
		t.Errorf("default template fails its own lint: %v %v", problems, err)
	}
}

func passingEmail() *model.Email {
	return &model.Email{
		Subject:            "Summer Sale at Acme Stores",
		PlainBody:          "Shop the big sale. Acme Stores rewards members save more.",
		HasUnsubscribe:     true,
		HasPhysicalAddress: true,
		CTAs: []model.CTA{
			{Text: "SHOP NOW", URL: "https://www.acme.example/sale"},
		},
		Images: []model.Image{
			{Src: "hero.jpg", Alt: "Sale banner"},
		},
	}
}

func TestValidatePassing(t *testing.T) {
	e := newTestEngine(t)
	r, err := e.Load("acme")
	if err != nil {
		t.Fatal(err)
	}
	req := &model.Requirements{Segments: map[string]model.Segment{
		"Loyalty Members": {},
		"Prospects":       {},
	}}
	rv := e.Validate(r, passingEmail(), req)
	if !rv.Passed {
		t.Fatalf("issues = %v", rv.Issues)
	}
	if len(rv.Warnings) != 0 {
		t.Errorf("warnings = %v", rv.Warnings)
	}
	sec, ok := rv.Sections["content_modules"]
	if !ok || !sec.Checks["hero"] {
		t.Errorf("sections = %+v", rv.Sections)
	}
}

func TestValidateFailures(t *testing.T) {
	e := newTestEngine(t)
	r, err := e.Load("acme")
	if err != nil {
		t.Fatal(err)
	}
	email := &model.Email{
		Subject:   "Cheap deals, act now",
		PlainBody: "Cheap stuff. Act now before it is gone.",
		Images:    []model.Image{{Src: "x.gif", Alt: ""}},
	}
	rv := e.Validate(r, email, &model.Requirements{})
	if rv.Passed {
		t.Fatal("expected failure")
	}
	wantIssues := []string{
		"content module \"hero\" not found",
		"banned phrase \"cheap\"",
		"no unsubscribe link",
		"no physical mailing address",
		"CTA \"SHOP NOW\" not found",
	}
	for _, want := range wantIssues {
		if !containsSubstring(rv.Issues, want) {
			t.Errorf("issues missing %q: %v", want, rv.Issues)
		}
	}
	wantWarnings := []string{
		"segmented but the copy document names no segments",
		"required brand phrase",
		"avoid \"act now\"",
		"missing alt text",
	}
	for _, want := range wantWarnings {
		if !containsSubstring(rv.Warnings, want) {
			t.Errorf("warnings missing %q: %v", want, rv.Warnings)
		}
	}
}

func TestValidateCTARules(t *testing.T) {
	e := NewEngine(t.TempDir(), nil)
	r := &ClientRules{
		Client: "acme",
		CTAs: []CTARule{
			{Text: "SHOP THE SALE", URLPattern: "acme.example/sale", Required: true},
			{Text: "LEARN MORE", Required: false},
		},
	}

	// Absent required CTA is an issue, absent advisory CTA a warning.
	rv := e.Validate(r, &model.Email{}, &model.Requirements{})
	if rv.Passed {
		t.Fatal("missing required CTA must fail validation")
	}
	if !containsSubstring(rv.Issues, `CTA "SHOP THE SALE" not found`) {
		t.Errorf("issues = %v", rv.Issues)
	}
	if !containsSubstring(rv.Warnings, `CTA "LEARN MORE" not found`) {
		t.Errorf("warnings = %v", rv.Warnings)
	}
	if sec, ok := rv.Sections["ctas"]; !ok || sec.Checks["SHOP THE SALE"] {
		t.Errorf("sections = %+v", rv.Sections)
	}

	// Text matches case-insensitively; the wrong destination still fails.
	email := &model.Email{CTAs: []model.CTA{
		{Text: "Shop the Sale", URL: "https://other.example/promo"},
	}}
	rv = e.Validate(r, email, &model.Requirements{})
	if !containsSubstring(rv.Issues, "want a URL containing") {
		t.Errorf("issues = %v", rv.Issues)
	}

	// A plain link carrying the CTA text satisfies the rule.
	email = &model.Email{Links: []model.Link{
		{Text: "SHOP THE SALE", URL: "https://www.acme.example/sale?utm_source=email"},
		{Text: "Learn more", URL: "https://www.acme.example/about"},
	}}
	rv = e.Validate(r, email, &model.Requirements{})
	if !rv.Passed {
		t.Fatalf("issues = %v", rv.Issues)
	}
	if len(rv.Warnings) != 0 {
		t.Errorf("warnings = %v", rv.Warnings)
	}
}

func TestRequiredCTAs(t *testing.T) {
	r := &ClientRules{CTAs: []CTARule{
		{Text: "SHOP NOW", URLPattern: "acme.example", Required: true},
		{Text: "LEARN MORE", Required: false},
	}}
	got := r.RequiredCTAs()
	if len(got) != 1 || got[0].Text != "SHOP NOW" {
		t.Errorf("RequiredCTAs() = %+v", got)
	}
}

func containsSubstring(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
