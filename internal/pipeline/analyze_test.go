package pipeline

import (
	"testing"

	"github.com/mailproof/mailproof/internal/model"
)

var looseConfig = model.ValidationConfig{EncodingTolerance: true}

func TestMatcherLoose(t *testing.T) {
	m := matcher{}
	tests := []struct {
		expected, actual string
		want             bool
	}{
		{"Big Summer Sale", "Big Summer Sale", true},
		{"Big Summer Sale", "big  summer   sale", true},
		{"SHOP NOW", "SHOP NOW →", true},
		{"Don't miss out", "Donâ€™t miss out", true},
		{"Big Summer Sale", "Winter Clearance", false},
		{"", "", true},
		{"Something", "", false},
	}
	for _, tt := range tests {
		if got := m.matches(tt.expected, tt.actual); got != tt.want {
			t.Errorf("matches(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
		}
	}
}

func TestMatcherStrict(t *testing.T) {
	m := matcher{strict: true}
	if m.matches("SHOP NOW", "SHOP NOW →") {
		t.Error("strict mode must reject containment")
	}
	if !m.matches("SHOP NOW", "shop  now") {
		t.Error("strict mode still normalizes case and whitespace")
	}

	cs := matcher{strict: true, caseSensitive: true}
	if cs.matches("SHOP NOW", "shop now") {
		t.Error("case-sensitive mode must reject case differences")
	}
}

func TestAnalyzeSubjectVariants(t *testing.T) {
	req := &model.Requirements{
		SubjectLines: []string{"Variant A", "Variant B"},
	}
	email := &model.Email{Subject: "variant b"}
	a := analyzeContent(email, req, looseConfig)
	if !a.Subject.Passed {
		t.Errorf("subject check = %+v", a.Subject)
	}
	if !a.Passed {
		t.Errorf("analysis = %+v", a)
	}
}

func TestAnalyzePreviewText(t *testing.T) {
	req := &model.Requirements{PreviewText: []string{"Up to 50% off everything"}}
	email := &model.Email{PreviewText: "Up to 50% off everything this week"}
	a := analyzeContent(email, req, looseConfig)
	if !a.Preview.Passed {
		t.Errorf("preview check = %+v", a.Preview)
	}

	email.PreviewText = ""
	a = analyzeContent(email, req, looseConfig)
	if a.Preview.Passed {
		t.Errorf("empty preview should fail: %+v", a.Preview)
	}
}

func TestAnalyzeMissingCTA(t *testing.T) {
	req := &model.Requirements{
		CTAs: []model.RequiredCTA{
			{Text: "SHOP NOW"},
			{Text: "LEARN MORE"},
		},
	}
	email := &model.Email{
		CTAs: []model.CTA{{Text: "SHOP NOW", URL: "https://acme.example/sale"}},
	}
	a := analyzeContent(email, req, looseConfig)
	if a.CTAs.Passed {
		t.Fatalf("CTA check = %+v", a.CTAs)
	}
	if len(a.CTAMatches) != 2 {
		t.Fatalf("matches = %+v", a.CTAMatches)
	}
	if !a.CTAMatches[0].Found || a.CTAMatches[0].URL != "https://acme.example/sale" {
		t.Errorf("matches[0] = %+v", a.CTAMatches[0])
	}
	if a.CTAMatches[1].Found {
		t.Errorf("matches[1] = %+v", a.CTAMatches[1])
	}
}

func TestAnalyzeNothingRequired(t *testing.T) {
	a := analyzeContent(&model.Email{Subject: "Whatever"}, &model.Requirements{}, looseConfig)
	if !a.Passed {
		t.Errorf("analysis = %+v", a)
	}
}

func TestEncodingCheckSurfacesFixes(t *testing.T) {
	email := &model.Email{EncodingIssues: []string{`replaced "â€™" with "'"`}}
	a := analyzeContent(email, &model.Requirements{}, looseConfig)
	if a.Encoding.Passed {
		t.Error("encoding check should fail when fixes were applied")
	}
	if a.Passed != true {
		t.Error("encoding alone must not fail the content analysis")
	}
}
