package pipeline

import (
	"fmt"
	"strings"

	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/parse"
)

// analyzeContent compares what the copy document asked for with what
// the rendered email says. Matching is forgiving about whitespace, case
// and mojibake by default: those differences are reported by the
// encoding check, not failed twice.
func analyzeContent(email *model.Email, req *model.Requirements, vc model.ValidationConfig) model.Analysis {
	m := matcher{strict: vc.StrictMode, caseSensitive: vc.CaseSensitive}
	a := model.Analysis{}

	a.Subject = matchAnyOf(m, req.SubjectLines, email.Subject, "subject line")
	a.Preview = matchAnyOf(m, req.PreviewText, email.PreviewText, "preview text")
	a.CTAs, a.CTAMatches = matchCTAs(m, req.CTAs, email.CTAs)
	a.Encoding = encodingCheck(email, req)

	a.Passed = a.Subject.Passed && a.Preview.Passed && a.CTAs.Passed
	return a
}

// matchAnyOf passes when the actual text matches any of the expected
// variants. Copy docs routinely carry A/B subject lines; shipping any
// one of them is correct.
func matchAnyOf(m matcher, expected []string, actual, what string) model.Check {
	c := model.Check{Expected: expected, Actual: actual}
	if len(expected) == 0 {
		c.Passed = true
		c.Details = []string{fmt.Sprintf("no %s required", what)}
		return c
	}
	for _, want := range expected {
		if m.matches(want, actual) {
			c.Passed = true
			return c
		}
	}
	c.Details = []string{fmt.Sprintf("%s does not match any approved variant", what)}
	return c
}

func matchCTAs(m matcher, required []model.RequiredCTA, got []model.CTA) (model.Check, []model.CTAMatch) {
	c := model.Check{}
	if len(required) == 0 {
		c.Passed = true
		c.Details = []string{"no CTAs required"}
		return c, nil
	}

	matches := make([]model.CTAMatch, 0, len(required))
	found := 0
	for _, want := range required {
		match := model.CTAMatch{Required: want.Text}
		for _, cta := range got {
			if m.matches(want.Text, cta.Text) {
				match.Found = true
				match.URL = cta.URL
				break
			}
		}
		if match.Found {
			found++
		}
		matches = append(matches, match)
	}

	c.Passed = found == len(required)
	c.Details = []string{fmt.Sprintf("%d of %d required CTAs found", found, len(required))}
	for _, match := range matches {
		if !match.Found {
			c.Details = append(c.Details, fmt.Sprintf("missing CTA %q", match.Required))
		}
	}
	return c, matches
}

func encodingCheck(email *model.Email, req *model.Requirements) model.Check {
	n := len(email.EncodingIssues) + len(req.EncodingIssues)
	c := model.Check{Passed: n == 0}
	if n > 0 {
		c.Details = append(c.Details, email.EncodingIssues...)
		c.Details = append(c.Details, req.EncodingIssues...)
	}
	return c
}

// matcher compares copy text. The default is loose: case-insensitive,
// whitespace collapsed, known mojibake repaired on both sides, and
// containment accepted in either direction so "SHOP NOW" matches
// "SHOP NOW ->". Strict mode demands equality after normalization.
type matcher struct {
	strict        bool
	caseSensitive bool
}

func (m matcher) matches(expected, actual string) bool {
	e := m.normalize(expected)
	a := m.normalize(actual)
	if e == "" || a == "" || m.strict {
		return e == a
	}
	return e == a || strings.Contains(a, e) || strings.Contains(e, a)
}

func (m matcher) normalize(s string) string {
	s, _ = parse.RepairEncoding(s)
	if !m.caseSensitive {
		s = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(s), " ")
}
