package score

import (
	"testing"

	"github.com/mailproof/mailproof/internal/model"
)

func cleanReport() *model.Report {
	return &model.Report{
		Analysis: model.Analysis{
			Subject: model.Check{Passed: true, Expected: []string{"Big Summer Sale"}, Actual: "Big Summer Sale"},
			Preview: model.Check{Passed: true, Expected: []string{"Up to 50% off"}, Actual: "Up to 50% off"},
			CTAs:    model.Check{Passed: true, Details: []string{"1/1 CTAs matched"}},
			Passed:  true,
		},
		Links: model.LinkValidation{
			RequiredLinks: 2,
			MatchedLinks:  2,
			Checked: []model.LinkStatus{
				{URL: "https://acme.example/sale", StatusCode: 200, IsAccessible: true},
				{URL: "https://acme.example/new", StatusCode: 200, IsAccessible: true},
			},
			UTM:    model.UTMValidation{Passed: true},
			Passed: true,
		},
		Compliance: model.Compliance{
			CANSPAM:       model.CANSPAM{UnsubscribePresent: true, PhysicalAddressPresent: true, Passed: true},
			Accessibility: model.Accessibility{ImagesWithAlt: 3, Passed: true},
			Passed:        true,
		},
		Rules: &model.RuleValidation{Client: "acme", Passed: true},
	}
}

func TestPerfectReportScores100(t *testing.T) {
	s := NewScorer(70)
	got := s.Calculate(cleanReport())
	if got.Index != 100 {
		t.Errorf("index = %d, want 100", got.Index)
	}
	if !got.Verdict {
		t.Error("verdict should pass")
	}
	if len(got.Signals) != 4 {
		t.Errorf("signals = %d, want 4", len(got.Signals))
	}
	for _, sig := range got.Signals {
		if sig.Severity != model.SeverityInfo {
			t.Errorf("signal %s severity = %s", sig.Type, sig.Severity)
		}
		if sig.Data["score"] == nil {
			t.Errorf("signal %s has no score data", sig.Type)
		}
	}
}

func TestIssuesBlockVerdictRegardlessOfScore(t *testing.T) {
	r := cleanReport()
	r.Issues = []string{"banned phrase \"cheap\" appears in email"}
	got := NewScorer(70).Calculate(r)
	if got.Index < 70 {
		t.Fatalf("index = %d", got.Index)
	}
	if got.Verdict {
		t.Error("verdict must fail when issues exist")
	}
}

func TestMissingComplianceScoresCritical(t *testing.T) {
	r := cleanReport()
	r.Compliance.CANSPAM = model.CANSPAM{}
	got := NewScorer(70).Calculate(r)
	if got.Index != 80 {
		t.Errorf("index = %d, want 80", got.Index)
	}
	sig := signalOf(t, got, model.SignalCompliance)
	if sig.Severity != model.SeverityCritical {
		t.Errorf("severity = %s", sig.Severity)
	}
}

func TestDeadLinksLowerLinkScore(t *testing.T) {
	r := cleanReport()
	r.Links.Checked[1] = model.LinkStatus{URL: "https://acme.example/new", StatusCode: 404, IsDead: true}
	got := NewScorer(70).Calculate(r)
	// 2.5 liveness points lost, rounded: 100 -> 97 or 98.
	if got.Index >= 100 {
		t.Errorf("index = %d", got.Index)
	}
	sig := signalOf(t, got, model.SignalLinkIntegrity)
	if sig.Severity != model.SeverityCritical {
		t.Errorf("severity = %s", sig.Severity)
	}
}

func TestNoRulesFileWarnsButDoesNotFail(t *testing.T) {
	r := cleanReport()
	r.Rules = nil
	got := NewScorer(70).Calculate(r)
	if got.Index != 100 {
		t.Errorf("index = %d, want 100", got.Index)
	}
	sig := signalOf(t, got, model.SignalRulesMissing)
	if sig.Severity != model.SeverityWarning {
		t.Errorf("severity = %s", sig.Severity)
	}
}

func TestEncodingIssuesApplyPenalty(t *testing.T) {
	r := cleanReport()
	r.Email.EncodingIssues = []string{`replaced "â€™" with "'"`}
	got := NewScorer(70).Calculate(r)
	if got.Index != 100-encodingPenalty {
		t.Errorf("index = %d, want %d", got.Index, 100-encodingPenalty)
	}
	signalOf(t, got, model.SignalEncodingRepair)
}

func TestThresholdGovernsVerdict(t *testing.T) {
	r := cleanReport()
	r.Analysis.Subject.Passed = false
	r.Analysis.Preview.Passed = false
	r.Analysis.CTAs.Passed = false

	got := NewScorer(70).Calculate(r)
	if got.Index != 65 {
		t.Errorf("index = %d, want 65", got.Index)
	}
	if got.Verdict {
		t.Error("65 must fail a 70 threshold")
	}

	got = NewScorer(60).Calculate(r)
	if !got.Verdict {
		t.Error("65 must pass a 60 threshold")
	}
}

func signalOf(t *testing.T, s model.Score, typ model.SignalType) model.Signal {
	t.Helper()
	for _, sig := range s.Signals {
		if sig.Type == typ {
			return sig
		}
	}
	t.Fatalf("no %s signal in %+v", typ, s.Signals)
	return model.Signal{}
}
