// Package score turns check results into a 0-100 QA score. Every point
// is traceable: each signal carries the counts and formula behind it.
package score

import (
	"fmt"
	"math"

	"github.com/mailproof/mailproof/internal/model"
)

// Weights per category. Content agreement dominates because a wrong
// subject line or CTA ships a wrong campaign even when every link works.
const (
	contentWeight    = 35
	linkWeight       = 25
	complianceWeight = 25
	brandWeight      = 15

	encodingPenalty = 5
)

// Scorer computes the QA score for a finished report.
type Scorer struct {
	threshold int
}

func NewScorer(threshold int) *Scorer {
	if threshold <= 0 || threshold > 100 {
		threshold = 70
	}
	return &Scorer{threshold: threshold}
}

// Calculate scores a report and attaches the diagnostic signals. The
// verdict requires both a clean issue list and a score at or above the
// threshold: a 95 with a dead CTA is still a fail.
func (s *Scorer) Calculate(r *model.Report) model.Score {
	var signals []model.Signal

	contentScore, contentSignal := s.scoreContent(r)
	signals = append(signals, contentSignal)

	linkScore, linkSignal := s.scoreLinks(r)
	signals = append(signals, linkSignal)

	complianceScore, complianceSignal := s.scoreCompliance(r)
	signals = append(signals, complianceSignal)

	brandScore, brandSignal := s.scoreBrand(r)
	signals = append(signals, brandSignal)

	total := contentScore + linkScore + complianceScore + brandScore

	if n := len(r.Email.EncodingIssues) + len(r.Requirements.EncodingIssues); n > 0 {
		total -= encodingPenalty
		signals = append(signals, model.Signal{
			Type:        model.SignalEncodingRepair,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Repaired %d encoding artifact(s) in the inputs", n),
			Data: map[string]interface{}{
				"fixes":   n,
				"penalty": encodingPenalty,
			},
		})
	}
	if total < 0 {
		total = 0
	}

	return model.Score{
		Index:   total,
		Verdict: total >= s.threshold && len(r.Issues) == 0,
		Signals: signals,
	}
}

func (s *Scorer) scoreContent(r *model.Report) (int, model.Signal) {
	checks := []model.Check{r.Analysis.Subject, r.Analysis.Preview, r.Analysis.CTAs}
	total, passed := 0, 0
	for _, c := range checks {
		if len(c.Expected) == 0 && c.Actual == "" && len(c.Details) == 0 {
			continue // Check never ran, nothing was required.
		}
		total++
		if c.Passed {
			passed++
		}
	}
	if total == 0 {
		return contentWeight, model.Signal{
			Type:        model.SignalContentMatch,
			Severity:    model.SeverityWarning,
			Description: "Copy document carried no checkable content requirements",
			Data:        map[string]interface{}{"checks": 0, "score": contentWeight},
		}
	}

	ratio := float64(passed) / float64(total)
	points := int(math.Round(ratio * contentWeight))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 1.0 {
		severity = model.SeverityWarning
	}
	return points, model.Signal{
		Type:        model.SignalContentMatch,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d content checks passed", passed, total),
		Data: map[string]interface{}{
			"passed":  passed,
			"checks":  total,
			"score":   points,
			"formula": fmt.Sprintf("round(passed / checks * %d)", contentWeight),
		},
	}
}

func (s *Scorer) scoreLinks(r *model.Report) (int, model.Signal) {
	lv := r.Links

	// Presence is worth 15, liveness 5, UTM 5.
	presence := 15.0
	if lv.RequiredLinks > 0 {
		presence = float64(lv.MatchedLinks) / float64(lv.RequiredLinks) * 15
	}

	liveness := 5.0
	dead := 0
	if !lv.Skipped && len(lv.Checked) > 0 {
		for _, st := range lv.Checked {
			if st.IsDead {
				dead++
			}
		}
		liveness = (1 - float64(dead)/float64(len(lv.Checked))) * 5
	}

	utm := 5.0
	if !lv.UTM.Passed {
		utm = 0
	}

	points := int(math.Round(presence + liveness + utm))
	severity := model.SeverityInfo
	if dead > 0 || len(lv.MissingLinks) > 0 {
		severity = model.SeverityCritical
	} else if !lv.UTM.Passed {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:     model.SignalLinkIntegrity,
		Severity: severity,
		Description: fmt.Sprintf("%d/%d required links present, %d dead",
			lv.MatchedLinks, lv.RequiredLinks, dead),
		Data: map[string]interface{}{
			"required":     lv.RequiredLinks,
			"matched":      lv.MatchedLinks,
			"dead":         dead,
			"utm_passed":   lv.UTM.Passed,
			"liveness_ran": !lv.Skipped,
			"score":        points,
			"formula":      "presence*15 + liveness*5 + utm*5",
		},
	}
}

func (s *Scorer) scoreCompliance(r *model.Report) (int, model.Signal) {
	c := r.Compliance
	points := 0
	if c.CANSPAM.UnsubscribePresent {
		points += 10
	}
	if c.CANSPAM.PhysicalAddressPresent {
		points += 10
	}

	altPoints := 5.0
	totalImages := c.Accessibility.ImagesWithAlt + c.Accessibility.ImagesWithoutAlt
	if totalImages > 0 {
		altPoints = float64(c.Accessibility.ImagesWithAlt) / float64(totalImages) * 5
	}
	points += int(math.Round(altPoints))

	severity := model.SeverityInfo
	if !c.CANSPAM.UnsubscribePresent || !c.CANSPAM.PhysicalAddressPresent {
		severity = model.SeverityCritical
	} else if c.Accessibility.ImagesWithoutAlt > 0 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalCompliance,
		Severity:    severity,
		Description: fmt.Sprintf("Unsubscribe: %v, address: %v, %d image(s) without alt text", c.CANSPAM.UnsubscribePresent, c.CANSPAM.PhysicalAddressPresent, c.Accessibility.ImagesWithoutAlt),
		Data: map[string]interface{}{
			"unsubscribe":        c.CANSPAM.UnsubscribePresent,
			"physical_address":   c.CANSPAM.PhysicalAddressPresent,
			"images_with_alt":    c.Accessibility.ImagesWithAlt,
			"images_without_alt": c.Accessibility.ImagesWithoutAlt,
			"score":              points,
			"formula":            "unsubscribe*10 + address*10 + alt_coverage*5",
		},
	}
}

func (s *Scorer) scoreBrand(r *model.Report) (int, model.Signal) {
	// Without a rules file there is nothing brand-specific to fail, but
	// the reviewer should know the check ran shallow.
	if r.Rules == nil {
		return brandWeight, model.Signal{
			Type:        model.SignalRulesMissing,
			Severity:    model.SeverityWarning,
			Description: "No client rules file; brand checks limited to generic heuristics",
			Data:        map[string]interface{}{"score": brandWeight},
		}
	}

	points := 0
	if r.Rules.Passed {
		points = 5
	}

	phonePoints := 5
	if r.Links.Phone != nil && !r.Links.Phone.Passed {
		phonePoints = 0
	}
	socialPoints := 5
	if r.Links.Social != nil && !r.Links.Social.Passed {
		socialPoints = 0
	}
	points += phonePoints + socialPoints

	severity := model.SeverityInfo
	if !r.Rules.Passed {
		severity = model.SeverityCritical
	} else if points < brandWeight {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalBrandFit,
		Severity:    severity,
		Description: fmt.Sprintf("Client rules passed: %v", r.Rules.Passed),
		Data: map[string]interface{}{
			"rules_passed": r.Rules.Passed,
			"score":        points,
			"formula":      "rules*5 + phone*5 + social*5",
		},
	}
}
