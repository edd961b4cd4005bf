// Package pipeline wires parsing, rules, link validation, compliance
// and scoring into the end-to-end campaign check.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/cache"
	"github.com/mailproof/mailproof/internal/llm"
	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/parse"
	"github.com/mailproof/mailproof/internal/rules"
	"github.com/mailproof/mailproof/internal/score"
	"github.com/mailproof/mailproof/internal/validate"
	"github.com/mailproof/mailproof/internal/worker"
)

// Pipeline runs the full QA check for document/email pairs. One
// Pipeline serves many checks; the rules cache and link cache carry
// across them.
type Pipeline struct {
	cfg        *model.Config
	log        *zap.Logger
	rules      *rules.Engine
	validator  *validate.Validator
	scorer     *score.Scorer
	summarizer *llm.Summarizer
	llmErr     error
}

func New(cfg *model.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var store cache.Store
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		store = cache.NewLayered(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	// The summary is advisory; a misconfigured provider downgrades to a
	// per-report warning instead of failing the run.
	summarizer, llmErr := llm.NewSummarizer(cfg.LLM, log)
	if llmErr != nil {
		log.Warn("LLM summary disabled", zap.Error(llmErr))
	}

	return &Pipeline{
		cfg:        cfg,
		log:        log,
		rules:      rules.NewEngine(cfg.Rules.Dir, log),
		validator:  validate.NewValidator(cfg, store, log),
		scorer:     score.NewScorer(cfg.Scoring.PassThreshold),
		summarizer: summarizer,
		llmErr:     llmErr,
	}, nil
}

// Rules exposes the engine for the rules subcommands.
func (p *Pipeline) Rules() *rules.Engine { return p.rules }

// Check runs one campaign through every stage and returns the report.
func (p *Pipeline) Check(ctx context.Context, pair worker.Pair) (*model.Report, error) {
	start := time.Now()
	p.log.Info("checking campaign",
		zap.String("document", pair.Document),
		zap.String("email", pair.Email),
		zap.String("client", pair.Client))

	req, err := parse.ParseDocument(pair.Document)
	if err != nil {
		return failedReport(pair, start), fmt.Errorf("copy document: %w", err)
	}
	email, err := parse.ParseEmail(pair.Email)
	if err != nil {
		return failedReport(pair, start), fmt.Errorf("email: %w", err)
	}

	report := &model.Report{
		Client:       pair.Client,
		Campaign:     strings.TrimSuffix(filepath.Base(pair.Email), filepath.Ext(pair.Email)),
		CheckedAt:    start.UTC(),
		Status:       model.StatusCompleted,
		DocumentFile: pair.Document,
		EmailFile:    pair.Email,
		Requirements: *req,
		Email:        *email,
	}
	if pair.Campaign != "" {
		report.Campaign = pair.Campaign
	}
	switch {
	case pair.Segment != "":
		report.Segment = pair.Segment
	case len(req.Segments) == 1:
		for name := range req.Segments {
			report.Segment = name
		}
	}

	var clientRules *rules.ClientRules
	if pair.Client != "" {
		clientRules, err = p.rules.Load(pair.Client)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist):
			p.log.Warn("no rules file for client", zap.String("client", pair.Client))
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("no rules file for client %q; ran generic checks only", pair.Client))
		default:
			return nil, err
		}
	}

	report.Analysis = analyzeContent(email, req, p.cfg.Validation)
	collectAnalysisFindings(report)

	report.Links = *p.validator.Validate(ctx, email, req, clientRules)
	collectLinkFindings(report)

	report.Compliance = checkCompliance(email)
	if clientRules == nil || clientRules.Compliance == nil {
		collectComplianceFindings(report)
	}

	if clientRules != nil {
		rv := p.rules.Validate(clientRules, email, req)
		report.Rules = rv
		report.Issues = append(report.Issues, rv.Issues...)
		report.Warnings = append(report.Warnings, rv.Warnings...)
	}

	if n := len(email.EncodingIssues) + len(req.EncodingIssues); n > 0 {
		finding := fmt.Sprintf("repaired %d encoding artifact(s); the source files should be fixed", n)
		if p.cfg.Validation.EncodingTolerance {
			report.Warnings = append(report.Warnings, finding)
		} else {
			report.Issues = append(report.Issues, finding)
		}
	}

	report.Score = p.scorer.Calculate(report)
	report.DurationMS = time.Since(start).Milliseconds()

	if p.llmErr != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("LLM summary skipped: %v", p.llmErr))
	}
	p.summarizer.Attach(ctx, report)

	p.log.Info("check finished",
		zap.Int("score", report.Score.Index),
		zap.Bool("pass", report.Score.Verdict),
		zap.Int("issues", len(report.Issues)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Int64("duration_ms", report.DurationMS))
	return report, nil
}

// failedReport records a check that never got past parsing. Batch mode
// keeps it in the combined output next to the error.
func failedReport(pair worker.Pair, start time.Time) *model.Report {
	return &model.Report{
		Client:       pair.Client,
		CheckedAt:    start.UTC(),
		Status:       model.StatusFailed,
		DocumentFile: pair.Document,
		EmailFile:    pair.Email,
	}
}

func collectAnalysisFindings(r *model.Report) {
	a := r.Analysis
	if !a.Subject.Passed {
		r.Issues = append(r.Issues, fmt.Sprintf("subject line %q does not match any approved variant", a.Subject.Actual))
	}
	if !a.Preview.Passed {
		r.Issues = append(r.Issues, fmt.Sprintf("preview text %q does not match any approved variant", a.Preview.Actual))
	}
	for _, m := range a.CTAMatches {
		if !m.Found {
			r.Issues = append(r.Issues, fmt.Sprintf("required CTA %q not found in email", m.Required))
		}
	}
}

func collectLinkFindings(r *model.Report) {
	for _, u := range r.Links.MissingLinks {
		r.Issues = append(r.Issues, fmt.Sprintf("required link missing from email: %s", u))
	}
	for _, st := range r.Links.Checked {
		if st.IsDead {
			r.Issues = append(r.Issues, fmt.Sprintf("dead link (%d): %s", st.StatusCode, st.URL))
		}
	}
	for _, u := range r.Links.UTM.MissingOn {
		r.Warnings = append(r.Warnings, fmt.Sprintf("missing required UTM parameters: %s", u))
	}
	for _, e := range r.Links.UTM.ValueErrors {
		r.Issues = append(r.Issues, fmt.Sprintf("%s: %s is %q, expected %q", e.URL, e.Param, e.Actual, e.Expected))
	}
	if r.Links.Phone != nil && !r.Links.Phone.Passed {
		r.Warnings = append(r.Warnings, fmt.Sprintf("required phone number(s) not found: %s", r.Links.Phone.Required))
	}
	if r.Links.Social != nil && !r.Links.Social.Passed {
		r.Warnings = append(r.Warnings, "expected social profile links are missing or point at the wrong handle")
	}
	for _, u := range r.Links.ExtraLinks {
		r.Warnings = append(r.Warnings, fmt.Sprintf("link not in copy document: %s", u))
	}
}

func collectComplianceFindings(r *model.Report) {
	if !r.Compliance.CANSPAM.UnsubscribePresent {
		r.Issues = append(r.Issues, "no unsubscribe link found (CAN-SPAM)")
	}
	if !r.Compliance.CANSPAM.PhysicalAddressPresent {
		r.Issues = append(r.Issues, "no physical mailing address found (CAN-SPAM)")
	}
	if n := r.Compliance.Accessibility.ImagesWithoutAlt; n > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d image(s) missing alt text", n))
	}
}
