package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/model"
)

// Summarizer attaches an LLM digest to finished reports. A nil
// Summarizer is valid and does nothing, which is the default: the tool
// only talks to an API when the operator turns it on.
type Summarizer struct {
	provider Provider
	cfg      model.LLMConfig
	log      *zap.Logger
}

// NewSummarizer builds a summarizer for the configured provider.
// Returns (nil, nil) when no provider is configured.
func NewSummarizer(cfg model.LLMConfig, log *zap.Logger) (*Summarizer, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	var provider Provider
	var err error
	switch cfg.Provider {
	case "openai":
		provider, err = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, cfg: cfg, log: log}, nil
}

// Attach fills report.LLM. Failures degrade to a warning inside the
// summary block; the report itself stands without it.
func (s *Summarizer) Attach(ctx context.Context, report *model.Report) {
	if s == nil {
		return
	}
	summary := &model.LLMSummary{
		Enabled:  true,
		Provider: s.provider.Name(),
	}
	report.LLM = summary

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    report,
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		s.log.Warn("LLM summary failed", zap.Error(err))
		summary.Warnings = append(summary.Warnings, err.Error())
		return
	}
	summary.Model = resp.Model
	summary.SummaryMD = resp.Summary
	s.log.Debug("LLM summary attached",
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed))
}
