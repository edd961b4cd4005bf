// Package llm generates an optional natural-language digest of a QA
// report. The digest is advisory: it never changes the score, the
// verdict, or any issue the checks raised.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailproof/mailproof/internal/model"
)

// Provider is one LLM backend.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest carries the report and generation limits.
type SummarizeRequest struct {
	Report    *model.Report
	Model     string
	MaxTokens int
}

// SummarizeResponse is the generated digest.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// BuildPrompt renders the report facts the model may talk about. The
// model gets numbers and findings, not the raw email, so it cannot
// invent content that was never checked.
func BuildPrompt(r *model.Report) string {
	var b strings.Builder
	b.WriteString(`You are writing a short QA digest for an email campaign check.

RULES:
1. Only reference the findings listed below. Do not invent checks, links or numbers.
2. Do not soften failures. A missing unsubscribe link is a blocker, say so.
3. Do not speculate about why something failed.
4. Write 3-5 sentences of plain prose for a campaign manager.

`)
	fmt.Fprintf(&b, "Campaign: %s (client: %s)\n", r.EmailFile, orUnknown(r.Client))
	fmt.Fprintf(&b, "Score: %d/100, verdict: %s\n", r.Score.Index, passFail(r.Score.Verdict))
	fmt.Fprintf(&b, "Links: %d in email, %d/%d required links present\n",
		r.Links.TotalLinks, r.Links.MatchedLinks, r.Links.RequiredLinks)

	if len(r.Issues) > 0 {
		b.WriteString("Issues:\n")
		for _, is := range r.Issues {
			fmt.Fprintf(&b, "- %s\n", is)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for i, w := range r.Warnings {
			if i >= 10 {
				fmt.Fprintf(&b, "- ... and %d more\n", len(r.Warnings)-10)
				break
			}
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	b.WriteString("Signals:\n")
	for _, sig := range r.Score.Signals {
		fmt.Fprintf(&b, "- %s (%s): %s\n", sig.Type, sig.Severity, sig.Description)
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func passFail(v bool) string {
	if v {
		return "PASS"
	}
	return "FAIL"
}
