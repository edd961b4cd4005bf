package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mailproof/mailproof/internal/model"
)

// RenderJSON writes the full report as indented JSON. This is the
// machine surface: everything the check learned is in here.
func RenderJSON(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderMarkdown writes a human-readable report for review threads.
func RenderMarkdown(w io.Writer, r *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# QA Report: %s\n\n", r.Campaign)
	fmt.Fprintf(&b, "- **Verdict:** %s\n", verdictWord(r.Score.Verdict))
	fmt.Fprintf(&b, "- **Score:** %d/100\n", r.Score.Index)
	if r.Client != "" {
		fmt.Fprintf(&b, "- **Client:** %s\n", r.Client)
	}
	if r.Segment != "" {
		fmt.Fprintf(&b, "- **Segment:** %s\n", r.Segment)
	}
	fmt.Fprintf(&b, "- **Document:** %s\n", r.DocumentFile)
	fmt.Fprintf(&b, "- **Email:** %s\n", r.EmailFile)
	fmt.Fprintf(&b, "- **Checked:** %s (%dms)\n\n", r.CheckedAt.Format("2006-01-02 15:04:05 MST"), r.DurationMS)

	if len(r.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, is := range r.Issues {
			fmt.Fprintf(&b, "- ❌ %s\n", is)
		}
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, wrn := range r.Warnings {
			fmt.Fprintf(&b, "- ⚠️ %s\n", wrn)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Content\n\n")
	writeCheckRow(&b, "Subject", r.Analysis.Subject)
	writeCheckRow(&b, "Preview", r.Analysis.Preview)
	writeCheckRow(&b, "CTAs", r.Analysis.CTAs)
	writeCheckRow(&b, "Encoding", r.Analysis.Encoding)
	b.WriteString("\n")

	b.WriteString("## Links\n\n")
	fmt.Fprintf(&b, "- %d links in email, %d/%d required links present\n",
		r.Links.TotalLinks, r.Links.MatchedLinks, r.Links.RequiredLinks)
	if r.Links.Skipped {
		b.WriteString("- liveness checking was disabled\n")
	} else {
		dead := 0
		cached := 0
		for _, st := range r.Links.Checked {
			if st.IsDead {
				dead++
			}
			if st.FromCache {
				cached++
			}
		}
		fmt.Fprintf(&b, "- %d checked, %d dead, %d from cache\n", len(r.Links.Checked), dead, cached)
	}
	b.WriteString("\n")

	b.WriteString("## Score breakdown\n\n")
	for _, sig := range r.Score.Signals {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", sig.Type, sig.Severity, sig.Description)
	}
	b.WriteString("\n")

	if r.LLM != nil && r.LLM.SummaryMD != "" {
		b.WriteString("## Summary (LLM, advisory)\n\n")
		b.WriteString(r.LLM.SummaryMD)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary writes the short console verdict that prints to stderr
// after a check when JSON is going to stdout.
func RenderSummary(w io.Writer, r *model.Report) {
	fmt.Fprintf(w, "%s  score %d/100  issues %d  warnings %d  (%s)\n",
		verdictWord(r.Score.Verdict), r.Score.Index, len(r.Issues), len(r.Warnings), r.Campaign)
}

func writeCheckRow(b *strings.Builder, name string, c model.Check) {
	mark := "✅"
	if !c.Passed {
		mark = "❌"
	}
	fmt.Fprintf(b, "- %s %s", mark, name)
	if c.Actual != "" {
		fmt.Fprintf(b, ": %q", c.Actual)
	}
	if len(c.Details) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(c.Details, "; "))
	}
	b.WriteString("\n")
}

func verdictWord(v bool) string {
	if v {
		return "PASS"
	}
	return "FAIL"
}
