package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailproof/mailproof/internal/pipeline"
	"github.com/mailproof/mailproof/internal/worker"
)

var (
	checkDocument string
	checkEmail    string
	checkClient   string
	checkSegment  string
	checkCampaign string
	checkRulesDir string
	checkJSONOut  string
	checkMDOut    string
	checkTimeout  time.Duration
	checkNoLinks  bool
	checkNoCache  bool
	checkLLM      bool
	checkLLMModel string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one email against its copy document",
	Long: `Check runs the full QA pipeline for a single campaign: parse the
copy document and the rendered email, compare content, validate links,
apply client rules and score the result.

The JSON report goes to stdout (or --json <path>); a one-line verdict
goes to stderr. Exit code 0 means the campaign passed, 1 means it did
not.

Examples:
  mailproof check --document copy.txt --email campaign.html
  mailproof check --document copy.txt --email campaign.eml --client acme --md report.md`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkDocument, "document", "d", "", "copy document path (required)")
	checkCmd.Flags().StringVarP(&checkEmail, "email", "e", "", "rendered email path, .html or .eml (required)")
	checkCmd.Flags().StringVarP(&checkClient, "client", "c", "", "client whose rules apply")
	checkCmd.Flags().StringVar(&checkSegment, "segment", "", "audience segment this email renders")
	checkCmd.Flags().StringVar(&checkCampaign, "campaign", "", "campaign name for the report")
	checkCmd.Flags().StringVar(&checkRulesDir, "rules", "", "rules directory override")
	checkCmd.Flags().StringVar(&checkJSONOut, "json", "", "write the JSON report to a file instead of stdout")
	checkCmd.Flags().StringVar(&checkMDOut, "md", "", "also write a Markdown report")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&checkNoLinks, "no-links", false, "skip link liveness checking")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "ignore cached link results")
	checkCmd.Flags().BoolVar(&checkLLM, "llm", false, "attach an LLM summary (requires an API key)")
	checkCmd.Flags().StringVar(&checkLLMModel, "llm-model", "", "LLM model override")

	_ = checkCmd.MarkFlagRequired("document")
	_ = checkCmd.MarkFlagRequired("email")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if checkRulesDir != "" {
		cfg.Rules.Dir = checkRulesDir
	}
	if checkNoLinks {
		cfg.HTTP.CheckLinks = false
	}
	if checkNoCache {
		cfg.Cache.Enabled = false
	}
	if checkLLM && cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if checkLLMModel != "" {
		cfg.LLM.Model = checkLLMModel
	}
	if !checkLLM {
		// LLM stays opt-in per invocation even when configured.
		cfg.LLM.Provider = ""
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	report, err := p.Check(ctx, worker.Pair{
		Document: checkDocument,
		Email:    checkEmail,
		Client:   checkClient,
		Segment:  checkSegment,
		Campaign: checkCampaign,
	})
	if err != nil {
		return err
	}

	if err := writeReport(report, checkJSONOut, checkMDOut); err != nil {
		return err
	}
	pipeline.RenderSummary(os.Stderr, report)

	if !report.Score.Verdict {
		return fmt.Errorf("campaign failed QA: score %d/100, %d issue(s)",
			report.Score.Index, len(report.Issues))
	}
	return nil
}
