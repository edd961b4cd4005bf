package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/pipeline"
	"github.com/mailproof/mailproof/internal/worker"
)

var (
	batchWorkers   int
	batchJSONOut   string
	batchOutputDir string
	batchNoLinks   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Check many campaigns from a manifest file",
	Long: `Batch reads a manifest with one campaign per line, formatted as
"document,email[,client[,segment]]", and checks all of them
concurrently. Lines starting with # are comments.

The combined JSON results go to stdout (or --json <path>); with
--output-dir each campaign also gets its own report file. One verdict
line per campaign goes to stderr. The exit code is 0 only when every
campaign passes.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent campaigns (default from config)")
	batchCmd.Flags().StringVar(&batchJSONOut, "json", "", "write combined JSON results to a file instead of stdout")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "also write one JSON report per campaign into this directory")
	batchCmd.Flags().BoolVar(&batchNoLinks, "no-links", false, "skip link liveness checking")
}

// batchEntry is one campaign's outcome in the combined output.
type batchEntry struct {
	Document string        `json:"document"`
	Email    string        `json:"email"`
	Client   string        `json:"client,omitempty"`
	Error    string        `json:"error,omitempty"`
	Report   *model.Report `json:"report,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if batchNoLinks {
		cfg.HTTP.CheckLinks = false
	}
	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Concurrency.BatchWorkers
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	results, err := worker.NewBatch(p, workers).RunManifest(args[0])
	if err != nil {
		return err
	}
	log.Info("batch finished", zap.Int("campaigns", len(results)))

	if batchOutputDir != "" {
		if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	entries := make([]batchEntry, 0, len(results))
	reportNames := make(map[string]int)
	failed := 0
	for _, r := range results {
		entry := batchEntry{
			Document: r.Pair.Document,
			Email:    r.Pair.Email,
			Client:   r.Pair.Client,
			Report:   r.Report,
		}
		switch {
		case r.Error != nil:
			entry.Error = r.Error.Error()
			failed++
			fmt.Fprintf(os.Stderr, "ERROR  %s: %v\n", r.Pair.Email, r.Error)
		case !r.Report.Score.Verdict:
			failed++
			pipeline.RenderSummary(os.Stderr, r.Report)
		default:
			pipeline.RenderSummary(os.Stderr, r.Report)
		}
		if batchOutputDir != "" && r.Error == nil && r.Report != nil {
			if err := writeCampaignReport(batchOutputDir, r.Report, reportNames); err != nil {
				return err
			}
		}
		entries = append(entries, entry)
	}

	out := os.Stdout
	if batchJSONOut != "" {
		f, err := os.Create(batchJSONOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", batchJSONOut, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d campaign(s) failed QA", failed, len(results))
	}
	return nil
}

// writeCampaignReport writes one report file, suffixing the name when a
// manifest reuses the same campaign basename.
func writeCampaignReport(dir string, r *model.Report, used map[string]int) error {
	name := r.Campaign
	if name == "" {
		name = "report"
	}
	used[name]++
	if n := used[name]; n > 1 {
		name = fmt.Sprintf("%s-%d", name, n)
	}
	path := filepath.Join(dir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return pipeline.RenderJSON(f, r)
}
