package cli

import (
	"fmt"
	"os"

	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/pipeline"
)

// writeReport sends the JSON report to stdout or a file, plus an
// optional Markdown rendering.
func writeReport(r *model.Report, jsonPath, mdPath string) error {
	if jsonPath == "" {
		if err := pipeline.RenderJSON(os.Stdout, r); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	} else {
		f, err := os.Create(jsonPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", jsonPath, err)
		}
		defer func() { _ = f.Close() }()
		if err := pipeline.RenderJSON(f, r); err != nil {
			return fmt.Errorf("write %s: %w", jsonPath, err)
		}
	}

	if mdPath != "" {
		f, err := os.Create(mdPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", mdPath, err)
		}
		defer func() { _ = f.Close() }()
		if err := pipeline.RenderMarkdown(f, r); err != nil {
			return fmt.Errorf("write %s: %w", mdPath, err)
		}
	}
	return nil
}
