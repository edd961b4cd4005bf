package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mailproof/mailproof/internal/model"
)

// Pair names one campaign to check: the copy document, the rendered
// email, and optionally the client whose rules apply. Segment and
// Campaign override what the pipeline would infer from the inputs.
type Pair struct {
	Document string
	Email    string
	Client   string
	Segment  string
	Campaign string
}

// Checker runs the full QA pipeline for one pair.
type Checker interface {
	Check(ctx context.Context, p Pair) (*model.Report, error)
}

// CheckJob adapts a Pair to the pool's Job interface.
type CheckJob struct {
	Pair    Pair
	Checker Checker
}

func (j *CheckJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.Check(ctx, j.Pair)
	return &CheckResult{Pair: j.Pair, Report: report, Error: err}
}

// CheckResult is the outcome of one pair.
type CheckResult struct {
	Pair   Pair
	Report *model.Report
	Error  error
}

func (r *CheckResult) Err() error { return r.Error }

// Batch checks many pairs concurrently.
type Batch struct {
	checker     Checker
	concurrency int
}

func NewBatch(checker Checker, concurrency int) *Batch {
	return &Batch{checker: checker, concurrency: concurrency}
}

// Run checks all pairs and returns one result per pair, in completion
// order.
func (b *Batch) Run(pairs []Pair) []*CheckResult {
	if len(pairs) == 0 {
		return nil
	}
	pool := NewPool(b.concurrency)
	pool.Start()
	for _, p := range pairs {
		pool.Submit(&CheckJob{Pair: p, Checker: b.checker})
	}
	results := pool.Wait()

	out := make([]*CheckResult, len(results))
	for i, r := range results {
		out[i] = r.(*CheckResult)
	}
	return out
}

// RunManifest reads a manifest file and checks every pair in it.
func (b *Batch) RunManifest(path string) ([]*CheckResult, error) {
	pairs, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	return b.Run(pairs), nil
}

// ReadManifest parses a batch manifest: one pair per line as
// "document,email[,client[,segment]]". Blank lines and # comments are
// skipped, duplicate pairs are dropped.
func ReadManifest(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	var pairs []Pair
	seen := make(map[string]bool)
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("manifest line %d: want document,email[,client[,segment]], got %q", lineNo, line)
		}
		p := Pair{
			Document: strings.TrimSpace(fields[0]),
			Email:    strings.TrimSpace(fields[1]),
		}
		if len(fields) > 2 {
			p.Client = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			p.Segment = strings.TrimSpace(fields[3])
		}
		if p.Document == "" || p.Email == "" {
			return nil, fmt.Errorf("manifest line %d: empty document or email path", lineNo)
		}
		key := p.Document + "\x00" + p.Email
		if !seen[key] {
			seen[key] = true
			pairs = append(pairs, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return pairs, nil
}
