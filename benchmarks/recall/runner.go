// ABOUTME: Runner for personalization recall benchmarks
// ABOUTME: Seeds an isolated store per scenario, probes it, and scores the results

package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/core"
	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
	"github.com/harper/echomind/internal/storage/sqlite"
)

// Runner executes recall scenarios against one embedding provider
type Runner struct {
	embedder embedding.Provider
	logger   *zap.Logger
	verbose  bool
}

// NewRunner creates a runner. Each scenario gets its own in-memory store.
func NewRunner(embedder embedding.Provider, logger *zap.Logger, verbose bool) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		embedder: embedder,
		logger:   logger,
		verbose:  verbose,
	}
}

// Run executes a single scenario
func (r *Runner) Run(ctx context.Context, scenario Scenario) (Result, error) {
	result := Result{
		ScenarioID:   scenario.ID,
		ScenarioName: scenario.Name,
	}

	store, err := sqlite.OpenPhraseStoreInMemory("benchmark_" + scenario.ID)
	if err != nil {
		return result, fmt.Errorf("failed to open store: %w", err)
	}
	engine := core.NewEngine(store, r.embedder, core.Options{Logger: r.logger})
	defer func() { _ = engine.Close() }()

	if err := engine.Init(ctx, storage.MetricCosine); err != nil {
		return result, fmt.Errorf("failed to prepare collection: %w", err)
	}

	for _, obs := range scenario.History {
		repeat := obs.Repeat
		if repeat < 1 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			rec, err := engine.Record(ctx, models.Selection{
				UserID:   obs.UserID,
				Category: obs.Category.String(),
				Phrase:   obs.Phrase,
				Context:  obs.Context,
			})
			if err != nil {
				return result, fmt.Errorf("failed to seed %q: %w", obs.Phrase, err)
			}
			if rec.Degraded {
				result.Degraded++
			}
		}
	}

	if len(scenario.Probes) == 0 {
		return result, fmt.Errorf("scenario %s has no probes", scenario.ID)
	}

	var similarSum, topSum, hintSum float64
	var latency time.Duration

	for i, probe := range scenario.Probes {
		category := probe.Category.String()

		matches, err := engine.Similar(ctx, probe.UserID, category, probe.Context, probe.Limit)
		if err != nil {
			return result, fmt.Errorf("probe %d: %w", i+1, err)
		}
		similar := make([]string, 0, len(matches))
		for _, m := range matches {
			similar = append(similar, m.Phrase)
		}

		top := engine.TopPhrases(ctx, probe.UserID, category, probe.Limit)

		start := time.Now()
		hint := engine.Personalize(ctx, probe.UserID, category, probe.Context)
		latency += time.Since(start)

		similarRecall := Recall(similar, probe.ExpectedSimilar)
		topRecall := Recall(top, probe.ExpectedTop)
		hintScore, failures := HintScore(hint, core.FirstTimeHint, probe)

		if similarRecall < 1 {
			failures = append(failures, fmt.Sprintf("similar %v missing some of %v", similar, probe.ExpectedSimilar))
		}
		if topRecall < 1 {
			failures = append(failures, fmt.Sprintf("top %v missing some of %v", top, probe.ExpectedTop))
		}
		if leaked := Leaks(append(similar, top...), hint, probe.Forbidden); len(leaked) > 0 {
			failures = append(failures, fmt.Sprintf("leaked %v", leaked))
			hintScore = 0
			similarRecall = 0
		}

		for _, f := range failures {
			result.Failures = append(result.Failures, fmt.Sprintf("probe %d: %s", i+1, f))
		}

		if r.verbose {
			fmt.Printf("  probe %d (%s, %s): similar=%v top=%v\n", i+1, probe.UserID, category, similar, top)
			fmt.Printf("    hint: %s\n", hint)
		}

		similarSum += similarRecall
		topSum += topRecall
		hintSum += hintScore
	}

	n := float64(len(scenario.Probes))
	result.SimilarRecall = similarSum / n
	result.TopRecall = topSum / n
	result.HintScore = hintSum / n
	result.OverallScore = (result.SimilarRecall + result.TopRecall + result.HintScore) / 3
	result.AvgLatencyMS = float64(latency.Microseconds()) / 1000 / n

	result.Status = "FAIL"
	if result.OverallScore >= PassThreshold {
		result.Status = "PASS"
	}

	return result, nil
}

// RunAll executes every scenario
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	scenarios := GetAllScenarios()
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if r.verbose {
			fmt.Printf("Running %s...\n", s.Name)
		}
		res, err := r.Run(ctx, s)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// ExportResults writes results to outputPath as JSON
func ExportResults(results []Result, embedderName string, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	passed := 0
	for _, res := range results {
		if res.Status == "PASS" {
			passed++
		}
	}

	report := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"embedder":  embedderName,
		"results":   results,
		"summary": map[string]int{
			"total":  len(results),
			"passed": passed,
			"failed": len(results) - passed,
		},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
