// ABOUTME: Command-line runner for personalization recall benchmarks
// ABOUTME: Runs scenarios against the configured embedder and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/harper/echomind/benchmarks/recall"
	"github.com/harper/echomind/internal/app"
	"github.com/harper/echomind/internal/config"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run one scenario (routine, first_time, isolation). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	configPath := flag.String("config", "", "Config file")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil && *verbose {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(*verbose, !*verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	embedder, closeEmbedder, err := app.NewEmbedder(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer closeEmbedder()

	embedderName := cfg.EmbeddingProvider()

	fmt.Println("========================================")
	fmt.Println("echomind Recall Benchmarks")
	fmt.Printf("Embedder: %s (dimension %d)\n", embedderName, embedder.Dimensions())
	fmt.Println("========================================")
	fmt.Println()

	runner := recall.NewRunner(embedder, logger, *verbose)
	ctx := context.Background()

	var results []recall.Result
	if *scenarioID == "" {
		results, err = runner.RunAll(ctx)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		var scenario recall.Scenario
		found := false
		for _, s := range recall.GetAllScenarios() {
			if s.ID == *scenarioID {
				scenario, found = s, true
				break
			}
		}
		if !found {
			log.Fatalf("Unknown scenario: %s (valid options: routine, first_time, isolation)", *scenarioID)
		}

		fmt.Printf("Running scenario: %s\n\n", scenario.Name)
		result, err := runner.Run(ctx, scenario)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
		results = []recall.Result{result}
	}

	fmt.Println("========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	failed := 0
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Similar recall: %.2f\n", result.SimilarRecall)
		fmt.Printf("  Top recall:     %.2f\n", result.TopRecall)
		fmt.Printf("  Hint score:     %.2f\n", result.HintScore)
		fmt.Printf("  Overall:        %.2f\n", result.OverallScore)
		fmt.Printf("  Latency:        %.2f ms\n", result.AvgLatencyMS)
		if result.Degraded > 0 {
			fmt.Printf("  Degraded:       %d record(s)\n", result.Degraded)
		}
		fmt.Printf("  Status: %s\n", result.Status)
		for _, f := range result.Failures {
			fmt.Printf("    - %s\n", f)
		}
		if result.Status != "PASS" {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total: %d  Passed: %d  Failed: %d\n", len(results), len(results)-failed, failed)
	fmt.Println("========================================")

	if err := recall.ExportResults(results, embedderName, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
