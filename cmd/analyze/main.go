package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/domain"
	"github.com/rx-timeline-engine/internal/service"
)

// analyze evaluates a single patient's medication history from a JSON file
// and prints the findings, without the HTTP server or any storage.
func main() {
	var (
		inputPath   = flag.String("input", "", "path to an evaluation request JSON file (required)")
		catalogPath = flag.String("catalog", "", "path to a rule catalog JSON file (default: built-in catalog)")
		asOf        = flag.String("as-of", "", "override the evaluation date (YYYY-MM-DD)")
		window      = flag.Int("window", 0, "continuity window in days")
		threshold   = flag.Float64("threshold", 0.4, "confidence threshold below which findings go to pending review")
		format      = flag.String("format", "text", "output format: text or json")
		verbose     = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	var req domain.EvaluationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("Failed to parse input: %v", err)
	}

	if *asOf != "" {
		t, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			log.Fatalf("Invalid -as-of date: %v", err)
		}
		req.Patient.AsOfDate = t
	}

	cat, err := catalog.FromConfig(domain.CatalogConfig{Path: *catalogPath}, logger)
	if err != nil {
		log.Fatalf("Failed to load rule catalog: %v", err)
	}

	engine := service.NewEngine(cat, domain.EngineConfig{
		ContinuityWindowDays: *window,
		ReviewThreshold:      *threshold,
		ExactRuleConfidence:  0.95,
		ClassRuleConfidence:  0.75,
		ProjectGraph:         true,
	}, logger)

	result, err := engine.Evaluate(context.Background(), &req)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
	default:
		printText(result)
	}
}

func printText(result *domain.EvaluationResult) {
	fmt.Printf("Patient %s as of %s (catalog %s)\n",
		result.Patient, result.AsOf.Format("2006-01-02"), result.CatalogVersion)

	fmt.Printf("\nActive medications (%d):\n", len(result.Snapshot.Active))
	for _, p := range result.Snapshot.Active {
		fmt.Printf("  %-20s %s since %s\n", p.Drug, p.DoseLabel(), p.Start.Format("2006-01-02"))
	}

	if len(result.Snapshot.Changes) > 0 {
		fmt.Printf("\nMedication changes (%d):\n", len(result.Snapshot.Changes))
		for _, ch := range result.Snapshot.Changes {
			fmt.Printf("  %s  %-20s %s\n", ch.Date.Format("2006-01-02"), ch.Drug, ch.Type)
		}
	}

	fmt.Printf("\nFindings (%d):\n", len(result.Findings))
	for _, f := range result.Findings {
		fmt.Printf("  [%s] %s\n", f.Severity, f.Rationale.Summary)
	}
	if len(result.PendingReview) > 0 {
		fmt.Printf("\nPending review (%d):\n", len(result.PendingReview))
		for _, f := range result.PendingReview {
			fmt.Printf("  [%s] %s\n", f.Severity, f.Rationale.Summary)
		}
	}
	if len(result.Diagnostics) > 0 {
		fmt.Printf("\nDiagnostics (%d):\n", len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			fmt.Printf("  %s: %s\n", d.Type, d.Message)
		}
	}
}
