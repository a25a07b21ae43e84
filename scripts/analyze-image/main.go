// analyze-image sends a local image through the configured inference provider
// and prints the normalized detection alongside the provider's raw report.
//
// Useful for checking a provider or prompt change without starting the server
// or touching the database.
//
// Usage: go run ./scripts/analyze-image <image-file>
//
// Requires: INFERENCE_API_KEY environment variable
// Provider selection: uses config.yaml, overridable via INFERENCE_* variables
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/config"
	"github.com/cropmind/cropmind-engine/pkg/inference"
	"github.com/cropmind/cropmind-engine/pkg/services"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: analyze-image <image-file>")
		os.Exit(1)
	}

	cfg, err := config.Load("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	analyzer, err := inference.NewAnalyzer(&cfg.Inference, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create analyzer: %v\n", err)
		os.Exit(1)
	}

	image, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read image: %v\n", err)
		os.Exit(1)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(os.Args[1]))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	analysis, err := analyzer.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze image: %v\n", err)
		os.Exit(1)
	}

	draft := services.ParseDetectionReport(analysis.Text)

	fmt.Printf("Provider: %s (model %s)\n", analyzer.Provider(), cfg.Inference.Model)
	fmt.Printf("Elapsed: %s\n\n", time.Since(start).Round(time.Millisecond))
	fmt.Println("--- Raw report ---")
	fmt.Println(analysis.Text)
	fmt.Println("\n--- Normalized detection ---")

	out, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal draft: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
