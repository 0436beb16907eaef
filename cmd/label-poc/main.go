// Command label-poc labels a single image and prints the detected labels.
// Useful for tuning confidence cutoffs and comparing label sources before a
// full matching run.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mantra-bazaar/imagematch/config"
	"github.com/mantra-bazaar/imagematch/internal/labeling"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [gemini|imagga|both]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY                    - Required for Gemini\n")
		fmt.Fprintf(os.Stderr, "  IMAGGA_API_KEY, IMAGGA_API_SECRET - Required for Imagga\n")
		os.Exit(1)
	}

	config.LoadEnvFile()

	imagePath := os.Args[1]
	provider := "both"
	if len(os.Args) >= 3 {
		provider = os.Args[2]
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	opts := labeling.Options{
		MaxLabels:     config.Int("IMAGEMATCH_MAX_LABELS", labeling.DefaultOptions.MaxLabels),
		MinConfidence: config.Float("IMAGEMATCH_MIN_CONFIDENCE", labeling.DefaultOptions.MinConfidence),
	}

	switch provider {
	case "gemini":
		runGemini(ctx, imageData, opts)
	case "imagga":
		runImagga(ctx, imageData, opts)
	case "both":
		runGemini(ctx, imageData, opts)
		fmt.Println("\n" + strings.Repeat("-", 50) + "\n")
		runImagga(ctx, imageData, opts)
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider: %s (use gemini, imagga, or both)\n", provider)
		os.Exit(1)
	}
}

func runGemini(ctx context.Context, imageData []byte, opts labeling.Options) {
	fmt.Println("=== GEMINI ===")

	source, err := labeling.NewGeminiSource(ctx, opts)
	if err != nil {
		fmt.Printf("Error creating Gemini source: %v\n", err)
		return
	}

	labels, err := source.DetectLabels(ctx, imageData)
	if err != nil {
		fmt.Printf("Error labeling image: %v\n", err)
		return
	}

	printLabels(labels)
	usage := source.Usage()
	fmt.Printf("\nTokens: %d in / %d out, cost $%.6f\n",
		usage.InputTokens, usage.OutputTokens, usage.CostUSD)
}

func runImagga(ctx context.Context, imageData []byte, opts labeling.Options) {
	fmt.Println("=== IMAGGA ===")

	key := os.Getenv("IMAGGA_API_KEY")
	secret := os.Getenv("IMAGGA_API_SECRET")
	if key == "" || secret == "" {
		fmt.Println("IMAGGA_API_KEY and IMAGGA_API_SECRET must both be set")
		return
	}

	source := labeling.NewImaggaSource(labeling.ImaggaOpts{
		APIKey:    key,
		APISecret: secret,
		Options:   opts,
	})
	labels, err := source.DetectLabels(ctx, imageData)
	if err != nil {
		fmt.Printf("Error labeling image: %v\n", err)
		return
	}

	printLabels(labels)
}

func printLabels(labels []labeling.Label) {
	if len(labels) == 0 {
		fmt.Println("(no labels detected)")
		return
	}
	for _, l := range labels {
		fmt.Printf("%6.2f  %s\n", l.Confidence, l.Name)
	}
}
