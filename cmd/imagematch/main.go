// Command imagematch matches a folder of product photos against an
// inventory CSV using an external image-recognition service, writes
// matched/unmatched/summary CSV artifacts, and optionally copies accepted
// images under product-derived filenames.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/dedent"
	"github.com/mantra-bazaar/imagematch/config"
	"github.com/mantra-bazaar/imagematch/internal/images"
	"github.com/mantra-bazaar/imagematch/internal/inventory"
	"github.com/mantra-bazaar/imagematch/internal/labeling"
	"github.com/mantra-bazaar/imagematch/internal/match"
	"github.com/mantra-bazaar/imagematch/internal/rename"
	"github.com/mantra-bazaar/imagematch/internal/report"
	"github.com/mantra-bazaar/imagematch/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "imagematch.log"

var usage = strings.TrimSpace(dedent.Dedent(`
	Usage: imagematch -inventory products.csv -images ./photos -out ./results [flags]

	Matches product photos to inventory records using visual labels from an
	image-recognition service and writes matched.csv, unmatched.csv and
	summary.csv to the output folder.

	Environment variables:
	  GEMINI_API_KEY                     use the Gemini label source
	  IMAGGA_API_KEY, IMAGGA_API_SECRET  use the Imagga label source
	  IMAGEMATCH_MAX_LABELS              labels requested per image (default 50)
	  IMAGEMATCH_MIN_CONFIDENCE          label confidence cutoff (default 30)

	Flags:
`))

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	config.LoadEnvFile()

	flags := flag.NewFlagSet("imagematch", flag.ExitOnError)
	var (
		inventoryPath = flags.String("inventory", "", "inventory CSV with product_id and name columns (required)")
		imagesDir     = flags.String("images", "", "folder of product photos (required)")
		outDir        = flags.String("out", "results", "output folder for CSV artifacts")
		sourceName    = flags.String("source", "", "label source: gemini or imagga (default: by available credentials)")
		cachePath     = flags.String("cache", "labels.db", "SQLite label cache path; empty disables caching")
		batchSize     = flags.Int("batch-size", labeling.DefaultBatchSize, "images per labeling batch")
		concurrency   = flags.Int("concurrency", labeling.DefaultConcurrency, "parallel labeling workers")
		callTimeout   = flags.Duration("call-timeout", labeling.DefaultCallTimeout, "per-image labeling timeout")
		threshold     = flags.Float64("threshold", match.DefaultThreshold, "minimum score to accept a match")
		doCopy        = flags.Bool("copy", false, "copy matched images into the output folder")
		template      = flags.String("template", rename.DefaultTemplate, "filename template for copied images")
		verbose       = flags.Bool("v", false, "debug logging")
	)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	setupLogging(*verbose)

	if *inventoryPath == "" || *imagesDir == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.New().String()
	logger := log.With().Str("run", runID[:8]).Logger()
	log.Logger = logger

	if err := run(ctx, runConfig{
		inventoryPath: *inventoryPath,
		imagesDir:     *imagesDir,
		outDir:        *outDir,
		sourceName:    *sourceName,
		cachePath:     *cachePath,
		batchSize:     *batchSize,
		concurrency:   *concurrency,
		callTimeout:   *callTimeout,
		threshold:     *threshold,
		doCopy:        *doCopy,
		template:      *template,
	}); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

type runConfig struct {
	inventoryPath string
	imagesDir     string
	outDir        string
	sourceName    string
	cachePath     string
	batchSize     int
	concurrency   int
	callTimeout   time.Duration
	threshold     float64
	doCopy        bool
	template      string
}

func run(ctx context.Context, cfg runConfig) error {
	start := time.Now()

	idx, err := inventory.LoadCSV(cfg.inventoryPath, inventory.Options{})
	if err != nil {
		return err
	}

	paths, err := images.List(cfg.imagesDir)
	if err != nil {
		return err
	}

	opts := labeling.Options{
		MaxLabels:     config.Int("IMAGEMATCH_MAX_LABELS", labeling.DefaultOptions.MaxLabels),
		MinConfidence: config.Float("IMAGEMATCH_MIN_CONFIDENCE", labeling.DefaultOptions.MinConfidence),
	}
	source, err := newSource(ctx, cfg.sourceName, opts)
	if err != nil {
		return err
	}

	if cfg.cachePath != "" {
		store, err := storage.NewSQLiteStore(cfg.cachePath)
		if err != nil {
			return fmt.Errorf("failed to open label cache: %w", err)
		}
		defer store.Close()
		source = labeling.NewCachedSource(source, store)
		log.Info().Str("path", cfg.cachePath).Msg("label caching enabled")
	}

	labelSet := labeling.LabelAll(ctx, paths, images.Read, source, labeling.DispatchOptions{
		BatchSize:   cfg.batchSize,
		Concurrency: cfg.concurrency,
		CallTimeout: cfg.callTimeout,
	})

	matched, unmatched := match.Match(labelSet, idx, cfg.threshold)
	rep := report.Summarize(matched, unmatched, idx)

	// Artifacts are written even when labeling was partially (or fully)
	// cancelled or failing; decisions already made are never lost.
	writeErr := rep.WriteCSV(cfg.outDir)

	fmt.Println(rep.RenderCounts())
	if len(rep.Summary) > 0 {
		fmt.Println(rep.RenderSummary())
	}

	if cfg.doCopy {
		copied, err := rename.CopyMatched(rep.Matched, rename.Options{
			Template:  cfg.template,
			OutputDir: cfg.outDir,
		})
		if err != nil {
			return err
		}
		log.Info().Int("copied", copied).Msg("renamed images written")
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("matched", len(rep.Matched)).
		Int("unmatched", len(rep.Unmatched)).
		Msg("matching run complete")
	return writeErr
}

// newSource picks the label source by name, or by which credentials are
// present when name is empty. Gemini wins when both are configured.
func newSource(ctx context.Context, name string, opts labeling.Options) (labeling.Source, error) {
	switch name {
	case "gemini":
		return labeling.NewGeminiSource(ctx, opts)
	case "imagga":
		return newImaggaFromEnv(opts)
	case "":
		if os.Getenv("GEMINI_API_KEY") != "" {
			return labeling.NewGeminiSource(ctx, opts)
		}
		if os.Getenv("IMAGGA_API_KEY") != "" {
			return newImaggaFromEnv(opts)
		}
		return nil, fmt.Errorf("no label source configured: set GEMINI_API_KEY or IMAGGA_API_KEY/IMAGGA_API_SECRET")
	default:
		return nil, fmt.Errorf("unknown label source %q (use gemini or imagga)", name)
	}
}

func newImaggaFromEnv(opts labeling.Options) (labeling.Source, error) {
	key := os.Getenv("IMAGGA_API_KEY")
	secret := os.Getenv("IMAGGA_API_SECRET")
	if key == "" || secret == "" {
		return nil, fmt.Errorf("IMAGGA_API_KEY and IMAGGA_API_SECRET must both be set")
	}
	return labeling.NewImaggaSource(labeling.ImaggaOpts{
		APIKey:    key,
		APISecret: secret,
		Options:   opts,
	}), nil
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Logger = log.Output(consoleWriter)
		log.Warn().Err(err).Msg("failed to open log file; logging to stderr only")
		return
	}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))
}
