package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/icpac-igad/cgan-fetch/internal/bucket"
	"github.com/icpac-igad/cgan-fetch/internal/config"
	"github.com/icpac-igad/cgan-fetch/internal/gcsurl"
	"github.com/icpac-igad/cgan-fetch/internal/mirror"
	"github.com/icpac-igad/cgan-fetch/internal/progress"
)

// runTrainData mirrors the selected training-data prefixes (forecast years
// and optionally the constants folder) from the training bucket into a
// local tree, one subdirectory per prefix.
func runTrainData(args []string) int {
	fs := flag.NewFlagSet("train-data", flag.ExitOnError)

	configFile := fs.String("config", "", "YAML configuration file")
	bucketName := fs.String("bucket", "", "GCS bucket name (default: "+config.DefaultBucket+")")
	creds := fs.String("creds", "", "Path to JSON service account key file")
	dest := fs.String("dest", "", "Local destination directory")
	years := fs.String("years", "", "Comma-separated years to download (available: "+strings.Join(config.AvailableYears, ", ")+")")
	constants := fs.Bool("constants", false, "Also download the constants folder (elevation, land-sea mask, ...)")
	paths := fs.String("paths", "", "Comma-separated custom bucket paths (overrides -years and -constants)")
	workers := fs.Int("workers", 0, "Number of parallel downloads (default: min(16, 4x CPU))")
	skipExisting := fs.Bool("skip-existing", false, "Skip files that already exist locally with the same size")
	chunkSizeMB := fs.Int("chunk-size-mb", -1, "Read buffer size in MiB (default 8, 0 for the default buffer)")
	quiet := fs.Bool("quiet", false, "Suppress progress output")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: cganfetch train-data [options]

Download cGAN training data from the GCS training bucket. Each selected
path lands under <dest>/<path>, ready for config/data_paths.yaml, e.g.:

  cganfetch train-data -creds sa.json -dest /mnt/training-data \
      -years 2018,2019,2020 -constants -skip-existing

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	// Flags set on the command line win over file and environment.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["bucket"] {
		cfg.Bucket = *bucketName
	}
	if set["creds"] {
		cfg.Credentials = *creds
	}
	if set["dest"] {
		cfg.Dest = *dest
	}
	if set["years"] {
		cfg.Years = splitList(*years)
	}
	if set["constants"] {
		cfg.Constants = *constants
	}
	if set["paths"] {
		cfg.Paths = splitList(*paths)
	}
	if set["workers"] {
		cfg.Workers = *workers
	}
	if set["skip-existing"] {
		cfg.SkipExisting = *skipExisting
	}
	if set["chunk-size-mb"] {
		cfg.ChunkSize = int64(*chunkSizeMB) * 1024 * 1024
	}
	if set["quiet"] {
		cfg.Quiet = *quiet
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Available years: %s\n", strings.Join(config.AvailableYears, ", "))
		return ExitInvalidArgs
	}

	selected := cfg.SelectedPaths()

	if !cfg.Quiet {
		fmt.Printf("bucket:        gs://%s\n", cfg.Bucket)
		fmt.Printf("paths:         %s\n", strings.Join(selected, ", "))
		fmt.Printf("destination:   %s\n", cfg.Dest)
		fmt.Printf("workers:       %d\n", cfg.Workers)
		fmt.Printf("skip existing: %v\n", cfg.SkipExisting)
		fmt.Printf("chunk size:    %s\n", progress.FormatBytes(cfg.ChunkSize))
		fmt.Println()
	}

	ctx := context.Background()

	loc := gcsurl.Locator{Scheme: "gs", Bucket: cfg.Bucket}
	bkt, err := bucket.Open(ctx, loc, cfg.Credentials)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	var total mirror.Summary
	listingFailures := 0

	for _, p := range selected {
		prefix := strings.Trim(p, "/")
		destDir := filepath.Join(cfg.Dest, filepath.FromSlash(prefix))
		prefix += "/"

		if !cfg.Quiet {
			fmt.Printf("downloading gs://%s/%s -> %s\n", cfg.Bucket, prefix, destDir)
		}

		objects, err := mirror.List(ctx, bkt, prefix)
		if err != nil {
			// One unlistable prefix should not stop the rest.
			fmt.Fprintf(os.Stderr, "Error listing %s: %v\n", prefix, err)
			listingFailures++
			continue
		}
		if len(objects) == 0 {
			if !cfg.Quiet {
				fmt.Printf("no objects found for prefix %s\n", prefix)
			}
			continue
		}

		reporter := progress.NewReporter(progress.Options{Quiet: cfg.Quiet})
		summary := mirror.Run(ctx, bkt, prefix, objects, mirror.Options{
			Dest:         destDir,
			Workers:      cfg.Workers,
			SkipExisting: cfg.SkipExisting,
			ChunkSize:    cfg.ChunkSize,
			Retry:        cfg.RetryPolicy(),
			OnOutcome:    reporter.Record,
		})
		reporter.PrintSummary()
		total.Merge(summary)
	}

	fmt.Printf("total: %d downloaded (%s), %d skipped, %d failed, %d objects across %d paths\n",
		total.Downloaded, progress.FormatBytes(total.Bytes), total.Skipped, total.Failed, total.Total, len(selected))

	if listingFailures > 0 {
		return ExitStorageError
	}
	if !total.Ok() {
		return ExitGeneralError
	}
	return ExitSuccess
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
