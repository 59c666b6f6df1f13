package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/icpac-igad/cgan-fetch/internal/bucket"
	"github.com/icpac-igad/cgan-fetch/internal/gcsurl"
	"github.com/icpac-igad/cgan-fetch/internal/mirror"
	"github.com/icpac-igad/cgan-fetch/internal/progress"
)

// runMirror downloads every object under a bucket prefix to a local
// directory, reproducing the remote key structure with the prefix stripped.
func runMirror(args []string) int {
	fs := flag.NewFlagSet("mirror", flag.ExitOnError)

	creds := fs.String("creds", "", "Path to JSON service account key file (default: ambient credentials)")
	dest := fs.String("dest", ".", "Local destination directory")
	workers := fs.Int("workers", mirror.DefaultWorkers(), "Number of parallel downloads")
	skipExisting := fs.Bool("skip-existing", false, "Skip files that already exist locally with the same size")
	chunkSizeMB := fs.Int("chunk-size-mb", 8, "Read buffer size in MiB for large files (0 for the default buffer)")
	quiet := fs.Bool("quiet", false, "Suppress per-object progress lines")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: cganfetch mirror [options] <locator>

Mirror a storage prefix (folder) recursively to local disk, e.g.:

  cganfetch mirror -creds sa.json -dest /mnt/data -skip-existing gs://bucket/path

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one locator argument is required (e.g. gs://bucket/path)")
		fs.Usage()
		return ExitInvalidArgs
	}
	if *chunkSizeMB < 0 {
		fmt.Fprintln(os.Stderr, "Error: -chunk-size-mb must not be negative")
		return ExitInvalidArgs
	}

	loc, err := gcsurl.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	destDir, err := filepath.Abs(*dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	ctx := context.Background()

	bkt, err := bucket.Open(ctx, loc, *creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	if !*quiet {
		fmt.Printf("listing objects in %s\n", loc)
	}

	objects, err := mirror.List(ctx, bkt, loc.Prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	if len(objects) == 0 {
		fmt.Println("no objects found for the given prefix")
		return ExitSuccess
	}

	if !*quiet {
		fmt.Printf("found %d objects, downloading to %s\n", len(objects), destDir)
	}

	reporter := progress.NewReporter(progress.Options{Quiet: *quiet})
	summary := mirror.Run(ctx, bkt, loc.Prefix, objects, mirror.Options{
		Dest:         destDir,
		Workers:      *workers,
		SkipExisting: *skipExisting,
		ChunkSize:    int64(*chunkSizeMB) * 1024 * 1024,
		OnOutcome:    reporter.Record,
	})
	reporter.PrintSummary()

	if !summary.Ok() {
		return ExitGeneralError
	}
	return ExitSuccess
}
