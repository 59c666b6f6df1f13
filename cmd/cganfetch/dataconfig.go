package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/icpac-igad/cgan-fetch/internal/datacfg"
)

// runDataConfig writes or updates a named entry in config/data_paths.yaml
// so the training code picks up a freshly downloaded data tree.
func runDataConfig(args []string) int {
	fs := flag.NewFlagSet("data-config", flag.ExitOnError)

	name := fs.String("name", "", "Configuration name, e.g. VM_SESSION (required)")
	basePath := fs.String("base-path", "", "Base directory where data is stored (required)")
	file := fs.String("file", filepath.Join("config", "data_paths.yaml"), "Path of the data_paths.yaml file to update")
	forecastPath := fs.String("forecast-path", "", "Path to forecast data (default: base path)")
	truthPath := fs.String("truth-path", "", "Path to truth data (default: <base>/TRUTH)")
	constantsPath := fs.String("constants-path", "", "Path to constants (default: <base>/constants)")
	tfrecordsPath := fs.String("tfrecords-path", "", "Path to TFRecords (default: <base>/tfrecords)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: cganfetch data-config [options]

Point an entry of config/data_paths.yaml at a downloaded data tree, e.g.:

  cganfetch data-config -name VM_SESSION -base-path /mnt/training-data

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if *name == "" || *basePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -name and -base-path are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	entry, err := datacfg.NewEntry(*basePath, datacfg.Overrides{
		ForecastPath:  *forecastPath,
		TruthPath:     *truthPath,
		ConstantsPath: *constantsPath,
		TFRecordsPath: *tfrecordsPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	if err := datacfg.Update(*file, *name, entry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Printf("updated %s entry %q:\n", *file, *name)
	fmt.Printf("  FORECAST_PATH:  %s\n", entry.General.ForecastPath)
	fmt.Printf("  TRUTH_PATH:     %s\n", entry.General.TruthPath)
	fmt.Printf("  CONSTANTS_PATH: %s\n", entry.General.ConstantsPath)
	fmt.Printf("  tfrecords_path: %s\n", entry.TFRecords.TFRecordsPath)
	return ExitSuccess
}
