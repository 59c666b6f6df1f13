package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1 // includes runs where some objects failed
	ExitInvalidArgs  = 2
	ExitStorageError = 3 // bucket open or listing failed
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "mirror":
		return runMirror(cmdArgs)
	case "train-data":
		return runTrainData(cmdArgs)
	case "data-config":
		return runDataConfig(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: cganfetch <command> [options]

Commands:
  mirror       Mirror a bucket prefix (gs://bucket/path) to a local directory
  train-data   Download cGAN training data (forecast years, constants) from GCS
  data-config  Write or update an entry in config/data_paths.yaml

Run 'cganfetch <command> -h' for command-specific help.`)
}
