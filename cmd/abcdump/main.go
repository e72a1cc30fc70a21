package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/abcdump/internal/cli"
	"github.com/temirov/abcdump/internal/utils"
)

const (
	loggerInitializationFailedFormat = "failed to initialize logger: %w"
	applicationExecutionFailedText   = "abcdump failed"
	archivesDifferExitCode           = 1
)

// main is the entry point for the abcdump command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(utils.DefaultLogLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(loggerInitializationFailedFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		if errors.Is(applicationExecutionError, cli.ErrArchivesDiffer) {
			_ = loggerInstance.Sync()
			os.Exit(archivesDifferExitCode)
		}
		loggerInstance.Fatal(applicationExecutionFailedText + ": " + applicationExecutionError.Error())
	}
}
