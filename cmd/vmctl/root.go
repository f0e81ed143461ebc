package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vmkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	// stdout is where commands write their results. Tests swap it.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "vmctl",
	Short: "Drive and inspect the interpreter's memory runtime",
	Long: `vmctl runs allocation scripts against the interpreter's memory runtime
and reports the resulting chunk layouts, allocator statistics and status log.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log runtime events to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func initLogging() {
	logger.Init(logger.Options{
		Enabled: verbose && !quiet,
		Writer:  os.Stderr,
		Level:   slog.LevelDebug,
		JSON:    jsonOut,
	})
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
