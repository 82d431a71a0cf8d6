package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/region"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool

	// Heap geometry and logging
	pageSize  int
	minRegion int
	arenaSize int
	logFile   string
	logLevel  string

	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise and inspect the heapkit allocator",
	Long: `heapctl drives a heapkit heap from the command line. It runs the
allocator correctness checks, replays allocation traces and renders the
resulting block chain.

By default regions come from anonymous mmap. Pass --arena to carve them out
of an in-process buffer instead, which gives reproducible addresses.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 0, "Region rounding granularity (default: OS page size)")
	rootCmd.PersistentFlags().
		IntVar(&minRegion, "min-region", 0, fmt.Sprintf("Smallest region ever mapped (default: %d)", heap.DefaultMinRegionBytes))
	rootCmd.PersistentFlags().IntVar(&arenaSize, "arena", 0, "Map regions from an in-process arena of this many bytes")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// setupLogging enables the global logger when any logging flag is set.
// --verbose alone logs allocator debug events to stderr.
func setupLogging() error {
	opts := logger.Options{
		Enabled: verbose || logFile != "" || logLevel != "",
		File:    logFile,
		Level:   slog.LevelInfo,
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if logLevel != "" {
		lvl, ok := logger.ParseLevel(logLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q (must be debug, info, warn, or error)", logLevel)
		}
		opts.Level = lvl
	}

	closeFn, err := logger.Init(opts)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	closeLog = closeFn
	return nil
}

// newHeap builds and initializes a heap from the global flags.
func newHeap(initial int) (*heap.Heap, error) {
	if arenaSize < 0 {
		return nil, fmt.Errorf("arena size must not be negative, got %d", arenaSize)
	}
	cfg := heap.Config{
		PageSize:       pageSize,
		MinRegionBytes: minRegion,
	}
	if arenaSize > 0 {
		a := region.NewArena(arenaSize)
		cfg.Provider = a
		cfg.StartAddress = a.Base()
	}

	h, err := heap.New(cfg)
	if err != nil {
		return nil, err
	}
	start, err := h.Init(initial)
	if err != nil {
		return nil, err
	}
	printVerbose("Heap initialized at %#x (%s mapped)\n", start, formatBytes(h.Stats().BytesMapped))
	return h, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
