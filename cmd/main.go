// Command meshpipe is the CLI entrypoint for the image-to-mesh batch driver.
//
// It parses flags, validates configuration and paths, and either runs
// environment diagnostics (--check), lists checkpointed items
// (--list-completed), or runs the generation pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tessellab/meshpipe/internal/check"
	"github.com/tessellab/meshpipe/internal/checkpoint"
	"github.com/tessellab/meshpipe/internal/config"
	"github.com/tessellab/meshpipe/internal/display"
	"github.com/tessellab/meshpipe/internal/logging"
	"github.com/tessellab/meshpipe/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// Exit codes: 0 all items succeeded (or nothing to do), 1 the batch could
// not run or every item failed, 2 some items failed while others made it.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "meshpipe: %v\n", err)
		return exitFatal
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "meshpipe: %v\n", err)
		return exitFatal
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "meshpipe: %v\n", err)
		return exitFatal
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return exitFatal
		}
		return exitOK
	}

	if cfg.ListCompleted {
		return listCompleted(&cfg, log)
	}

	// Resolve and validate paths: input must exist, output is created if
	// needed, and output must not be inside input.
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return exitFatal
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.OutputDir)
		return exitFatal
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return exitFatal
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.InputDir)
		return exitFatal
	}

	log.Info("=== meshpipe v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)
	log.Info("")

	// Phase 3: Signal handling — cancel context on SIGINT/SIGTERM so the
	// pipeline can stop between items without leaving partial output.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current item…")
		cancel()
	}()

	// Phase 4: Run the batch (discover → normalize → submit → wait → collect).
	summary, err := pipeline.Run(ctx, &cfg, log)
	if err != nil {
		log.Error("%v", err)
		return exitFatal
	}

	switch summary.Outcome() {
	case pipeline.OutcomeSuccess:
		return exitOK
	case pipeline.OutcomePartial:
		return exitPartial
	default:
		return exitFatal
	}
}

// listCompleted prints the stems the checkpoint marks as done, one per line.
func listCompleted(cfg *config.Config, log *logging.Logger) int {
	state, err := checkpoint.Load(checkpoint.DefaultPath(cfg.OutputDir), false)
	if err != nil {
		log.Error("%v", err)
		return exitFatal
	}
	stems := state.CompletedStems()
	if len(stems) == 0 {
		log.Info("No completed items recorded")
		return exitOK
	}
	for _, stem := range stems {
		fmt.Println(stem)
	}
	return exitOK
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
