// Package check provides environment diagnostics (--check mode): service
// reachability, workflow template validity, and directory access. It is
// informational and read-only except for a write probe in the output dir.
package check

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/tessellab/meshpipe/internal/comfy"
	"github.com/tessellab/meshpipe/internal/config"
	"github.com/tessellab/meshpipe/internal/workflow"
)

const pingTimeout = 10 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow and reports whether every
// probe passed. It never aborts early: all probes run so the user sees the
// full picture in one pass.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== Environment Check ===")

	ok := checkService(cfg, log)
	ok = checkTemplate(cfg, log) && ok
	ok = checkDirs(cfg, log) && ok
	return ok
}

// checkService verifies the generation service answers HTTP at all.
func checkService(cfg *config.Config, log Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	client := comfy.NewClient(cfg.ServiceURL, 1, 0)
	if err := client.Ping(ctx); err != nil {
		log.Error("Service: %v", err)
		return false
	}
	log.Success("Service answers at %s", cfg.ServiceURL)
	return true
}

// checkTemplate loads and validates the workflow template.
func checkTemplate(cfg *config.Config, log Logger) bool {
	if _, err := workflow.Load(cfg.WorkflowPath); err != nil {
		log.Error("Workflow: %v", err)
		return false
	}
	log.Success("Workflow template OK: %s", cfg.WorkflowPath)
	return true
}

// checkDirs probes the input, staging, and output directories.
func checkDirs(cfg *config.Config, log Logger) bool {
	ok := true

	if info, err := os.Stat(cfg.InputDir); err != nil || !info.IsDir() {
		log.Error("Input dir missing: %s", cfg.InputDir)
		ok = false
	} else {
		log.Success("Input dir: %s", cfg.InputDir)
	}

	for _, d := range []struct{ label, path string }{
		{"Staging input", cfg.StageInputDir},
		{"Staging output", cfg.StageOutputDir},
	} {
		if info, err := os.Stat(d.path); err != nil || !info.IsDir() {
			log.Warn("%s dir missing (created at run time): %s", d.label, d.path)
		} else {
			log.Success("%s dir: %s", d.label, d.path)
		}
	}

	if !writable(cfg.OutputDir) {
		log.Error("Output dir not writable: %s", cfg.OutputDir)
		ok = false
	} else {
		log.Success("Output dir writable: %s", cfg.OutputDir)
	}
	return ok
}

// writable creates and removes a probe file to confirm write access.
// The directory is created first if it does not exist yet.
func writable(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte{}, 0o644); err != nil {
		return false
	}
	os.Remove(probe)
	return true
}
