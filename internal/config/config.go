// Package config holds runtime configuration: defaults, the optional YAML
// config file, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [ApplyFile], and then mutated by [ParseFlags]
// before being passed (by pointer) to packages that need it.
type Config struct {
	// Paths.
	InputDir     string // Source images. Default: "input".
	OutputDir    string // Collected meshes. Default: "output".
	WorkflowPath string // Job template JSON. Default: "workflow/image2mesh.json".

	// Service.
	ServiceURL     string // Base URL. Default: COMFYUI_BASE_URL env or local loopback.
	StageInputDir  string // Service staging input. Default: <service dir>/input.
	StageOutputDir string // Service staging output. Default: <service dir>/output.

	// Job completion.
	JobTimeout   time.Duration // Per-job wall-clock limit. Default: 1h.
	PollInterval time.Duration // History poll interval. Default: 2s.

	// Submission transport retry.
	SubmitAttempts int           // Attempts for transport-level failures. Default: 3.
	SubmitBackoff  time.Duration // Base backoff between attempts. Default: 2s.

	// Behavior flags.
	Force         bool // Regenerate items the checkpoint marks complete.
	ForceStart    bool // Discard the checkpoint before running.
	ListCompleted bool // Print completed stems and exit.
	CheckOnly     bool // Run diagnostics and exit.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	RunLog    string    // Run record path. Default: <OutputDir>/meshpipe-run.log.
}

// DefaultServiceURL is used when neither the COMFYUI_BASE_URL env var nor a
// flag/file override is present.
const DefaultServiceURL = "http://127.0.0.1:8188"

// DefaultConfig returns a Config with all defaults applied. Staging
// directories default under the resolved service directory (see
// [ServiceDir]); the run log path is derived from OutputDir at validation
// time when left empty.
func DefaultConfig() Config {
	url := os.Getenv("COMFYUI_BASE_URL")
	if url == "" {
		url = DefaultServiceURL
	}
	svc := ServiceDir()
	return Config{
		InputDir:       "input",
		OutputDir:      "output",
		WorkflowPath:   filepath.Join("workflow", "image2mesh.json"),
		ServiceURL:     url,
		StageInputDir:  filepath.Join(svc, "input"),
		StageOutputDir: filepath.Join(svc, "output"),
		JobTimeout:     time.Hour,
		PollInterval:   2 * time.Second,
		SubmitAttempts: 3,
		SubmitBackoff:  2 * time.Second,
		ColorMode:      ColorAuto,
	}
}

// ServiceDir resolves the generation service's directory: the COMFYUI_DIR
// env var when set, otherwise the sibling "../ComfyUI" convention.
func ServiceDir() string {
	if dir := os.Getenv("COMFYUI_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("..", "ComfyUI")
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, required paths, and duration sanity, and
// fills the derived RunLog default. Diagnostics-only modes (CheckOnly,
// ListCompleted) skip the path requirements a full run needs.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.ServiceURL == "" {
		return errors.New("service URL must not be empty")
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")

	if c.JobTimeout <= 0 {
		return fmt.Errorf("job timeout must be positive (got %s)", c.JobTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive (got %s)", c.PollInterval)
	}
	if c.SubmitAttempts < 1 {
		return fmt.Errorf("submit attempts must be at least 1 (got %d)", c.SubmitAttempts)
	}

	if c.CheckOnly || c.ListCompleted {
		return nil
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return errors.New("input and output directories must not be empty")
	}
	if c.StageInputDir == "" || c.StageOutputDir == "" {
		return errors.New("staging directories must not be empty")
	}
	if c.RunLog == "" {
		c.RunLog = filepath.Join(c.OutputDir, "meshpipe-run.log")
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, so the pipeline never collects into the
// tree it discovers from. Both arguments must be absolute, symlink-resolved
// paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
