package config

// This file implements CLI flag parsing and help text. Flags are grouped into
// paths, service, behavior, display, and utility. The --config file is
// applied between defaults and flags, so flags always win.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses args (typically os.Args[1:]) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, bad duration).
func ParseFlags(cfg *Config, args []string, version string) error {
	fs := flag.NewFlagSet("meshpipe", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs, version) }

	var (
		configPath  string
		forceColor  bool
		noColor     bool
		showVersion bool
		showHelp    bool
	)

	// Two passes are avoided by overlaying the file before flag values are
	// read back: flag.Parse writes directly into cfg fields, so the file is
	// applied first via a pre-scan of --config.
	configPath = prescanConfigPath(args)
	if configPath != "" {
		if err := ApplyFile(cfg, configPath); err != nil {
			return err
		}
	}

	fs.StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "Folder containing input images")
	fs.StringVar(&cfg.InputDir, "i", cfg.InputDir, "Same as --input-dir")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Folder for collected mesh files")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "Same as --output-dir")
	fs.StringVar(&cfg.WorkflowPath, "workflow", cfg.WorkflowPath, "Path to the job template JSON")

	fs.StringVar(&cfg.ServiceURL, "url", cfg.ServiceURL, "Generation service base URL")
	fs.StringVar(&cfg.StageInputDir, "stage-input", cfg.StageInputDir, "Service staging input directory")
	fs.StringVar(&cfg.StageOutputDir, "stage-output", cfg.StageOutputDir, "Service staging output directory")
	fs.DurationVar(&cfg.JobTimeout, "timeout", cfg.JobTimeout, "Per-job completion timeout")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "History poll interval")

	fs.BoolVar(&cfg.Force, "force", false, "Regenerate all meshes (ignore checkpoint)")
	fs.BoolVar(&cfg.Force, "f", false, "Same as --force")
	fs.BoolVar(&cfg.ForceStart, "force-start", false, "Discard the checkpoint and start fresh")
	fs.BoolVar(&cfg.ListCompleted, "list-completed", false, "List completed stems and exit")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run service diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")

	fs.BoolVar(&forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")

	fs.StringVar(&configPath, "config", configPath, "YAML config file (applied before flags)")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&showVersion, "V", false, "Same as --version")
	fs.BoolVar(&showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&showHelp, "h", false, "Same as --help")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs, version)
		os.Exit(0)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, "meshpipe v"+version)
		os.Exit(0)
	}

	if noColor {
		cfg.ColorMode = ColorNever
	} else if forceColor {
		cfg.ColorMode = ColorAlways
	}

	if len(fs.Args()) != 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg.InputDir = NormalizeDirArg(cfg.InputDir)
	cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	return nil
}

// prescanConfigPath finds --config in raw args before flag parsing, so the
// file can be applied underneath the other flags.
func prescanConfigPath(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" || a == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config=")
		}
	}
	return ""
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(fs *flag.FlagSet, version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "meshpipe v" + version + " — batch image-to-mesh generation driver"},
		{"", ""},
		{"  meshpipe [OPTIONS]", ""},
		{"", ""},
		{"Paths", ""},
		{"  -i, --input-dir <dir>", "Folder containing input images (default: input)"},
		{"  -o, --output-dir <dir>", "Folder for collected mesh files (default: output)"},
		{"  --workflow <path>", "Job template JSON (default: workflow/image2mesh.json)"},
		{"", ""},
		{"Service", ""},
		{"  --url <base-url>", "Service base URL (default: " + DefaultServiceURL + ")"},
		{"  --stage-input <dir>", "Service staging input directory"},
		{"  --stage-output <dir>", "Service staging output directory"},
		{"  --timeout <dur>", "Per-job completion timeout (default: 1h)"},
		{"  --poll-interval <dur>", "History poll interval (default: 2s)"},
		{"", ""},
		{"Behavior", ""},
		{"  -f, --force", "Regenerate all meshes (ignore checkpoint)"},
		{"  --force-start", "Discard the checkpoint and start fresh"},
		{"  --list-completed", "List completed stems and exit"},
		{"  -c, --check", "Service diagnostics (reachability, template, dirs)"},
		{"", ""},
		{"Display & utility", ""},
		{"  --config <path>", "YAML config file (applied before flags)"},
		{"  --log <path>", "Append logs to file"},
		{"  --color / --no-color", "Force / disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}
