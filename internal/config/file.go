package config

// This file implements the optional YAML config file. Values present in the
// file override defaults; CLI flags override both. Fields are pointers so
// that "absent" and "zero" stay distinguishable.

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the Config fields that make sense in a file. Durations
// use Go syntax ("90s", "45m").
type fileConfig struct {
	InputDir       *string `yaml:"input_dir"`
	OutputDir      *string `yaml:"output_dir"`
	WorkflowPath   *string `yaml:"workflow"`
	ServiceURL     *string `yaml:"service_url"`
	StageInputDir  *string `yaml:"stage_input_dir"`
	StageOutputDir *string `yaml:"stage_output_dir"`
	JobTimeout     *string `yaml:"job_timeout"`
	PollInterval   *string `yaml:"poll_interval"`
	SubmitAttempts *int    `yaml:"submit_attempts"`
	SubmitBackoff  *string `yaml:"submit_backoff"`
	RunLog         *string `yaml:"run_log"`
	LogFile        *string `yaml:"log_file"`
	Color          *string `yaml:"color"`
}

// ApplyFile reads a YAML config file and overlays its values onto cfg.
// Unknown keys are rejected so typos surface instead of being ignored.
func ApplyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	setString(&cfg.InputDir, fc.InputDir)
	setString(&cfg.OutputDir, fc.OutputDir)
	setString(&cfg.WorkflowPath, fc.WorkflowPath)
	setString(&cfg.ServiceURL, fc.ServiceURL)
	setString(&cfg.StageInputDir, fc.StageInputDir)
	setString(&cfg.StageOutputDir, fc.StageOutputDir)
	setString(&cfg.RunLog, fc.RunLog)
	setString(&cfg.LogFile, fc.LogFile)

	if fc.SubmitAttempts != nil {
		cfg.SubmitAttempts = *fc.SubmitAttempts
	}
	if fc.Color != nil {
		cfg.ColorMode = ColorMode(*fc.Color)
	}

	if err := setDuration(&cfg.JobTimeout, fc.JobTimeout, "job_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.PollInterval, fc.PollInterval, "poll_interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.SubmitBackoff, fc.SubmitBackoff, "submit_backoff"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, key string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("config file: %s: %w", key, err)
	}
	*dst = d
	return nil
}
