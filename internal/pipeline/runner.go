package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tessellab/meshpipe/internal/artifacts"
	"github.com/tessellab/meshpipe/internal/checkpoint"
	"github.com/tessellab/meshpipe/internal/comfy"
	"github.com/tessellab/meshpipe/internal/config"
	"github.com/tessellab/meshpipe/internal/display"
	"github.com/tessellab/meshpipe/internal/imaging"
	"github.com/tessellab/meshpipe/internal/logging"
	"github.com/tessellab/meshpipe/internal/staging"
	"github.com/tessellab/meshpipe/internal/workflow"
)

// Run is the top-level batch entry point. It loads the job template,
// discovers inputs, verifies the service answers, prepares the staging and
// output areas, processes each item sequentially, and returns the summary.
//
// A non-nil error means the batch could not start at all (bad template,
// missing input directory, unreachable service); nothing was submitted.
// Per-item failures never surface here — they live in the Summary.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (Summary, error) {
	summary := Summary{Start: time.Now()}

	tmpl, err := workflow.Load(cfg.WorkflowPath)
	if err != nil {
		return summary, err
	}

	items, err := Discover(cfg.InputDir)
	if err != nil {
		return summary, err
	}
	summary.Total = len(items)
	if len(items) == 0 {
		log.Warn("No input images found in %s", cfg.InputDir)
		summary.End = time.Now()
		return summary, nil
	}

	client := comfy.NewClient(cfg.ServiceURL, cfg.SubmitAttempts, cfg.SubmitBackoff)
	if err := client.Ping(ctx); err != nil {
		return summary, err
	}

	state, err := checkpoint.Load(checkpoint.DefaultPath(cfg.OutputDir), cfg.ForceStart)
	if err != nil {
		return summary, fmt.Errorf("checkpoint: %w", err)
	}
	if removed, err := state.Prune(); err != nil {
		log.Warn("Checkpoint prune failed: %v", err)
	} else if removed > 0 {
		log.Debug(cfg.Verbose, "Checkpoint: dropped %d stale entries", removed)
	}

	// The staging input area is scoped to this run: empty it so stale files
	// from an earlier run can never feed a later job.
	if err := staging.ClearDir(cfg.StageInputDir); err != nil {
		return summary, err
	}
	if err := staging.EnsureDir(cfg.StageOutputDir); err != nil {
		return summary, err
	}
	if err := staging.EnsureDir(cfg.OutputDir); err != nil {
		return summary, err
	}

	waiter := comfy.NewWaiter(client, cfg.PollInterval, cfg.JobTimeout)

	log.Info("Found %d image(s) in %s", len(items), cfg.InputDir)
	log.Info("Service: %s (client %s)", cfg.ServiceURL, client.ClientID())
	log.Info("Staging: in %s, out %s", cfg.StageInputDir, cfg.StageOutputDir)
	log.Info("Timeout: %s per job, polling every %s", cfg.JobTimeout, cfg.PollInterval)
	log.Info("")

	for i, item := range items {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}

		log.Info("[%d/%d] %s", i+1, len(items), item.Stem)

		if !cfg.Force && state.IsComplete(item.Stem) {
			log.Info("  Skip (already generated)")
			summary.record(ItemResult{Stem: item.Stem, Status: ItemSkipped})
			continue
		}

		summary.record(processItem(ctx, cfg, log, item, tmpl, client, waiter, state))
	}

	summary.End = time.Now()
	logSummary(log, &summary)

	if err := AppendRunLog(cfg.RunLog, &summary); err != nil {
		log.Warn("Cannot write run log: %v", err)
	}
	return summary, nil
}

// processItem runs one item through normalize → submit → wait → resolve →
// collect. Every failure is caught here and attributed to its stage; the
// batch always continues.
func processItem(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	item WorkItem,
	tmpl *workflow.Template,
	client *comfy.Client,
	waiter *comfy.Waiter,
	state *checkpoint.State,
) ItemResult {
	start := time.Now()
	fail := func(stage Stage, err error) ItemResult {
		log.Error("  %s failed: %v", stage, err)
		return ItemResult{
			Stem:    item.Stem,
			Status:  ItemFailed,
			Stage:   stage,
			Reason:  err.Error(),
			Elapsed: time.Since(start),
		}
	}

	// --- Normalize ---
	staged, err := imaging.Normalize(item.Path, item.Stem, cfg.StageInputDir)
	if err != nil {
		return fail(StageNormalize, err)
	}
	if staged.Reencoded {
		log.Debug(cfg.Verbose, "  Staged %s: %dx%d -> %dx%d",
			staged.Name, staged.OriginalWidth, staged.OriginalHeight, staged.Width, staged.Height)
	} else {
		log.Debug(cfg.Verbose, "  Staged %s unchanged (%dx%d)", staged.Name, staged.Width, staged.Height)
	}

	// --- Submit ---
	nodes, err := tmpl.Instantiate(staged.Name, item.Stem)
	if err != nil {
		return fail(StageSubmit, err)
	}
	jobID, err := client.Submit(ctx, nodes)
	if err != nil {
		return fail(StageSubmit, err)
	}
	log.Info("  Queued job %s, waiting...", jobID)

	// --- Wait ---
	status, err := waiter.Wait(ctx, jobID)
	if status != comfy.StatusSucceeded {
		return fail(StageWait, err)
	}

	// --- Resolve ---
	set, err := artifacts.Resolve(cfg.StageOutputDir, item.Stem)
	if err != nil {
		return fail(StageResolve, err)
	}

	// --- Collect ---
	copied, err := artifacts.Collect(set, cfg.OutputDir)
	if err != nil {
		return fail(StageCollect, err)
	}

	var names []string
	var bytes int64
	for _, c := range copied {
		names = append(names, c.Name)
		bytes += c.Bytes
	}

	if primary, ok := set.Primary(); ok {
		out := artifacts.OutputName(set.Stem, primary.Suffix)
		if err := state.SetResult(item.Stem, filepath.Join(cfg.OutputDir, out)); err != nil {
			log.Warn("  Cannot update checkpoint: %v", err)
		}
	}

	elapsed := time.Since(start)
	log.Success("  Collected %d artifact(s) (%s) in %s",
		len(copied), display.FormatBytes(bytes), display.FormatDuration(elapsed))

	return ItemResult{
		Stem:      item.Stem,
		Status:    ItemSucceeded,
		Artifacts: names,
		Bytes:     bytes,
		Elapsed:   elapsed,
	}
}

func logSummary(log *logging.Logger, s *Summary) {
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d skipped, %d failed (of %d)",
		s.Succeeded, s.Skipped, s.Failed, s.Total)
	if s.TotalBytes > 0 {
		log.Info("  Collected %s in %s",
			display.FormatBytes(s.TotalBytes), display.FormatDuration(s.End.Sub(s.Start)))
	}
	for _, r := range s.FailedItems() {
		log.Error("  %s: failed at %s: %s", r.Stem, r.Stage, r.Reason)
	}
}
