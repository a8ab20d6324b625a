package pipeline

import "time"

// Stage labels where in the per-item sequence a failure occurred.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageSubmit    Stage = "submit"
	StageWait      Stage = "wait"
	StageResolve   Stage = "resolve"
	StageCollect   Stage = "collect"
)

// ItemStatus is the per-item outcome.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemFailed    ItemStatus = "failed"
	ItemSkipped   ItemStatus = "skipped" // Completed in an earlier run.
)

// ItemResult is one item's outcome for the summary and the run log.
type ItemResult struct {
	Stem      string
	Status    ItemStatus
	Stage     Stage  // Failing stage; empty unless Status is failed.
	Reason    string // Failure reason; empty unless Status is failed.
	Artifacts []string
	Bytes     int64
	Elapsed   time.Duration
}

// Outcome aggregates the batch result for the exit status.
type Outcome int

const (
	OutcomeSuccess Outcome = iota // Every item succeeded (or nothing to do).
	OutcomePartial                // Some items succeeded or were skipped, some failed.
	OutcomeFailure                // Every processed item failed.
)

// Summary collects per-item results and timing for one batch run.
type Summary struct {
	Start time.Time
	End   time.Time
	Items []ItemResult

	Total      int // Discovered items.
	Succeeded  int
	Failed     int
	Skipped    int
	TotalBytes int64 // Bytes copied into the output directory.
}

func (s *Summary) record(r ItemResult) {
	s.Items = append(s.Items, r)
	switch r.Status {
	case ItemSucceeded:
		s.Succeeded++
		s.TotalBytes += r.Bytes
	case ItemFailed:
		s.Failed++
	case ItemSkipped:
		s.Skipped++
	}
}

// FailedItems returns the failed results, in processing order.
func (s *Summary) FailedItems() []ItemResult {
	var out []ItemResult
	for _, r := range s.Items {
		if r.Status == ItemFailed {
			out = append(out, r)
		}
	}
	return out
}

// Outcome maps the counters onto the batch-level result.
func (s *Summary) Outcome() Outcome {
	if s.Failed == 0 {
		return OutcomeSuccess
	}
	if s.Succeeded > 0 || s.Skipped > 0 {
		return OutcomePartial
	}
	return OutcomeFailure
}
