package comfy

// Status is the observed state of one job. Transition authority rests with
// the Waiter, which derives it purely from polled history responses plus
// elapsed time against the timeout.
type Status string

const (
	StatusPending   Status = "PENDING"   // No history record yet.
	StatusRunning   Status = "RUNNING"   // Record present, not completed.
	StatusSucceeded Status = "SUCCEEDED" // Terminal success marker seen.
	StatusFailed    Status = "FAILED"    // Explicit error marker seen.
	StatusTimedOut  Status = "TIMEDOUT"  // Wall-clock budget exhausted.
)

// Terminal reports whether the status ends the wait.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// classify maps one history poll result onto a status. failureMarker is the
// status string the service uses for jobs that errored.
const failureMarker = "error"

func classify(entry HistoryEntry, found bool) Status {
	if !found {
		return StatusPending
	}
	if entry.Status.StatusStr == failureMarker {
		return StatusFailed
	}
	if entry.Status.Completed {
		return StatusSucceeded
	}
	return StatusRunning
}
