package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/tessellab/meshpipe/internal/staging"
)

// runRecord is the persisted form of one run: a single JSON line appended to
// the run log so the file stays greppable and append-only.
type runRecord struct {
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Items     []itemRecord `json:"items"`
}

type itemRecord struct {
	Stem      string   `json:"stem"`
	Status    string   `json:"status"`
	Stage     string   `json:"stage,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
	ElapsedMS int64    `json:"elapsed_ms"`
}

// AppendRunLog appends the summary as one JSON line to path.
func AppendRunLog(path string, s *Summary) error {
	rec := runRecord{
		Start:     s.Start,
		End:       s.End,
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
	}
	for _, it := range s.Items {
		rec.Items = append(rec.Items, itemRecord{
			Stem:      it.Stem,
			Status:    string(it.Status),
			Stage:     string(it.Stage),
			Reason:    it.Reason,
			Artifacts: it.Artifacts,
			ElapsedMS: it.Elapsed.Milliseconds(),
		})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := staging.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
