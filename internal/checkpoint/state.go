// Package checkpoint persists per-run progress so an interrupted batch can
// resume without regenerating meshes that already exist. The state lives in
// a small JSON file under the output tree; an entry counts as complete only
// while its recorded output file still exists on disk.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/tessellab/meshpipe/internal/staging"
)

// Result records where one completed item's primary artifact landed.
type Result struct {
	Path string `json:"path"`
}

// State is the on-disk checkpoint. Save after every completed item so an
// interrupt loses at most the in-flight job.
type State struct {
	Results map[string]Result `json:"results"`

	path string
}

// DefaultPath returns the checkpoint location for an output directory.
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, "tracking", "image2mesh.state.json")
}

// Load reads the checkpoint at path, creating an empty state when the file
// does not exist. When forceStart is set, any existing checkpoint is
// deleted first.
func Load(path string, forceStart bool) (*State, error) {
	if forceStart {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	st := &State{Results: make(map[string]Result), path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, st); err != nil {
		// A corrupt checkpoint only costs regeneration; start fresh.
		st.Results = make(map[string]Result)
	}
	if st.Results == nil {
		st.Results = make(map[string]Result)
	}
	return st, nil
}

// Save writes the state to its checkpoint file, creating parent directories
// as needed.
func (s *State) Save() error {
	if err := staging.EnsureDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// IsComplete reports whether stem finished in an earlier run and its output
// is still present.
func (s *State) IsComplete(stem string) bool {
	res, ok := s.Results[stem]
	if !ok || res.Path == "" {
		return false
	}
	_, err := os.Stat(res.Path)
	return err == nil
}

// SetResult records stem as complete with its primary output path and
// persists immediately.
func (s *State) SetResult(stem, path string) error {
	s.Results[stem] = Result{Path: path}
	return s.Save()
}

// Prune drops entries whose output file no longer exists and reports how
// many were removed. Call at run start so deleted outputs get regenerated.
func (s *State) Prune() (int, error) {
	removed := 0
	for stem, res := range s.Results {
		if res.Path == "" {
			delete(s.Results, stem)
			removed++
			continue
		}
		if _, err := os.Stat(res.Path); err != nil {
			delete(s.Results, stem)
			removed++
		}
	}
	if removed > 0 {
		return removed, s.Save()
	}
	return 0, nil
}

// CompletedStems returns the completed stems in sorted order.
func (s *State) CompletedStems() []string {
	stems := make([]string, 0, len(s.Results))
	for stem := range s.Results {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	return stems
}
